// Copyright (C) 2025  nagare authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mathext

import "testing"

func TestMin(t *testing.T) {
	if got := Min(1, 2); got != 1 {
		t.Errorf("Min(1, 2) = %d, want 1", got)
	}
	if got := Min(-1.5, 1.5); got != -1.5 {
		t.Errorf("Min(-1.5, 1.5) = %f, want -1.5", got)
	}
}

func TestMax(t *testing.T) {
	if got := Max(1, 2); got != 2 {
		t.Errorf("Max(1, 2) = %d, want 2", got)
	}
	if got := Max(-1.5, 1.5); got != 1.5 {
		t.Errorf("Max(-1.5, 1.5) = %f, want 1.5", got)
	}
}

func TestMid(t *testing.T) {
	if got := Mid(3, 1, 2); got != 2 {
		t.Errorf("Mid(3, 1, 2) = %d, want 2", got)
	}
}

func TestAbs(t *testing.T) {
	if got := Abs(-7); got != 7 {
		t.Errorf("Abs(-7) = %d, want 7", got)
	}
	if got := Abs(7); got != 7 {
		t.Errorf("Abs(7) = %d, want 7", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 1, 3); got != 3 {
		t.Errorf("Clamp(5, 1, 3) = %d, want 3", got)
	}
	if got := Clamp(0, 1, 3); got != 1 {
		t.Errorf("Clamp(0, 1, 3) = %d, want 1", got)
	}
	if got := Clamp(2, 1, 3); got != 2 {
		t.Errorf("Clamp(2, 1, 3) = %d, want 2", got)
	}
}
