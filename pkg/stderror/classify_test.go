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

package stderror

import (
	"fmt"
	"io"
	"testing"
)

func TestIsClosed(t *testing.T) {
	if !IsClosed(io.ErrClosedPipe) {
		t.Errorf("IsClosed(io.ErrClosedPipe) = false, want true")
	}
	if !IsClosed(fmt.Errorf("read tcp: use of closed network connection")) {
		t.Errorf("IsClosed() = false, want true")
	}
	if IsClosed(fmt.Errorf("some other error")) {
		t.Errorf("IsClosed() = true, want false")
	}
}

func TestShouldRetry(t *testing.T) {
	if !ShouldRetry(ErrNotReady) {
		t.Errorf("ShouldRetry(ErrNotReady) = false, want true")
	}
	if !ShouldRetry(fmt.Errorf("decision unavailable: %w", ErrNotReady)) {
		t.Errorf("ShouldRetry(wrapped ErrNotReady) = false, want true")
	}
	if ShouldRetry(ErrUnknownFlow) {
		t.Errorf("ShouldRetry(ErrUnknownFlow) = true, want false")
	}
}
