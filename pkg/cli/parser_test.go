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

package cli

import "testing"

func TestDoExactMatch(t *testing.T) {
	testcases := []struct {
		input []string
		want  []string
		match bool
	}{
		{[]string{"nagare", "run"}, []string{"", "run"}, true},
		{[]string{"nagare", "run", "--config", "f"}, []string{"", "run"}, true},
		{[]string{"nagare", "version"}, []string{"", "run"}, false},
		{[]string{"nagare"}, []string{"", "run"}, false},
	}
	for _, tc := range testcases {
		if got := doExactMatch(tc.input, tc.want); got != tc.match {
			t.Errorf("doExactMatch(%v, %v) = %v, want %v", tc.input, tc.want, got, tc.match)
		}
	}
}

func TestUnexpectedArgsError(t *testing.T) {
	if err := unexpectedArgsError([]string{"nagare", "version"}, 2); err != nil {
		t.Errorf("unexpectedArgsError() = %v, want nil", err)
	}
	if err := unexpectedArgsError([]string{"nagare", "version", "extra"}, 2); err == nil {
		t.Errorf("unexpectedArgsError() returned no error with extra arguments")
	}
}

func TestValidateRunArgs(t *testing.T) {
	if err := validateRunArgs([]string{"nagare", "run"}); err != nil {
		t.Errorf("validateRunArgs() = %v, want nil", err)
	}
	if err := validateRunArgs([]string{"nagare", "run", "--config", "f.json"}); err != nil {
		t.Errorf("validateRunArgs() = %v, want nil", err)
	}
	if err := validateRunArgs([]string{"nagare", "run", "--config"}); err == nil {
		t.Errorf("validateRunArgs() returned no error with a missing value")
	}
	if err := validateRunArgs([]string{"nagare", "run", "extra"}); err == nil {
		t.Errorf("validateRunArgs() returned no error with unexpected arguments")
	}
}
