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

// Package stderror defines the error values shared by all nagare packages.
package stderror

import (
	"fmt"
)

var (
	ErrAlreadyExist    = fmt.Errorf("ALREADY EXIST")
	ErrEmpty           = fmt.Errorf("EMPTY")
	ErrInternal        = fmt.Errorf("INTERNAL")
	ErrInvalidArgument = fmt.Errorf("INVALID ARGUMENT")

	// ErrInvalidSample marks a malformed or out-of-range measurement sample.
	// The sample is dropped. Flow state is not mutated.
	ErrInvalidSample = fmt.Errorf("INVALID SAMPLE")

	// ErrNotReady indicates a decision was requested before the minimum RTT
	// filter received any sample. The caller should wait for more samples.
	ErrNotReady = fmt.Errorf("NOT READY")

	ErrNotRunning = fmt.Errorf("NOT RUNNING")
	ErrOutOfRange = fmt.Errorf("OUT OF RANGE")

	// ErrUnknownFlow marks a sample or action referencing a flow that is not
	// registered with the control plane.
	ErrUnknownFlow = fmt.Errorf("UNKNOWN FLOW")

	ErrUnknownCommand = fmt.Errorf("UNKNOWN COMMAND")
	ErrUnsupported    = fmt.Errorf("UNSUPPORTED")
)
