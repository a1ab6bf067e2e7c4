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

package congestion

import "github.com/nagare-net/nagare/pkg/mathext"

// WindowedFilter tracks the best (minimum or maximum) estimate of a stream
// of samples over a trailing window, using Kathleen Nichols' algorithm.
//
// The filter remembers the best, second best, and third best estimate seen
// so far, with the invariant that the n'th best was recorded no earlier than
// the (n-1)'th best. A new overall best replaces all three estimates and
// effectively restarts the window. When the best outlives the window it is
// evicted and the second and third best are promoted. The second best is
// refreshed from the second quarter of the window and the third best from
// the second half, which bounds the error when the true best drifts in the
// unfavorable direction. Memory use is constant regardless of how many
// samples are fed in.
//
// The window is expressed in the same units as the sample time argument of
// Update. The bandwidth filter counts time in round trips; a filter counting
// in nanoseconds works just as well.
type WindowedFilter[V mathext.Number] struct {
	// window is the period after which the best estimate expires.
	window int64

	// zero must be an invalid value for a true sample.
	zero V

	estimates [3]estimate[V]
	cmp       func(V, V) int
}

// estimate is a recorded sample value and the time at which it was recorded.
type estimate[V mathext.Number] struct {
	value V
	time  int64
}

// NewWindowedFilter creates a filter over the given window length.
// The compare function returns a positive number when the first value is
// better, so MaxFilter yields a windowed maximum and MinFilter a windowed
// minimum.
func NewWindowedFilter[V mathext.Number](window int64, zero V, compare func(V, V) int) *WindowedFilter[V] {
	return &WindowedFilter[V]{
		window: window,
		zero:   zero,
		estimates: [3]estimate[V]{
			{zero, 0},
			{zero, 0},
			{zero, 0},
		},
		cmp: compare,
	}
}

// SetWindow changes the window length. Recorded estimates are kept.
func (f *WindowedFilter[V]) SetWindow(window int64) {
	f.window = window
}

// Update feeds a new sample recorded at the given time, expiring and
// promoting estimates as needed.
func (f *WindowedFilter[V]) Update(value V, now int64) {
	// Reset all estimates if they have not been initialized, if the new
	// sample is a new overall best, or if the newest recorded estimate is
	// too old.
	if f.cmp(f.estimates[0].value, f.zero) == 0 ||
		f.cmp(value, f.estimates[0].value) >= 0 ||
		now-f.estimates[2].time > f.window {
		f.Reset(value, now)
		return
	}

	if f.cmp(value, f.estimates[1].value) >= 0 {
		f.estimates[1] = estimate[V]{value, now}
		f.estimates[2] = f.estimates[1]
	} else if f.cmp(value, f.estimates[2].value) >= 0 {
		f.estimates[2] = estimate[V]{value, now}
	}

	if now-f.estimates[0].time > f.window {
		// The best estimate expired. Promote the runners-up and record the
		// new sample as the third best. The promoted best may itself be
		// outside the window, in which case promote once more; it can't
		// happen a third time because that case was handled above.
		f.estimates[0] = f.estimates[1]
		f.estimates[1] = f.estimates[2]
		f.estimates[2] = estimate[V]{value, now}
		if now-f.estimates[0].time > f.window {
			f.estimates[0] = f.estimates[1]
			f.estimates[1] = f.estimates[2]
		}
		return
	}

	if f.cmp(f.estimates[1].value, f.estimates[0].value) == 0 && now-f.estimates[1].time > f.window/4 {
		// A quarter of the window passed without a better sample. Take the
		// second best from the second quarter of the window.
		f.estimates[1] = estimate[V]{value, now}
		f.estimates[2] = f.estimates[1]
		return
	}

	if f.cmp(f.estimates[2].value, f.estimates[1].value) == 0 && now-f.estimates[2].time > f.window/2 {
		// Half of the window passed without a better sample. Take the third
		// best from the second half of the window.
		f.estimates[2] = estimate[V]{value, now}
	}
}

// Reset replaces all three estimates with the given sample.
func (f *WindowedFilter[V]) Reset(value V, now int64) {
	f.estimates[0] = estimate[V]{value, now}
	f.estimates[1] = f.estimates[0]
	f.estimates[2] = f.estimates[0]
}

// Best returns the best estimate within the window.
func (f *WindowedFilter[V]) Best() V {
	return f.estimates[0].value
}

// SecondBest returns the second best estimate within the window.
func (f *WindowedFilter[V]) SecondBest() V {
	return f.estimates[1].value
}

// ThirdBest returns the third best estimate within the window.
func (f *WindowedFilter[V]) ThirdBest() V {
	return f.estimates[2].value
}

// MinFilter orders two values so that the smaller one wins.
// It returns 1 if lhs is smaller, -1 if lhs is bigger, and 0 on a tie.
func MinFilter[V mathext.Number](lhs, rhs V) int {
	if lhs < rhs {
		return 1
	} else if lhs > rhs {
		return -1
	}
	return 0
}

// MaxFilter orders two values so that the bigger one wins.
// It returns 1 if lhs is bigger, -1 if lhs is smaller, and 0 on a tie.
func MaxFilter[V mathext.Number](lhs, rhs V) int {
	if lhs > rhs {
		return 1
	} else if lhs < rhs {
		return -1
	}
	return 0
}
