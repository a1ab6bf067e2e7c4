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

import "time"

// MinRTTFilter estimates the propagation RTT of a path as the minimum RTT
// observed over a trailing time window.
//
// The filter keeps no sample history. It records the minimum and the time it
// was observed; when the minimum outlives the window, the next RTT sample is
// installed as a provisional minimum and later samples confirm or improve
// it. The estimate therefore never increases except across a window expiry.
type MinRTTFilter struct {
	window  time.Duration
	min     time.Duration
	minTime time.Time
}

// NewMinRTTFilter creates a minimum RTT filter over the given time window.
func NewMinRTTFilter(window time.Duration) *MinRTTFilter {
	return &MinRTTFilter{window: window}
}

// Update feeds one RTT observation taken at the given time and returns the
// refreshed estimate. Non-positive observations are ignored.
func (f *MinRTTFilter) Update(rtt time.Duration, now time.Time) time.Duration {
	if rtt <= 0 {
		return f.min
	}
	if f.min == 0 || rtt <= f.min || f.Expired(now) {
		f.min = rtt
		f.minTime = now
	}
	return f.min
}

// Get returns the current minimum RTT estimate. It returns zero until the
// first RTT sample arrives; callers must not make control decisions before
// that.
func (f *MinRTTFilter) Get() time.Duration {
	return f.min
}

// Timestamp returns the time at which the current minimum was recorded.
func (f *MinRTTFilter) Timestamp() time.Time {
	return f.minTime
}

// Expired reports whether the current minimum has outlived the window.
// It is always false before the first sample.
func (f *MinRTTFilter) Expired(now time.Time) bool {
	return f.min > 0 && now.After(f.minTime.Add(f.window))
}

// Touch re-records the current minimum at the given time. The control loop
// calls this when leaving ProbeRTT so the next probe is scheduled one full
// window away.
func (f *MinRTTFilter) Touch(now time.Time) {
	if f.min > 0 {
		f.minTime = now
	}
}
