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

// BandwidthFilter estimates the bottleneck bandwidth of a path as the
// maximum delivery rate observed over a trailing window of round trips.
//
// App-limited samples may sustain the current estimate but never raise it:
// a sender that ran out of data proves nothing about extra capacity, while
// an inflated app-limited burst (ack compression after an idle period) would
// poison the window for its entire length.
type BandwidthFilter struct {
	filter *WindowedFilter[int64]
}

// NewBandwidthFilter creates a bandwidth filter whose window is the given
// number of round trips.
func NewBandwidthFilter(windowRounds int64) *BandwidthFilter {
	return &BandwidthFilter{
		filter: NewWindowedFilter(windowRounds, 0, MaxFilter[int64]),
	}
}

// Update feeds one delivery rate sample, in bytes per second, taken during
// the given round. It returns the refreshed estimate. Negative rates are
// ignored.
func (f *BandwidthFilter) Update(rate int64, round int64, appLimited bool) int64 {
	if rate < 0 {
		return f.Estimate()
	}
	if appLimited && rate > f.filter.Best() {
		// The sample would raise the estimate but the sender was not trying
		// at full speed. Drop it.
		return f.Estimate()
	}
	f.filter.Update(rate, round)
	return f.Estimate()
}

// Estimate returns the windowed maximum delivery rate in bytes per second,
// or zero before any sample has been accepted.
func (f *BandwidthFilter) Estimate() int64 {
	return f.filter.Best()
}
