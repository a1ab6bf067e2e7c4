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

import (
	"fmt"
	"time"

	"github.com/nagare-net/nagare/pkg/stderror"
)

const timeFormat = "15:04:05.999"

// Sample is one normalized delivery measurement reported by the datapath
// for a single flow. It is consumed by the call that processes it and is
// not retained afterwards.
type Sample struct {
	// Delivered is the number of bytes delivered to the receiver during
	// Interval.
	Delivered int64

	// Interval is the length of the measurement interval.
	Interval time.Duration

	// RTT is the round trip time observed during the interval.
	// Zero if no RTT observation is available.
	RTT time.Duration

	// Inflight is the number of bytes in flight when the report was taken.
	// Negative if the datapath does not report it.
	Inflight int64

	// Timestamp is the time at which the observation was taken. The control
	// loop uses it as its only clock, so replaying the same samples yields
	// the same decisions.
	Timestamp time.Time

	// AppLimited is set when the sender did not have enough data to saturate
	// the link, so Delivered understates the path capacity.
	AppLimited bool
}

func (s Sample) String() string {
	return fmt.Sprintf("Sample{delivered=%d, interval=%v, rtt=%v, inflight=%d, appLimited=%v, timestamp=%s}",
		s.Delivered, s.Interval, s.RTT, s.Inflight, s.AppLimited, s.Timestamp.Format(timeFormat))
}

// Validate rejects malformed or out-of-range samples. A sample that fails
// validation must not mutate any flow state.
func (s Sample) Validate() error {
	if s.Delivered < 0 {
		return fmt.Errorf("delivered bytes %d is negative: %w", s.Delivered, stderror.ErrInvalidSample)
	}
	if s.Interval < 0 {
		return fmt.Errorf("interval %v is negative: %w", s.Interval, stderror.ErrInvalidSample)
	}
	if s.Interval == 0 && s.Delivered > 0 {
		return fmt.Errorf("%d bytes delivered in zero interval: %w", s.Delivered, stderror.ErrInvalidSample)
	}
	if s.RTT < 0 {
		return fmt.Errorf("RTT %v is negative: %w", s.RTT, stderror.ErrInvalidSample)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is not set: %w", stderror.ErrInvalidSample)
	}
	return nil
}

// DeliveryRate returns the instantaneous delivery rate of the sample in
// bytes per second, or zero when the interval is empty.
func (s Sample) DeliveryRate() int64 {
	if s.Interval <= 0 {
		return 0
	}
	return bandwidthFromBytesAndInterval(s.Delivered, s.Interval)
}

// bandwidthFromBytesAndInterval computes a rate in bytes per second.
func bandwidthFromBytesAndInterval(bytes int64, interval time.Duration) int64 {
	if interval <= 0 {
		return 0
	}
	return bytes * int64(time.Second) / interval.Nanoseconds()
}
