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
	"errors"
	"testing"
	"time"

	"github.com/nagare-net/nagare/pkg/stderror"
)

func TestSampleValidate(t *testing.T) {
	now := time.Unix(100, 0)
	testcases := []struct {
		name   string
		sample Sample
		valid  bool
	}{
		{
			"valid",
			Sample{Delivered: 10000, Interval: 10 * time.Millisecond, RTT: 20 * time.Millisecond, Inflight: -1, Timestamp: now},
			true,
		},
		{
			"valid without RTT",
			Sample{Delivered: 10000, Interval: 10 * time.Millisecond, Inflight: -1, Timestamp: now},
			true,
		},
		{
			"valid empty interval",
			Sample{Delivered: 0, Interval: 0, Inflight: -1, Timestamp: now},
			true,
		},
		{
			"negative delivered bytes",
			Sample{Delivered: -1, Interval: 10 * time.Millisecond, Inflight: -1, Timestamp: now},
			false,
		},
		{
			"negative interval",
			Sample{Delivered: 10000, Interval: -time.Millisecond, Inflight: -1, Timestamp: now},
			false,
		},
		{
			"zero interval with delivered bytes",
			Sample{Delivered: 10000, Interval: 0, Inflight: -1, Timestamp: now},
			false,
		},
		{
			"negative RTT",
			Sample{Delivered: 10000, Interval: 10 * time.Millisecond, RTT: -time.Millisecond, Inflight: -1, Timestamp: now},
			false,
		},
		{
			"missing timestamp",
			Sample{Delivered: 10000, Interval: 10 * time.Millisecond, Inflight: -1},
			false,
		},
	}
	for _, tc := range testcases {
		err := tc.sample.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tc.name, err)
		}
		if !tc.valid {
			if err == nil {
				t.Errorf("%s: Validate() = nil, want error", tc.name)
			} else if !errors.Is(err, stderror.ErrInvalidSample) {
				t.Errorf("%s: Validate() = %v, want ErrInvalidSample", tc.name, err)
			}
		}
	}
}

func TestSampleDeliveryRate(t *testing.T) {
	s := Sample{Delivered: 10000, Interval: 10 * time.Millisecond}
	if got := s.DeliveryRate(); got != 1000000 {
		t.Errorf("DeliveryRate() = %d, want 1000000", got)
	}
	s = Sample{Delivered: 0, Interval: 0}
	if got := s.DeliveryRate(); got != 0 {
		t.Errorf("DeliveryRate() = %d, want 0", got)
	}
}
