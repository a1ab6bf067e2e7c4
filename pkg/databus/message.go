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

package databus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nagare-net/nagare/pkg/congestion"
	"github.com/nagare-net/nagare/pkg/controlplane"
)

// reportMessage is the wire form of one measurement report.
type reportMessage struct {
	DeliveredBytes int64 `json:"delivered_bytes"`

	// IntervalUs is the measurement interval in microseconds.
	IntervalUs int64 `json:"interval_us"`

	// RTTUs is the round trip time in microseconds. 0 means no RTT was
	// observed in this interval.
	RTTUs int64 `json:"rtt_us"`

	// InflightBytes is the number of bytes in flight. -1 means the datapath
	// did not report it.
	InflightBytes int64 `json:"inflight_bytes"`

	AppLimited bool `json:"app_limited"`

	// TimestampUnixNano is the datapath clock reading when the report was
	// taken. 0 means the report is stamped on arrival.
	TimestampUnixNano int64 `json:"timestamp_unix_nano"`
}

// decodeReport parses a report payload. Fields absent from the payload keep
// their "not reported" values.
func decodeReport(data []byte) (reportMessage, error) {
	m := reportMessage{InflightBytes: -1}
	if err := json.Unmarshal(data, &m); err != nil {
		return reportMessage{}, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return m, nil
}

// sample converts the wire report into a congestion control sample, using
// arrival as the timestamp when the datapath did not stamp the report.
func (m reportMessage) sample(arrival time.Time) congestion.Sample {
	ts := arrival
	if m.TimestampUnixNano != 0 {
		ts = time.Unix(0, m.TimestampUnixNano)
	}
	return congestion.Sample{
		Delivered:  m.DeliveredBytes,
		Interval:   time.Duration(m.IntervalUs) * time.Microsecond,
		RTT:        time.Duration(m.RTTUs) * time.Microsecond,
		Inflight:   m.InflightBytes,
		Timestamp:  ts,
		AppLimited: m.AppLimited,
	}
}

// actionMessage is the wire form of one control action.
type actionMessage struct {
	FlowID        string `json:"flow_id"`
	PacingRateBps int64  `json:"pacing_rate_bps"`
	CwndBytes     int64  `json:"cwnd_bytes"`
}

func marshalAction(a controlplane.Action) ([]byte, error) {
	b, err := json.Marshal(actionMessage{
		FlowID:        a.FlowID,
		PacingRateBps: a.PacingRate,
		CwndBytes:     a.Cwnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action: %w", err)
	}
	return b, nil
}
