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
	"testing"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagare-net/nagare/pkg/congestion"
	"github.com/nagare-net/nagare/pkg/controlplane"
)

var testArrival = time.Unix(200, 0)

// testBus builds a bus around an in-memory manager without a NATS
// connection. Message handling is exercised through dispatch directly.
func testBus(t *testing.T, autoRegister bool) (*Bus, *controlplane.Manager) {
	t.Helper()
	m, err := controlplane.NewManager(congestion.DefaultConfig())
	require.NoError(t, err)
	b := &Bus{
		manager:      m,
		prefix:       DefaultSubjectPrefix,
		autoRegister: autoRegister,
		clock:        func() time.Time { return testArrival },
	}
	return b, m
}

func TestDecodeReportDefaults(t *testing.T) {
	m, err := decodeReport([]byte(`{"delivered_bytes":10000,"interval_us":10000}`))
	require.NoError(t, err)

	// Fields absent from the payload keep their "not reported" values.
	assert.EqualValues(t, -1, m.InflightBytes)
	assert.EqualValues(t, 0, m.RTTUs)
	assert.EqualValues(t, 0, m.TimestampUnixNano)

	s := m.sample(testArrival)
	assert.EqualValues(t, 10000, s.Delivered)
	assert.Equal(t, 10*time.Millisecond, s.Interval)
	assert.Equal(t, time.Duration(0), s.RTT)
	assert.EqualValues(t, -1, s.Inflight)
	assert.Equal(t, testArrival, s.Timestamp)
}

func TestDecodeReportFull(t *testing.T) {
	payload := []byte(`{
		"delivered_bytes": 10000,
		"interval_us": 10000,
		"rtt_us": 20000,
		"inflight_bytes": 30000,
		"app_limited": true,
		"timestamp_unix_nano": 1000000000
	}`)
	m, err := decodeReport(payload)
	require.NoError(t, err)

	s := m.sample(testArrival)
	assert.EqualValues(t, 10000, s.Delivered)
	assert.Equal(t, 10*time.Millisecond, s.Interval)
	assert.Equal(t, 20*time.Millisecond, s.RTT)
	assert.EqualValues(t, 30000, s.Inflight)
	assert.True(t, s.AppLimited)
	assert.Equal(t, time.Unix(1, 0), s.Timestamp)
}

func TestDecodeReportMalformed(t *testing.T) {
	_, err := decodeReport([]byte(`not json`))
	assert.Error(t, err)
}

func TestMarshalAction(t *testing.T) {
	payload, err := marshalAction(controlplane.Action{
		FlowID:     "flow-a",
		PacingRate: 2770000,
		Cwnd:       55400,
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"flow_id":"flow-a","pacing_rate_bps":2770000,"cwnd_bytes":55400}`,
		string(payload))
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "nagare.report.flow-a", ReportSubject("nagare", "flow-a"))
	assert.Equal(t, "nagare.action.flow-a", ActionSubject("nagare", "flow-a"))
	assert.Equal(t, "nagare.register.flow-a", RegisterSubject("nagare", "flow-a"))
	assert.Equal(t, "nagare.deregister.flow-a", DeregisterSubject("nagare", "flow-a"))
}

func TestDispatchLifecycle(t *testing.T) {
	b, m := testBus(t, false)

	b.dispatch(&nats.Msg{Subject: RegisterSubject(b.prefix, "flow-a")})
	assert.Equal(t, []string{"flow-a"}, m.Flows())

	// Registering twice is harmless.
	b.dispatch(&nats.Msg{Subject: RegisterSubject(b.prefix, "flow-a")})
	assert.Equal(t, []string{"flow-a"}, m.Flows())

	b.dispatch(&nats.Msg{Subject: DeregisterSubject(b.prefix, "flow-a")})
	assert.Empty(t, m.Flows())

	// Deregistering an unknown flow is harmless.
	b.dispatch(&nats.Msg{Subject: DeregisterSubject(b.prefix, "flow-a")})
}

func TestDispatchReport(t *testing.T) {
	b, m := testBus(t, false)
	require.NoError(t, m.RegisterFlow("flow-a"))

	b.dispatch(&nats.Msg{
		Subject: ReportSubject(b.prefix, "flow-a"),
		Data:    []byte(`{"delivered_bytes":10000,"interval_us":10000,"rtt_us":20000}`),
	})

	d, err := m.Decision("flow-a")
	require.NoError(t, err)
	assert.EqualValues(t, 2770000, d.PacingRate)
}

func TestDispatchReportAutoRegister(t *testing.T) {
	b, m := testBus(t, true)

	b.dispatch(&nats.Msg{
		Subject: ReportSubject(b.prefix, "flow-a"),
		Data:    []byte(`{"delivered_bytes":10000,"interval_us":10000,"rtt_us":20000}`),
	})

	assert.Equal(t, []string{"flow-a"}, m.Flows())
	d, err := m.Decision("flow-a")
	require.NoError(t, err)
	assert.EqualValues(t, 2770000, d.PacingRate)
}

func TestDispatchReportUnknownFlow(t *testing.T) {
	b, m := testBus(t, false)

	// Without auto registration the report is dropped.
	b.dispatch(&nats.Msg{
		Subject: ReportSubject(b.prefix, "flow-a"),
		Data:    []byte(`{"delivered_bytes":10000,"interval_us":10000,"rtt_us":20000}`),
	})
	assert.Empty(t, m.Flows())
}

func TestDispatchMalformedReport(t *testing.T) {
	b, m := testBus(t, true)

	b.dispatch(&nats.Msg{
		Subject: ReportSubject(b.prefix, "flow-a"),
		Data:    []byte(`not json`),
	})
	// Decoding runs before auto registration, so nothing is registered.
	assert.Empty(t, m.Flows())
}

func TestDispatchUnknownSubject(t *testing.T) {
	b, _ := testBus(t, false)
	b.dispatch(&nats.Msg{Subject: "some.other.subject"})
}

func TestFlowIDWithDots(t *testing.T) {
	b, m := testBus(t, true)

	flowID := "10.0.0.1:443-10.0.0.2:52000"
	b.dispatch(&nats.Msg{
		Subject: ReportSubject(b.prefix, flowID),
		Data:    []byte(`{"delivered_bytes":10000,"interval_us":10000,"rtt_us":20000}`),
	})
	assert.Equal(t, []string{flowID}, m.Flows())
}
