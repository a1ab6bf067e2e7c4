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

// Package metrics holds the Prometheus collectors shared by the control
// plane and the datapath bus adapter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReportsProcessed counts measurement reports accepted by the control plane.
	ReportsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "controlplane",
			Name:      "reports_processed_total",
			Help:      "Total number of measurement reports accepted.",
		},
	)

	// ReportsRejected counts reports the control plane refused, by reason.
	ReportsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "controlplane",
			Name:      "reports_rejected_total",
			Help:      "Total number of measurement reports rejected, by reason.",
		},
		[]string{"reason"},
	)

	// ActionsEmitted counts control actions pushed to the datapath.
	ActionsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "controlplane",
			Name:      "actions_emitted_total",
			Help:      "Total number of control actions emitted to the datapath.",
		},
	)

	// ActionSendErrors counts actions that failed to reach the datapath.
	ActionSendErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "controlplane",
			Name:      "action_send_errors_total",
			Help:      "Total number of control actions that failed to send.",
		},
	)

	// ModeTransitions counts congestion mode changes across all flows.
	ModeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "controlplane",
			Name:      "mode_transitions_total",
			Help:      "Total number of congestion mode transitions, by edge.",
		},
		[]string{"from", "to"},
	)

	// ActiveFlows tracks the number of currently registered flows.
	ActiveFlows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nagare",
			Subsystem: "controlplane",
			Name:      "active_flows",
			Help:      "Number of currently registered flows.",
		},
	)

	// BusMessages counts messages consumed from the datapath bus, by kind.
	BusMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "databus",
			Name:      "messages_total",
			Help:      "Total number of bus messages consumed, by kind.",
		},
		[]string{"kind"},
	)

	// BusDecodeErrors counts bus payloads that failed to decode.
	BusDecodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nagare",
			Subsystem: "databus",
			Name:      "decode_errors_total",
			Help:      "Total number of bus payloads that failed to decode.",
		},
	)
)

func init() {
	// Safe register; ignore duplicate registration in case of multiple imports.
	_ = prometheus.Register(ReportsProcessed)
	_ = prometheus.Register(ReportsRejected)
	_ = prometheus.Register(ActionsEmitted)
	_ = prometheus.Register(ActionSendErrors)
	_ = prometheus.Register(ModeTransitions)
	_ = prometheus.Register(ActiveFlows)
	_ = prometheus.Register(BusMessages)
	_ = prometheus.Register(BusDecodeErrors)
}

// Handler returns the HTTP handler that exposes all registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}
