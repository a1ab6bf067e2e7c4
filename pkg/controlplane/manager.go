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

// Package controlplane tracks the set of active flows and routes measurement
// reports to the per-flow congestion controllers.
package controlplane

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nagare-net/nagare/pkg/congestion"
	"github.com/nagare-net/nagare/pkg/log"
	"github.com/nagare-net/nagare/pkg/metrics"
	"github.com/nagare-net/nagare/pkg/stderror"
)

// Action is one control decision addressed to a single flow.
type Action struct {
	// FlowID identifies the flow this action applies to.
	FlowID string

	// PacingRate is the sending rate in bytes per second.
	PacingRate int64

	// Cwnd is the congestion window in bytes.
	Cwnd int64
}

// String implements the Stringer interface.
func (a Action) String() string {
	return fmt.Sprintf("Action{flow=%s, pacingRate=%d, cwnd=%d}", a.FlowID, a.PacingRate, a.Cwnd)
}

// ActionSink receives control actions on their way to the datapath.
type ActionSink interface {
	SendAction(Action) error
}

// flow pairs a congestion controller with the mutex that serializes its
// samples. Distinct flows update in parallel.
type flow struct {
	mu         sync.Mutex
	controller *congestion.FlowController
}

// Manager owns the registered flows and their congestion controllers.
type Manager struct {
	cfg   congestion.Config
	sink  ActionSink
	mu    sync.RWMutex
	flows map[string]*flow
}

// NewManager creates a flow manager. All flows share the given configuration.
func NewManager(cfg congestion.Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &Manager{
		cfg:   cfg,
		flows: make(map[string]*flow),
	}, nil
}

// SetSink installs the destination for emitted actions. A nil sink drops
// actions silently.
func (m *Manager) SetSink(sink ActionSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// RegisterFlow starts congestion control for a new flow.
func (m *Manager) RegisterFlow(flowID string) error {
	if flowID == "" {
		return stderror.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.flows[flowID]; found {
		return stderror.ErrAlreadyExist
	}
	controller, err := congestion.NewFlowController(flowID, m.cfg)
	if err != nil {
		return fmt.Errorf("failed to create flow controller: %w", err)
	}
	m.flows[flowID] = &flow{controller: controller}
	metrics.ActiveFlows.Set(float64(len(m.flows)))
	log.Debugf("registered flow %s", flowID)
	return nil
}

// DeregisterFlow stops congestion control for a flow and discards its state.
func (m *Manager) DeregisterFlow(flowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.flows[flowID]; !found {
		return stderror.ErrUnknownFlow
	}
	delete(m.flows, flowID)
	metrics.ActiveFlows.Set(float64(len(m.flows)))
	log.Debugf("deregistered flow %s", flowID)
	return nil
}

// OnReport feeds one measurement report into the flow's controller and, if
// the decision changed materially, forwards the resulting action to the sink.
func (m *Manager) OnReport(flowID string, s congestion.Sample) error {
	m.mu.RLock()
	f, found := m.flows[flowID]
	sink := m.sink
	m.mu.RUnlock()
	if !found {
		metrics.ReportsRejected.WithLabelValues("unknown_flow").Inc()
		return stderror.ErrUnknownFlow
	}

	f.mu.Lock()
	before := f.controller.Mode()
	decision, emit, err := f.controller.OnReport(s)
	after := f.controller.Mode()
	f.mu.Unlock()
	if err != nil {
		metrics.ReportsRejected.WithLabelValues("invalid").Inc()
		return err
	}
	metrics.ReportsProcessed.Inc()
	if before != after {
		metrics.ModeTransitions.WithLabelValues(before.String(), after.String()).Inc()
	}
	if !emit {
		return nil
	}

	metrics.ActionsEmitted.Inc()
	if sink == nil {
		return nil
	}
	action := Action{
		FlowID:     flowID,
		PacingRate: decision.PacingRate,
		Cwnd:       decision.Cwnd,
	}
	if err := sink.SendAction(action); err != nil {
		// A lost action is recovered by the next emission. Never fatal.
		metrics.ActionSendErrors.Inc()
		log.Warnf("failed to send %v: %v", action, err)
	}
	return nil
}

// Decision returns the current control decision for a flow without
// consuming a report.
func (m *Manager) Decision(flowID string) (congestion.Decision, error) {
	m.mu.RLock()
	f, found := m.flows[flowID]
	m.mu.RUnlock()
	if !found {
		return congestion.Decision{}, stderror.ErrUnknownFlow
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controller.Decide()
}

// Mode returns the congestion mode of a flow.
func (m *Manager) Mode(flowID string) (congestion.Mode, error) {
	m.mu.RLock()
	f, found := m.flows[flowID]
	m.mu.RUnlock()
	if !found {
		return 0, stderror.ErrUnknownFlow
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controller.Mode(), nil
}

// Flows lists the registered flow IDs in lexical order.
func (m *Manager) Flows() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.flows))
	for id := range m.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
