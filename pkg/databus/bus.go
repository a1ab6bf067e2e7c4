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

// Package databus connects the control plane to the datapath over NATS.
// Reports flow in on «prefix».report.«flowID», actions flow out on
// «prefix».action.«flowID», and «prefix».register / «prefix».deregister
// manage the flow lifecycle.
package databus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/nagare-net/nagare/pkg/controlplane"
	"github.com/nagare-net/nagare/pkg/log"
	"github.com/nagare-net/nagare/pkg/metrics"
	"github.com/nagare-net/nagare/pkg/stderror"
)

const (
	// DefaultSubjectPrefix is the subject prefix used when the configuration
	// leaves it empty.
	DefaultSubjectPrefix = "nagare"

	defaultChannelSize = 1024
)

// ReportSubject returns the subject a datapath publishes reports to.
func ReportSubject(prefix, flowID string) string {
	return prefix + ".report." + flowID
}

// ActionSubject returns the subject a datapath subscribes to for actions.
func ActionSubject(prefix, flowID string) string {
	return prefix + ".action." + flowID
}

// RegisterSubject returns the subject that announces a new flow.
func RegisterSubject(prefix, flowID string) string {
	return prefix + ".register." + flowID
}

// DeregisterSubject returns the subject that retires a flow.
func DeregisterSubject(prefix, flowID string) string {
	return prefix + ".deregister." + flowID
}

// Config configures a Bus.
type Config struct {
	// Conn is an established NATS connection. Required.
	Conn *nats.Conn

	// Manager receives the decoded reports. Required.
	Manager *controlplane.Manager

	// SubjectPrefix namespaces all bus subjects. Empty means
	// DefaultSubjectPrefix.
	SubjectPrefix string

	// AutoRegister registers a flow on its first report instead of requiring
	// an explicit register message.
	AutoRegister bool
}

// Bus subscribes to the datapath subjects and drives the flow manager. It
// also implements controlplane.ActionSink by publishing actions back to the
// datapath.
type Bus struct {
	conn         *nats.Conn
	manager      *controlplane.Manager
	prefix       string
	autoRegister bool
	msgCh        chan *nats.Msg
	clock        func() time.Time
}

var _ controlplane.ActionSink = (*Bus)(nil)

// NewBus creates a bus adapter. Call Run to start consuming messages.
func NewBus(cfg Config) (*Bus, error) {
	if cfg.Conn == nil || cfg.Manager == nil {
		return nil, stderror.ErrInvalidArgument
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Bus{
		conn:         cfg.Conn,
		manager:      cfg.Manager,
		prefix:       prefix,
		autoRegister: cfg.AutoRegister,
		msgCh:        make(chan *nats.Msg, defaultChannelSize),
		clock:        time.Now,
	}, nil
}

// Run consumes bus messages until ctx is done, then unsubscribes.
// A malformed payload or a per-flow error never stops the loop.
func (b *Bus) Run(ctx context.Context) error {
	subjects := []string{
		b.prefix + ".report.>",
		b.prefix + ".register.>",
		b.prefix + ".deregister.>",
	}
	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, err := b.conn.ChanSubscribe(subject, b.msgCh)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	log.Infof("data bus is running with subject prefix %q", b.prefix)

	defer func() {
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-b.msgCh:
			b.dispatch(msg)
		}
	}
}

// SendAction publishes one control action to the flow's action subject.
func (b *Bus) SendAction(a controlplane.Action) error {
	payload, err := marshalAction(a)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(ActionSubject(b.prefix, a.FlowID), payload); err != nil {
		return fmt.Errorf("failed to publish action: %w", err)
	}
	return nil
}

func (b *Bus) dispatch(msg *nats.Msg) {
	if flowID, ok := subjectSuffix(msg.Subject, b.prefix+".report."); ok {
		metrics.BusMessages.WithLabelValues("report").Inc()
		b.handleReport(flowID, msg.Data)
		return
	}
	if flowID, ok := subjectSuffix(msg.Subject, b.prefix+".register."); ok {
		metrics.BusMessages.WithLabelValues("register").Inc()
		if err := b.manager.RegisterFlow(flowID); err != nil && !errors.Is(err, stderror.ErrAlreadyExist) {
			log.Warnf("failed to register flow %s: %v", flowID, err)
		}
		return
	}
	if flowID, ok := subjectSuffix(msg.Subject, b.prefix+".deregister."); ok {
		metrics.BusMessages.WithLabelValues("deregister").Inc()
		if err := b.manager.DeregisterFlow(flowID); err != nil {
			log.Debugf("failed to deregister flow %s: %v", flowID, err)
		}
		return
	}
	metrics.BusMessages.WithLabelValues("unknown").Inc()
	log.Debugf("ignored message on unexpected subject %s", msg.Subject)
}

func (b *Bus) handleReport(flowID string, data []byte) {
	m, err := decodeReport(data)
	if err != nil {
		metrics.BusDecodeErrors.Inc()
		log.Debugf("dropped report for flow %s: %v", flowID, err)
		return
	}
	if b.autoRegister {
		if err := b.manager.RegisterFlow(flowID); err != nil && !errors.Is(err, stderror.ErrAlreadyExist) {
			log.Warnf("failed to auto-register flow %s: %v", flowID, err)
			return
		}
	}
	if err := b.manager.OnReport(flowID, m.sample(b.clock())); err != nil {
		log.Debugf("dropped report for flow %s: %v", flowID, err)
	}
}

// subjectSuffix returns the part of subject after prefix, which is the flow
// ID on all bus subjects. Flow IDs may contain dots.
func subjectSuffix(subject, prefix string) (string, bool) {
	if !strings.HasPrefix(subject, prefix) {
		return "", false
	}
	suffix := strings.TrimPrefix(subject, prefix)
	if suffix == "" {
		return "", false
	}
	return suffix, true
}
