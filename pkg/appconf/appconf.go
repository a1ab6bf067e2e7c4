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

// Package appconf loads the daemon configuration file.
package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/nagare-net/nagare/pkg/congestion"
	"github.com/nagare-net/nagare/pkg/databus"
)

// ConfigFileEnvVar overrides the configuration file location when set.
const ConfigFileEnvVar = "NAGARE_CONFIG_FILE"

// AppConfig is the daemon configuration.
type AppConfig struct {
	// NatsURL is the address of the NATS server carrying reports and actions.
	// Empty means the default local server.
	NatsURL string `json:"nats_url"`

	// SubjectPrefix namespaces all bus subjects. Empty means "nagare".
	SubjectPrefix string `json:"subject_prefix"`

	// AutoRegisterFlows registers a flow on its first report instead of
	// requiring an explicit register message.
	AutoRegisterFlows bool `json:"auto_register_flows"`

	// MetricsAddr is the listen address of the Prometheus /metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string `json:"metrics_addr"`

	// LoggingLevel sets the log level. Empty means INFO.
	LoggingLevel string `json:"logging_level"`

	// Congestion overrides individual congestion control tunables. Fields at
	// their zero value keep the defaults.
	Congestion CongestionOverrides `json:"congestion"`
}

// CongestionOverrides mirrors the congestion control tunables in file form.
// Durations are in milliseconds.
type CongestionOverrides struct {
	BandwidthWindowRounds int64   `json:"bandwidth_window_rounds"`
	MinRTTWindowMs        int64   `json:"min_rtt_window_ms"`
	ProbeRTTDurationMs    int64   `json:"probe_rtt_duration_ms"`
	StartupGain           float64 `json:"startup_gain"`
	StartupGrowthTarget   float64 `json:"startup_growth_target"`
	StartupGrowthRounds   int64   `json:"startup_growth_rounds"`
	ProbeBWCwndGain       float64 `json:"probe_bw_cwnd_gain"`
	MinCwndBytes          int64   `json:"min_cwnd_bytes"`
	InitialCwndBytes      int64   `json:"initial_cwnd_bytes"`
	MaxCwndBytes          int64   `json:"max_cwnd_bytes"`
	EmitThreshold         float64 `json:"emit_threshold"`
	EmitIntervalMs        int64   `json:"emit_interval_ms"`
}

// Default returns the configuration used when no file is given.
func Default() AppConfig {
	return AppConfig{
		NatsURL:       nats.DefaultURL,
		SubjectPrefix: databus.DefaultSubjectPrefix,
	}
}

// Load reads the configuration from path. If path is empty, the
// NAGARE_CONFIG_FILE environment variable is consulted; if that is also
// empty, the default configuration is returned.
func Load(path string) (AppConfig, error) {
	if path == "" {
		path = os.Getenv(ConfigFileEnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(b, &c); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.NatsURL == "" {
		c.NatsURL = nats.DefaultURL
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = databus.DefaultSubjectPrefix
	}
	return c, nil
}

// CongestionConfig merges the file overrides into the default congestion
// control configuration and validates the result.
func (c AppConfig) CongestionConfig() (congestion.Config, error) {
	cfg := congestion.DefaultConfig()
	o := c.Congestion
	if o.BandwidthWindowRounds != 0 {
		cfg.BandwidthWindowRounds = o.BandwidthWindowRounds
	}
	if o.MinRTTWindowMs != 0 {
		cfg.MinRTTWindow = time.Duration(o.MinRTTWindowMs) * time.Millisecond
	}
	if o.ProbeRTTDurationMs != 0 {
		cfg.ProbeRTTDuration = time.Duration(o.ProbeRTTDurationMs) * time.Millisecond
	}
	if o.StartupGain != 0 {
		cfg.StartupGain = o.StartupGain
	}
	if o.StartupGrowthTarget != 0 {
		cfg.StartupGrowthTarget = o.StartupGrowthTarget
	}
	if o.StartupGrowthRounds != 0 {
		cfg.StartupGrowthRounds = o.StartupGrowthRounds
	}
	if o.ProbeBWCwndGain != 0 {
		cfg.ProbeBWCwndGain = o.ProbeBWCwndGain
	}
	if o.MinCwndBytes != 0 {
		cfg.MinCwnd = o.MinCwndBytes
	}
	if o.InitialCwndBytes != 0 {
		cfg.InitialCwnd = o.InitialCwndBytes
	}
	if o.MaxCwndBytes != 0 {
		cfg.MaxCwnd = o.MaxCwndBytes
	}
	if o.EmitThreshold != 0 {
		cfg.EmitThreshold = o.EmitThreshold
	}
	if o.EmitIntervalMs != 0 {
		cfg.EmitInterval = time.Duration(o.EmitIntervalMs) * time.Millisecond
	}
	if err := cfg.Validate(); err != nil {
		return congestion.Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
