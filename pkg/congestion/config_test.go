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

	"github.com/nagare-net/nagare/pkg/stderror"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero bandwidth window", func(c *Config) { c.BandwidthWindowRounds = 0 }},
		{"zero min RTT window", func(c *Config) { c.MinRTTWindow = 0 }},
		{"zero ProbeRTT duration", func(c *Config) { c.ProbeRTTDuration = 0 }},
		{"startup gain too small", func(c *Config) { c.StartupGain = 1.0 }},
		{"growth target too small", func(c *Config) { c.StartupGrowthTarget = 1.0 }},
		{"zero growth rounds", func(c *Config) { c.StartupGrowthRounds = 0 }},
		{"empty gain cycle", func(c *Config) { c.ProbeBWGains = nil }},
		{"non-positive cycle gain", func(c *Config) { c.ProbeBWGains = []float64{1.25, 0} }},
		{"zero cwnd gain", func(c *Config) { c.ProbeBWCwndGain = 0 }},
		{"zero min cwnd", func(c *Config) { c.MinCwnd = 0 }},
		{"initial cwnd below floor", func(c *Config) { c.InitialCwnd = c.MinCwnd - 1 }},
		{"max cwnd below initial", func(c *Config) { c.MaxCwnd = c.InitialCwnd - 1 }},
		{"negative emit threshold", func(c *Config) { c.EmitThreshold = -0.1 }},
	}
	for _, m := range mutations {
		cfg := DefaultConfig()
		m.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: Validate() = nil, want error", m.name)
		} else if !errors.Is(err, stderror.ErrInvalidArgument) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidArgument", m.name, err)
		}
	}
}

func TestGainsTotality(t *testing.T) {
	cfg := DefaultConfig()
	modes := []Mode{ModeStartup, ModeDrain, ModeProbeBW, ModeProbeRTT}
	for _, mode := range modes {
		for cycle := 0; cycle < len(cfg.ProbeBWGains); cycle++ {
			pacing, cwnd := cfg.Gains(mode, cycle)
			if pacing <= 0 || cwnd <= 0 {
				t.Errorf("Gains(%v, %d) = (%f, %f), want positive gains", mode, cycle, pacing, cwnd)
			}
		}
	}
}

func TestGainsByMode(t *testing.T) {
	cfg := DefaultConfig()

	pacing, cwnd := cfg.Gains(ModeStartup, 0)
	if pacing != cfg.StartupGain || cwnd != cfg.StartupGain {
		t.Errorf("Startup gains = (%f, %f), want (%f, %f)", pacing, cwnd, cfg.StartupGain, cfg.StartupGain)
	}

	pacing, cwnd = cfg.Gains(ModeDrain, 0)
	if pacing != 1.0/cfg.StartupGain {
		t.Errorf("Drain pacing gain = %f, want %f", pacing, 1.0/cfg.StartupGain)
	}
	if cwnd != cfg.StartupGain {
		t.Errorf("Drain cwnd gain = %f, want %f", cwnd, cfg.StartupGain)
	}

	for i, want := range cfg.ProbeBWGains {
		pacing, cwnd = cfg.Gains(ModeProbeBW, i)
		if pacing != want {
			t.Errorf("ProbeBW pacing gain at cycle %d = %f, want %f", i, pacing, want)
		}
		if cwnd != cfg.ProbeBWCwndGain {
			t.Errorf("ProbeBW cwnd gain at cycle %d = %f, want %f", i, cwnd, cfg.ProbeBWCwndGain)
		}
	}
	// The cycle index wraps at the end of the gain list.
	pacing, _ = cfg.Gains(ModeProbeBW, len(cfg.ProbeBWGains))
	if pacing != cfg.ProbeBWGains[0] {
		t.Errorf("ProbeBW pacing gain wraps to %f, want %f", pacing, cfg.ProbeBWGains[0])
	}

	pacing, cwnd = cfg.Gains(ModeProbeRTT, 0)
	if pacing != 1.0 || cwnd != 1.0 {
		t.Errorf("ProbeRTT gains = (%f, %f), want (1, 1)", pacing, cwnd)
	}
}
