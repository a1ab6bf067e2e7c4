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

const (
	// segmentSize is the assumed size of one packet on the wire.
	segmentSize = 1500

	// The gain used during Startup. The congestion window roughly doubles
	// every round while the bandwidth estimate keeps growing.
	defaultStartupGain = 2.77

	// If the bandwidth estimate does not grow by this factor within
	// defaultStartupGrowthRounds rounds, the flow exits Startup.
	defaultStartupGrowthTarget = 1.25
	defaultStartupGrowthRounds = 3

	// The size of the bandwidth filter window, in round trips.
	defaultBandwidthWindowRounds = 10

	// The time after which the current minimum RTT value expires and a
	// ProbeRTT is due.
	defaultMinRTTWindow = 10 * time.Second

	// The minimum time a flow spends in ProbeRTT. Chosen so the performance
	// penalty of the cwnd clamp is bounded by roughly 2% (200ms / 10s).
	defaultProbeRTTDuration = 200 * time.Millisecond

	// The congestion window gain used during ProbeBW.
	defaultProbeBWCwndGain = 2.0

	// The floor keeps at least a few packets in flight so delayed acks do
	// not stall the flow.
	defaultMinCwnd     = 4 * segmentSize
	defaultInitialCwnd = 32 * segmentSize
	defaultMaxCwnd     = 4096 * segmentSize

	// Default hysteresis: re-issue a control action when pacing rate or cwnd
	// moved by more than 5%, and at least once per second regardless.
	defaultEmitThreshold = 0.05
	defaultEmitInterval  = time.Second
)

// defaultProbeBWGains is the cycle of pacing gains used during ProbeBW.
// One slot probes for more bandwidth, the next drains the resulting queue,
// and the rest cruise at the estimated rate.
var defaultProbeBWGains = []float64{1.25, 0.75, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0}

// Config carries the tuning parameters of the control loop. The values are
// algorithm defaults, not a compatibility contract; deployments may override
// any of them.
type Config struct {
	// BandwidthWindowRounds is the length of the bandwidth filter window in
	// round trips.
	BandwidthWindowRounds int64

	// MinRTTWindow is the length of the minimum RTT filter window. When the
	// minimum RTT has not been refreshed for this long, the flow preempts
	// into ProbeRTT.
	MinRTTWindow time.Duration

	// ProbeRTTDuration is the minimum time spent in ProbeRTT with the
	// congestion window held at MinCwnd.
	ProbeRTTDuration time.Duration

	// StartupGain is the pacing and cwnd gain applied during Startup.
	// The Drain pacing gain is its reciprocal.
	StartupGain float64

	// StartupGrowthTarget and StartupGrowthRounds define the Startup exit:
	// if the bandwidth estimate fails to grow by the target factor for the
	// given number of consecutive rounds, the pipe is considered full.
	StartupGrowthTarget float64
	StartupGrowthRounds int64

	// ProbeBWGains is the pacing gain cycle of ProbeBW. The cycle index
	// advances once per round and wraps at the end of this list.
	ProbeBWGains []float64

	// ProbeBWCwndGain is the congestion window gain applied during ProbeBW.
	ProbeBWCwndGain float64

	// MinCwnd, InitialCwnd and MaxCwnd bound the congestion window, in bytes.
	// MinCwnd is also the clamp applied during ProbeRTT.
	MinCwnd     int64
	InitialCwnd int64
	MaxCwnd     int64

	// EmitThreshold is the relative change of pacing rate or cwnd beyond
	// which a new control action is emitted. Zero emits on every change.
	EmitThreshold float64

	// EmitInterval forces an unconditional control action at this cadence
	// even when the decision is unchanged. Zero or negative disables the
	// cadence.
	EmitInterval time.Duration
}

// DefaultConfig returns the default tuning parameters.
func DefaultConfig() Config {
	return Config{
		BandwidthWindowRounds: defaultBandwidthWindowRounds,
		MinRTTWindow:          defaultMinRTTWindow,
		ProbeRTTDuration:      defaultProbeRTTDuration,
		StartupGain:           defaultStartupGain,
		StartupGrowthTarget:   defaultStartupGrowthTarget,
		StartupGrowthRounds:   defaultStartupGrowthRounds,
		ProbeBWGains:          defaultProbeBWGains,
		ProbeBWCwndGain:       defaultProbeBWCwndGain,
		MinCwnd:               defaultMinCwnd,
		InitialCwnd:           defaultInitialCwnd,
		MaxCwnd:               defaultMaxCwnd,
		EmitThreshold:         defaultEmitThreshold,
		EmitInterval:          defaultEmitInterval,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.BandwidthWindowRounds <= 0 {
		return fmt.Errorf("bandwidth window must cover at least 1 round: %w", stderror.ErrInvalidArgument)
	}
	if c.MinRTTWindow <= 0 {
		return fmt.Errorf("minimum RTT window must be positive: %w", stderror.ErrInvalidArgument)
	}
	if c.ProbeRTTDuration <= 0 {
		return fmt.Errorf("ProbeRTT duration must be positive: %w", stderror.ErrInvalidArgument)
	}
	if c.StartupGain <= 1 {
		return fmt.Errorf("startup gain must be greater than 1: %w", stderror.ErrInvalidArgument)
	}
	if c.StartupGrowthTarget <= 1 {
		return fmt.Errorf("startup growth target must be greater than 1: %w", stderror.ErrInvalidArgument)
	}
	if c.StartupGrowthRounds <= 0 {
		return fmt.Errorf("startup growth rounds must be positive: %w", stderror.ErrInvalidArgument)
	}
	if len(c.ProbeBWGains) == 0 {
		return fmt.Errorf("ProbeBW gain cycle is empty: %w", stderror.ErrInvalidArgument)
	}
	for i, g := range c.ProbeBWGains {
		if g <= 0 {
			return fmt.Errorf("ProbeBW gain at cycle position %d is not positive: %w", i, stderror.ErrInvalidArgument)
		}
	}
	if c.ProbeBWCwndGain <= 0 {
		return fmt.Errorf("ProbeBW cwnd gain must be positive: %w", stderror.ErrInvalidArgument)
	}
	if c.MinCwnd <= 0 {
		return fmt.Errorf("minimum cwnd must be positive: %w", stderror.ErrInvalidArgument)
	}
	if c.InitialCwnd < c.MinCwnd {
		return fmt.Errorf("initial cwnd is smaller than minimum cwnd: %w", stderror.ErrInvalidArgument)
	}
	if c.MaxCwnd < c.InitialCwnd {
		return fmt.Errorf("maximum cwnd is smaller than initial cwnd: %w", stderror.ErrInvalidArgument)
	}
	if c.EmitThreshold < 0 {
		return fmt.Errorf("emit threshold must not be negative: %w", stderror.ErrInvalidArgument)
	}
	return nil
}

// Gains maps a mode and ProbeBW cycle position to the pacing rate gain and
// the congestion window gain. It is a pure function of its inputs; the cycle
// index is consumed only in ProbeBW.
func (c Config) Gains(mode Mode, cycleIndex int) (pacingGain, cwndGain float64) {
	switch mode {
	case ModeStartup:
		return c.StartupGain, c.StartupGain
	case ModeDrain:
		// Drain the queue built during Startup while keeping the window
		// elevated, so draining is achieved through pacing alone.
		return 1.0 / c.StartupGain, c.StartupGain
	case ModeProbeBW:
		return c.ProbeBWGains[cycleIndex%len(c.ProbeBWGains)], c.ProbeBWCwndGain
	case ModeProbeRTT:
		return 1.0, 1.0
	default:
		return 1.0, 1.0
	}
}
