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

	"github.com/nagare-net/nagare/pkg/log"
	"github.com/nagare-net/nagare/pkg/mathext"
	"github.com/nagare-net/nagare/pkg/stderror"
)

// Decision is the control output for one flow: the rate at which the
// datapath should pace outgoing data and the congestion window it should
// enforce.
type Decision struct {
	// PacingRate is in bytes per second.
	PacingRate int64

	// Cwnd is the maximum number of bytes allowed in flight.
	Cwnd int64
}

func (d Decision) String() string {
	return fmt.Sprintf("Decision{pacingRate=%d B/s, cwnd=%d B}", d.PacingRate, d.Cwnd)
}

// FlowController runs the BBR-style control loop for a single flow. It
// ingests measurement samples in arrival order, maintains the bandwidth and
// minimum RTT estimates, drives the mode state machine, and derives the
// pacing rate and congestion window the datapath should enforce.
//
// A FlowController performs no locking and keeps no goroutines or timers of
// its own: the whole loop is a function of (current state, next sample).
// Callers must guarantee that samples for one flow are processed one at a
// time. Samples delivered out of arrival order are accepted; the resulting
// estimation error is bounded by the filter windows and is an accepted
// approximation rather than a corruption.
type FlowController struct {
	cfg Config

	// name identifies this flow in the log.
	name string

	mode      Mode
	bandwidth *BandwidthFilter
	minRTT    *MinRTTFilter

	// roundCount advances every time a full minimum RTT has elapsed since
	// the current round began. roundStart is zero until the first sample.
	roundCount int64
	roundStart time.Time

	// latestRTT is the RTT of the most recent sample that carried one.
	// It seeds round counting before the minimum RTT filter has a value.
	latestRTT time.Duration

	// cycleIndex is the position within the ProbeBW gain cycle.
	cycleIndex int

	// cycleRound is the round at which the current cycle position started.
	cycleRound int64

	modeEntryTime  time.Time
	modeEntryRound int64

	// Startup exit tracking. fullBandwidthReached latches once the
	// bandwidth estimate plateaus.
	fullBandwidthReached bool
	bandwidthAtLastRound int64
	roundsWithoutGrowth  int64
	lastSampleAppLimited bool

	// inflight is the latest estimate of bytes in flight: the value the
	// datapath reported, or delivery rate times RTT when it reported none.
	inflight int64

	// ProbeRTT exit tracking.
	probeRTTRoundPassed bool
	probeRTTFreshRTT    bool

	// Emit policy state. lastDecision is the most recently emitted decision.
	lastDecision Decision
	lastEmitTime time.Time
	everEmitted  bool
}

// NewFlowController creates the control loop state for one flow.
// The flow starts in Startup.
func NewFlowController(name string, cfg Config) (*FlowController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid congestion config: %w", err)
	}
	return &FlowController{
		cfg:       cfg,
		name:      name,
		mode:      ModeStartup,
		bandwidth: NewBandwidthFilter(cfg.BandwidthWindowRounds),
		minRTT:    NewMinRTTFilter(cfg.MinRTTWindow),
		inflight:  -1,
	}, nil
}

// Mode returns the current phase of the control loop.
func (c *FlowController) Mode() Mode {
	return c.mode
}

// BandwidthEstimate returns the current bottleneck bandwidth estimate in
// bytes per second, or zero before any sample.
func (c *FlowController) BandwidthEstimate() int64 {
	return c.bandwidth.Estimate()
}

// MinRTT returns the current minimum RTT estimate, or zero before the first
// RTT sample.
func (c *FlowController) MinRTT() time.Duration {
	return c.minRTT.Get()
}

// RoundCount returns the number of round trip periods elapsed since the
// first sample.
func (c *FlowController) RoundCount() int64 {
	return c.roundCount
}

// CycleIndex returns the current position within the ProbeBW gain cycle.
func (c *FlowController) CycleIndex() int {
	return c.cycleIndex
}

// LastDecision returns the most recently emitted decision and whether any
// decision has been emitted yet.
func (c *FlowController) LastDecision() (Decision, bool) {
	return c.lastDecision, c.everEmitted
}

// OnReport ingests one measurement sample and advances the control loop.
// It returns the refreshed decision and whether the emit policy wants it
// pushed to the datapath. Before the first RTT sample the controller
// withholds decisions: it returns a zero Decision and false with no error.
//
// An invalid sample is rejected with stderror.ErrInvalidSample and leaves
// the flow state untouched. At most one mode transition happens per sample;
// the ProbeRTT preemption is evaluated first because it may interrupt any
// other mode.
func (c *FlowController) OnReport(s Sample) (Decision, bool, error) {
	if err := s.Validate(); err != nil {
		return Decision{}, false, err
	}
	now := s.Timestamp

	firstSample := c.roundStart.IsZero()
	if firstSample {
		c.roundStart = now
		c.modeEntryTime = now
	}

	// (1) ProbeRTT preemption. An expired minimum RTT interrupts any mode,
	// even when this sample carries no RTT observation.
	preempted := false
	if c.mode != ModeProbeRTT && c.minRTT.Expired(now) {
		c.enterProbeRTT(now)
		preempted = true
	}

	// (2) Update both filters.
	if s.RTT > 0 {
		c.latestRTT = s.RTT
		c.minRTT.Update(s.RTT, now)
		if c.mode == ModeProbeRTT {
			c.probeRTTFreshRTT = true
		}
	}
	c.bandwidth.Update(s.DeliveryRate(), c.roundCount, s.AppLimited)
	c.lastSampleAppLimited = s.AppLimited
	c.updateInflight(s)

	// (3) Advance the round counter when a full RTT has elapsed since the
	// round began. The first sample starts round zero and counts as a round
	// start so the Startup growth baseline is established immediately.
	isRoundStart := firstSample
	if rtt := c.roundLength(); !firstSample && rtt > 0 && now.Sub(c.roundStart) >= rtt {
		c.roundCount++
		c.roundStart = now
		isRoundStart = true
	}

	// (4) Evaluate the current mode's exit condition, unless the ProbeRTT
	// preemption already used up this sample's transition.
	if !preempted {
		c.advanceMode(now, isRoundStart)
	}

	// (5) + (6) Recompute the decision and apply the emit policy.
	decision, err := c.Decide()
	if err != nil {
		// Only NotReady can happen here. The sample was consumed; the
		// datapath simply gets no action yet.
		return Decision{}, false, nil
	}
	emit := c.shouldEmit(decision, now)
	if emit {
		c.lastDecision = decision
		c.lastEmitTime = now
		c.everEmitted = true
	}
	return decision, emit, nil
}

// Decide derives the pacing rate and congestion window from the current
// state. It is deterministic and idempotent: calling it repeatedly without
// an intervening OnReport yields the same output and advances nothing.
// It returns stderror.ErrNotReady until the first RTT sample.
func (c *FlowController) Decide() (Decision, error) {
	minRTT := c.minRTT.Get()
	if minRTT <= 0 {
		return Decision{}, fmt.Errorf("flow %s has no RTT measurement: %w", c.name, stderror.ErrNotReady)
	}

	pacingGain, cwndGain := c.cfg.Gains(c.mode, c.cycleIndex)

	bw := c.bandwidth.Estimate()
	if bw <= 0 {
		// Every sample so far was app-limited. Pace at the initial window
		// over the minimum RTT so the datapath never stalls.
		bw = bandwidthFromBytesAndInterval(c.cfg.InitialCwnd, minRTT)
	}
	pacingRate := int64(pacingGain * float64(bw))

	var cwnd int64
	if c.mode == ModeProbeRTT {
		// Clamp to the floor to flush queueing and obtain a clean RTT sample.
		cwnd = c.cfg.MinCwnd
	} else {
		cwnd = mathext.Min(c.targetCwnd(cwndGain), c.cfg.MaxCwnd)
	}
	return Decision{PacingRate: pacingRate, Cwnd: cwnd}, nil
}

// targetCwnd returns the congestion window matching the given gain applied
// to the current bandwidth-delay product, bounded below by the cwnd floor.
func (c *FlowController) targetCwnd(gain float64) int64 {
	bdp := c.bandwidth.Estimate() * c.minRTT.Get().Nanoseconds() / int64(time.Second)
	cwnd := int64(gain * float64(bdp))
	// The BDP is zero until the first non-app-limited sample.
	if cwnd <= 0 {
		cwnd = int64(gain * float64(c.cfg.InitialCwnd))
	}
	return mathext.Max(cwnd, c.cfg.MinCwnd)
}

// roundLength is the duration of one round trip for round counting:
// the minimum RTT estimate, or the latest observed RTT before the filter
// has a value.
func (c *FlowController) roundLength() time.Duration {
	if rtt := c.minRTT.Get(); rtt > 0 {
		return rtt
	}
	return c.latestRTT
}

// updateInflight refreshes the bytes-in-flight estimate from the sample.
func (c *FlowController) updateInflight(s Sample) {
	if s.Inflight >= 0 {
		c.inflight = s.Inflight
		return
	}
	// The datapath did not report inflight. Approximate it with the bytes
	// delivered over one RTT at the sampled rate.
	if rtt := c.roundLength(); rtt > 0 {
		c.inflight = s.DeliveryRate() * rtt.Nanoseconds() / int64(time.Second)
	}
}

// advanceMode applies the exit rule of the current mode. At most one
// transition happens per call.
func (c *FlowController) advanceMode(now time.Time, isRoundStart bool) {
	switch c.mode {
	case ModeStartup:
		if isRoundStart && !c.fullBandwidthReached {
			c.checkFullBandwidthReached()
		}
		if c.fullBandwidthReached {
			c.enterDrain(now)
		}
	case ModeDrain:
		if c.inflight >= 0 && c.inflight <= c.targetCwnd(1.0) {
			c.enterProbeBW(now)
		}
	case ModeProbeBW:
		// Not a transition: ProbeBW only leaves through the ProbeRTT
		// preemption. Advance the gain cycle once per round.
		if isRoundStart && c.roundCount > c.cycleRound {
			c.cycleIndex = (c.cycleIndex + 1) % len(c.cfg.ProbeBWGains)
			c.cycleRound = c.roundCount
		}
	case ModeProbeRTT:
		if isRoundStart && c.roundCount > c.modeEntryRound {
			c.probeRTTRoundPassed = true
		}
		if c.probeRTTRoundPassed && c.probeRTTFreshRTT && now.Sub(c.modeEntryTime) >= c.cfg.ProbeRTTDuration {
			// Schedule the next probe one full window from now.
			c.minRTT.Touch(now)
			if c.fullBandwidthReached {
				c.enterProbeBW(now)
			} else {
				// The pipe was never filled. Resume the search for the
				// bottleneck bandwidth.
				c.enterStartup(now)
			}
		}
	}
}

// checkFullBandwidthReached latches fullBandwidthReached once the bandwidth
// estimate has stopped growing for enough consecutive rounds. Rounds whose
// most recent sample was app-limited do not count against the flow.
func (c *FlowController) checkFullBandwidthReached() {
	if c.lastSampleAppLimited {
		return
	}
	target := int64(float64(c.bandwidthAtLastRound) * c.cfg.StartupGrowthTarget)
	if estimate := c.bandwidth.Estimate(); estimate > target {
		c.bandwidthAtLastRound = estimate
		c.roundsWithoutGrowth = 0
		return
	}
	c.roundsWithoutGrowth++
	if c.roundsWithoutGrowth >= c.cfg.StartupGrowthRounds {
		c.fullBandwidthReached = true
	}
}

func (c *FlowController) enterStartup(now time.Time) {
	c.setMode(ModeStartup, now)
	c.bandwidthAtLastRound = 0
	c.roundsWithoutGrowth = 0
}

func (c *FlowController) enterDrain(now time.Time) {
	c.setMode(ModeDrain, now)
}

func (c *FlowController) enterProbeBW(now time.Time) {
	c.setMode(ModeProbeBW, now)
	// The cycle always restarts at the probing slot. A randomized start
	// would spread concurrent flows but makes sample replay nondeterministic.
	c.cycleIndex = 0
	c.cycleRound = c.roundCount
}

func (c *FlowController) enterProbeRTT(now time.Time) {
	c.setMode(ModeProbeRTT, now)
	c.probeRTTRoundPassed = false
	c.probeRTTFreshRTT = false
}

func (c *FlowController) setMode(mode Mode, now time.Time) {
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("[FlowController %s] %v => %v at round %d", c.name, c.mode, mode, c.roundCount)
	}
	c.mode = mode
	c.modeEntryTime = now
	c.modeEntryRound = c.roundCount
}

// shouldEmit implements the hysteresis policy: a decision is pushed to the
// datapath when it differs materially from the last emitted one, or
// unconditionally on the configured cadence.
func (c *FlowController) shouldEmit(d Decision, now time.Time) bool {
	if !c.everEmitted {
		return true
	}
	if c.cfg.EmitInterval > 0 && now.Sub(c.lastEmitTime) >= c.cfg.EmitInterval {
		return true
	}
	return relativeChange(d.PacingRate, c.lastDecision.PacingRate) > c.cfg.EmitThreshold ||
		relativeChange(d.Cwnd, c.lastDecision.Cwnd) > c.cfg.EmitThreshold
}

// relativeChange returns |a-b| as a fraction of the previous value b.
func relativeChange(a, b int64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return 1
	}
	return float64(mathext.Abs(a-b)) / float64(mathext.Abs(b))
}
