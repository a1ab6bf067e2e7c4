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

// Mode is the phase of the control loop for one flow. A flow starts in
// Startup and only moves between modes through the transition rules of the
// FlowController; no caller sets the mode directly.
type Mode int

const (
	// ModeStartup ramps up the sending rate quickly until the bandwidth
	// estimate stops growing.
	ModeStartup Mode = iota

	// ModeDrain lowers the pacing rate to drain the queue built during
	// Startup.
	ModeDrain

	// ModeProbeBW is the steady state. It cycles pacing gains around 1.0 to
	// track the available bandwidth.
	ModeProbeBW

	// ModeProbeRTT briefly holds the congestion window at its floor to empty
	// the bottleneck queue and measure the true minimum RTT.
	ModeProbeRTT
)

func (m Mode) String() string {
	switch m {
	case ModeStartup:
		return "STARTUP"
	case ModeDrain:
		return "DRAIN"
	case ModeProbeBW:
		return "PROBE_BW"
	case ModeProbeRTT:
		return "PROBE_RTT"
	default:
		return "UNKNOWN"
	}
}
