// go-saracell
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-saracell.
//
// go-saracell is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-saracell is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-saracell; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package saracell

import "time"

// Family identifies the modem chip family. The two families share the AT
// surface but differ in pulse widths, timing budgets, persistent settings and
// a handful of command variants; all of those differences live in the profile
// table below instead of being re-branched at each call site.
type Family int

const (
	// FamilyU201 is the SARA-U2 series (2G/3G).
	FamilyU201 Family = iota
	// FamilyR410 is the SARA-R4 series (LTE Cat M1).
	FamilyR410
)

func (f Family) String() string {
	switch f {
	case FamilyU201:
		return "SARA-U201"
	case FamilyR410:
		return "SARA-R410"
	default:
		return "unknown"
	}
}

const (
	defaultBaudRate = 115200

	maxMuxerFrameSize = 1509

	atChannel  = 1
	pppChannel = 2

	simSelectPin = 23

	bootProbeTimeout     = 20 * time.Second
	defaultProbePeriod   = time.Second
	inputDiscardWindow   = time.Second
	baudSwitchProbeLimit = 10 * time.Second

	registrationCheckInterval  = 15 * time.Second
	defaultRegistrationTimeout = 10 * time.Minute

	// R410 application firmware with the 124-day memory housekeeping defect.
	memoryIssueFirmwareVersion = 200
	// Highest R410 application firmware without usable hardware flow
	// control on the data path.
	noFlowControlFirmwareMax = 203
)

type familyProfile struct {
	// Boot and runtime line speeds. altBootBaud, when non-zero, is probed
	// once if the default baud gets no answer (persistent AT+IPR settings
	// written by newer firmware).
	runtimeBaud int
	altBootBaud int

	// Power pin pulse widths.
	powerOnPulse  time.Duration
	powerOffPulse time.Duration
	resetPulse    time.Duration

	// resetPowersOff marks families whose reset pulse leaves the modem
	// powered down instead of restarting it.
	resetPowersOff bool

	// agingGuard marks families subject to the firmware uptime-housekeeping
	// defect; power-offs and resets wait out the aging guard first.
	agingGuard bool

	// SIM functionality reset after a GPIO-mux reconfiguration.
	simResetCommand string
	simResetSettle  time.Duration

	// Power-saving-mode disable command.
	psmDisableCommand string

	// extendedInit enables the R410 persistent-settings hardening pass
	// (operator profile, RAT lock, per-RAT eDRX disable).
	extendedInit bool

	// usesEPSRegistration selects CEREG over CREG/CGREG for registration
	// control and polling.
	usesEPSRegistration bool

	// Extended signal metrics (UCGED) instead of generic CSQ.
	extendedSignalQuality bool

	mux MuxerConfig

	postMuxProbeTimeout time.Duration
	postMuxProbePeriod  time.Duration
}

var familyProfiles = map[Family]*familyProfile{
	FamilyU201: {
		runtimeBaud:       115200,
		powerOnPulse:      50 * time.Microsecond,
		powerOffPulse:     1500 * time.Millisecond,
		resetPulse:        50 * time.Millisecond,
		simResetCommand:   "AT+CFUN=16",
		simResetSettle:    time.Second,
		psmDisableCommand: "AT+UPSV=0",
		mux: MuxerConfig{
			MaxFrameSize:           maxMuxerFrameSize,
			KeepAlivePeriod:        5 * time.Second,
			KeepAliveMaxMissed:     5,
			MaxRetransmissions:     10,
			AckTimeout:             100 * time.Millisecond,
			ControlResponseTimeout: 500 * time.Millisecond,
		},
		postMuxProbeTimeout: 10 * time.Second,
		postMuxProbePeriod:  defaultProbePeriod,
	},
	FamilyR410: {
		runtimeBaud: 115200,
		// Forward compatibility with the persistent 460800 baud setting
		// written by newer firmware lines.
		altBootBaud:           460800,
		powerOnPulse:          150 * time.Millisecond,
		powerOffPulse:         1600 * time.Millisecond,
		resetPulse:            10 * time.Second,
		resetPowersOff:        true,
		agingGuard:            true,
		simResetCommand:       "AT+CFUN=15",
		simResetSettle:        10 * time.Second,
		psmDisableCommand:     "AT+CPSMS=0",
		extendedInit:          true,
		usesEPSRegistration:   true,
		extendedSignalQuality: true,
		mux: MuxerConfig{
			MaxFrameSize:           maxMuxerFrameSize,
			KeepAlivePeriod:        10 * time.Second,
			KeepAliveMaxMissed:     5,
			MSCKeepAlive:           true,
			MaxRetransmissions:     3,
			AckTimeout:             2530 * time.Millisecond,
			ControlResponseTimeout: 2540 * time.Millisecond,
		},
		postMuxProbeTimeout: 20 * time.Second,
		postMuxProbePeriod:  5 * time.Second,
	},
}

func (f Family) profile() *familyProfile {
	if p, ok := familyProfiles[f]; ok {
		return p
	}
	return familyProfiles[FamilyU201]
}
