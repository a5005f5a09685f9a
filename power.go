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

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

const (
	powerOnPollInterval  = 100 * time.Millisecond
	powerOnPollAttempts  = 10
	powerOffPollAttempts = 100

	firstPowerOffSettle = 5 * time.Second

	agingGuardAfterRegistration = 20 * time.Second
	agingGuardAfterPowerOn      = 30 * time.Second
	agingGuardPollInterval      = 100 * time.Millisecond
)

// PowerSequencer drives the modem power, reset and UART buffer-enable pins
// with the chip family's pulse widths and polling budgets. Power operations
// are idempotent: they sample the power-good input first and skip the pulse
// when the modem is already in the requested state.
type PowerSequencer struct {
	pins  ModemPins
	prof  *familyProfile
	clock clock

	lastResetReason ResetReason
	bootTime        time.Time

	memoryIssue atomic.Bool

	mu                sync.Mutex
	firstPowerOffDone bool
	powerOnTime       time.Time
	registeredTime    time.Time
}

// PowerOption configures a standalone PowerSequencer.
type PowerOption func(*PowerSequencer)

// WithPowerResetReason reports the host's last reset cause to the
// first-power-off guard.
func WithPowerResetReason(r ResetReason) PowerOption {
	return func(p *PowerSequencer) { p.lastResetReason = r }
}

// WithPowerBootTime overrides the host boot timestamp used by the
// first-power-off guard.
func WithPowerBootTime(t time.Time) PowerOption {
	return func(p *PowerSequencer) { p.bootTime = t }
}

// NewPowerSequencer creates a power sequencer for the given pins and family.
func NewPowerSequencer(pins ModemPins, family Family, opts ...PowerOption) *PowerSequencer {
	p := &PowerSequencer{
		pins:     pins,
		prof:     family.profile(),
		clock:    realClock{},
		bootTime: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PowerGood samples the modem's power-good input.
func (p *PowerSequencer) PowerGood() bool {
	on, err := p.pins.PowerGood()
	if err != nil {
		glog.Errorf("power-good read failed: %v", err)
		return false
	}
	return on
}

// SetBufferEnabled switches the UART voltage translator.
func (p *PowerSequencer) SetBufferEnabled(on bool) error {
	glog.V(1).Infof("setting UART voltage translator: %v", on)
	return p.pins.SetBufferEnable(on)
}

// PowerOn powers the modem up if it is not already up: one family-specific
// low pulse on the power pin, then the power-good input is polled for up to
// one second. Returns ErrInvalidState if power-good never asserts.
func (p *PowerSequencer) PowerOn() error {
	if p.PowerGood() {
		glog.V(1).Info("modem already on")
		return nil
	}
	glog.V(1).Info("powering modem on")
	if err := p.pulsePower(p.prof.powerOnPulse); err != nil {
		return err
	}
	for i := 0; i < powerOnPollAttempts; i++ {
		if p.PowerGood() {
			glog.V(1).Info("modem powered on")
			return nil
		}
		p.clock.sleep(powerOnPollInterval)
	}
	glog.Error("failed to power on modem")
	return ErrInvalidState
}

// PowerOff powers the modem down if it is up. The UART voltage translator is
// disabled first (power-good cannot fall while it is driven), the family
// pulse is issued, and power-good is polled for up to ten seconds. For the
// family with the uptime-housekeeping firmware defect the aging guard runs
// before the pulse. Returns ErrInvalidState if power-good never clears.
func (p *PowerSequencer) PowerOff() error {
	p.firstPowerOffGuard()

	if !p.PowerGood() {
		glog.V(1).Info("modem already off")
		return nil
	}
	glog.V(1).Info("powering modem off")
	if err := p.SetBufferEnabled(false); err != nil {
		return err
	}
	if p.prof.agingGuard && p.memoryIssue.Load() {
		p.waitForPowerOff()
	}
	if err := p.pulsePower(p.prof.powerOffPulse); err != nil {
		return err
	}
	for i := 0; i < powerOffPollAttempts; i++ {
		if !p.PowerGood() {
			glog.V(1).Info("modem powered off")
			return nil
		}
		p.clock.sleep(powerOnPollInterval)
	}
	glog.Error("failed to power off modem")
	return ErrInvalidState
}

// HardReset pulses the reset pin. The modem must currently be powered. For
// the family whose reset pulse also powers the modem off, powerOff selects
// whether to leave it down or re-power immediately.
func (p *PowerSequencer) HardReset(powerOff bool) error {
	if !p.PowerGood() {
		glog.Error("cannot hard reset the modem, it is not on")
		return ErrInvalidState
	}
	glog.V(1).Info("hard resetting the modem")
	if !p.prof.resetPowersOff {
		if err := p.pulseReset(p.prof.resetPulse); err != nil {
			return err
		}
		// Reset is transparent, the modem restarts under power.
		p.clock.sleep(time.Second)
		return nil
	}
	if p.memoryIssue.Load() {
		p.waitForPowerOff()
	}
	if err := p.pulseReset(p.prof.resetPulse); err != nil {
		return err
	}
	p.clock.sleep(time.Second)
	if !powerOff {
		glog.V(1).Info("powering on the modem after the hard reset")
		return p.PowerOn()
	}
	return nil
}

// setMemoryIssue records whether the running application firmware carries the
// uptime-housekeeping defect that the aging guard works around.
func (p *PowerSequencer) setMemoryIssue(present bool) {
	p.memoryIssue.Store(present)
}

func (p *PowerSequencer) memoryIssuePresent() bool {
	return p.memoryIssue.Load()
}

// notePowerOn records when the modem last became responsive; the aging guard
// falls back to this timestamp when no registration happened this session.
func (p *PowerSequencer) notePowerOn(t time.Time) {
	p.mu.Lock()
	p.powerOnTime = t
	p.registeredTime = time.Time{}
	p.mu.Unlock()
}

func (p *PowerSequencer) noteRegistered(t time.Time) {
	p.mu.Lock()
	p.registeredTime = t
	p.mu.Unlock()
}

func (p *PowerSequencer) clearRegistered() {
	p.mu.Lock()
	p.registeredTime = time.Time{}
	p.mu.Unlock()
}

// firstPowerOffGuard delays the very first power-off attempt until at least
// five seconds of host uptime have elapsed, but only after a power-loss or
// brownout reset: the U2 family auto powers on when it detects a rising
// supply, and a power-off pulse issued while that is still in progress goes
// undetected.
func (p *PowerSequencer) firstPowerOffGuard() {
	p.mu.Lock()
	done := p.firstPowerOffDone
	p.firstPowerOffDone = true
	p.mu.Unlock()
	if done || p.prof.resetPowersOff {
		return
	}
	if !p.PowerGood() {
		return
	}
	if p.lastResetReason != ResetReasonPowerDown && p.lastResetReason != ResetReasonBrownout {
		return
	}
	uptime := p.clock.now().Sub(p.bootTime)
	if uptime < firstPowerOffSettle {
		p.clock.sleep(firstPowerOffSettle - uptime)
	}
}

// waitForPowerOff is the aging guard: it holds off a forced power cycle until
// either 20s have passed since the last successful registration (when one
// happened this session) or 30s since power-on, to keep clear of the modem's
// documented ~124-day internal uptime-housekeeping fault. The guard's own
// timestamps are cleared on exit regardless of outcome.
func (p *PowerSequencer) waitForPowerOff() {
	glog.V(1).Info("waiting up to 30s before forcing the modem off")
	p.mu.Lock()
	if p.powerOnTime.IsZero() {
		// Fall back to the maximum 30s budget to be safe.
		p.powerOnTime = p.clock.now()
	}
	powerOn := p.powerOnTime
	registered := p.registeredTime
	p.mu.Unlock()

	for {
		now := p.clock.now()
		if !registered.IsZero() {
			if now.Sub(registered) >= agingGuardAfterRegistration {
				break
			}
		} else if now.Sub(powerOn) >= agingGuardAfterPowerOn {
			break
		}
		if !p.PowerGood() {
			break
		}
		p.clock.sleep(agingGuardPollInterval)
	}

	p.mu.Lock()
	p.powerOnTime = time.Time{}
	p.registeredTime = time.Time{}
	p.mu.Unlock()
}

func (p *PowerSequencer) pulsePower(width time.Duration) error {
	if err := p.pins.SetPower(false); err != nil {
		return err
	}
	p.clock.sleep(width)
	return p.pins.SetPower(true)
}

func (p *PowerSequencer) pulseReset(width time.Duration) error {
	if err := p.pins.SetReset(false); err != nil {
		return err
	}
	p.clock.sleep(width)
	return p.pins.SetReset(true)
}
