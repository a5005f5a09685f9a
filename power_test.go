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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSequencer(family Family, opts ...PowerOption) (*PowerSequencer, *MockPins, *fakeClock) {
	pins := NewMockPins()
	clock := newFakeClock()
	opts = append([]PowerOption{WithPowerBootTime(clock.now())}, opts...)
	seq := NewPowerSequencer(pins, family, opts...)
	seq.clock = clock
	return seq, pins, clock
}

func togglePowerGood(p *MockPins) {
	on, _ := p.PowerGood()
	p.SetPowerGood(!on)
}

func TestPowerOnIdempotent(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyU201)
	pins.SetPowerGood(true)

	require.NoError(t, seq.PowerOn())
	assert.Zero(t, pins.PowerPulses)
}

func TestPowerOnPulsesUntilPowerGood(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyU201)
	pins.OnPowerPulse = togglePowerGood

	require.NoError(t, seq.PowerOn())
	assert.Equal(t, 1, pins.PowerPulses)
	assert.True(t, seq.PowerGood())
}

func TestPowerOnFailsWhenModemStaysSilent(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyU201)
	start := clock.now()

	err := seq.PowerOn()
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, pins.PowerPulses)
	// One pulse plus ten polling intervals.
	assert.GreaterOrEqual(t, clock.now().Sub(start), time.Second)
}

func TestPowerOffDisablesBufferFirst(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyU201)
	pins.SetPowerGood(true)
	require.NoError(t, pins.SetBufferEnable(true))
	pins.OnPowerPulse = togglePowerGood

	require.NoError(t, seq.PowerOff())
	assert.False(t, pins.BufferEnabled())
	assert.Equal(t, 1, pins.PowerPulses)
	assert.False(t, seq.PowerGood())
}

func TestPowerOffIdempotent(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyU201)

	require.NoError(t, seq.PowerOff())
	assert.Zero(t, pins.PowerPulses)
}

func TestFirstPowerOffWaitsOutBrownout(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyU201,
		WithPowerResetReason(ResetReasonBrownout))
	pins.SetPowerGood(true)
	pins.OnPowerPulse = togglePowerGood
	start := clock.now()

	require.NoError(t, seq.PowerOff())
	assert.GreaterOrEqual(t, clock.now().Sub(start), firstPowerOffSettle)

	// The guard only applies once.
	pins.SetPowerGood(true)
	start = clock.now()
	require.NoError(t, seq.PowerOff())
	assert.Less(t, clock.now().Sub(start), firstPowerOffSettle)
}

func TestFirstPowerOffGuardSkippedOnDeliberateReset(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyU201,
		WithPowerResetReason(ResetReasonOther))
	pins.SetPowerGood(true)
	pins.OnPowerPulse = togglePowerGood
	start := clock.now()

	require.NoError(t, seq.PowerOff())
	assert.Less(t, clock.now().Sub(start), firstPowerOffSettle)
}

func TestHardResetRequiresPower(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyU201)

	err := seq.HardReset(false)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, pins.ResetPulses)
}

func TestHardResetU201KeepsPower(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyU201)
	pins.SetPowerGood(true)

	require.NoError(t, seq.HardReset(false))
	assert.Equal(t, 1, pins.ResetPulses)
	assert.Zero(t, pins.PowerPulses)
	assert.True(t, seq.PowerGood())
}

func TestHardResetR410PowersBackOn(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyR410)
	pins.SetPowerGood(true)
	pins.OnResetPulse = func(p *MockPins) { p.SetPowerGood(false) }
	pins.OnPowerPulse = togglePowerGood

	require.NoError(t, seq.HardReset(false))
	assert.Equal(t, 1, pins.ResetPulses)
	assert.Equal(t, 1, pins.PowerPulses)
	assert.True(t, seq.PowerGood())
}

func TestHardResetR410LeavesPowerOffWhenAsked(t *testing.T) {
	seq, pins, _ := newTestSequencer(FamilyR410)
	pins.SetPowerGood(true)
	pins.OnResetPulse = func(p *MockPins) { p.SetPowerGood(false) }

	require.NoError(t, seq.HardReset(true))
	assert.Equal(t, 1, pins.ResetPulses)
	assert.Zero(t, pins.PowerPulses)
	assert.False(t, seq.PowerGood())
}

func TestAgingGuardDelaysPowerOffAfterRegistration(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyR410)
	pins.SetPowerGood(true)
	pins.OnPowerPulse = togglePowerGood
	seq.setMemoryIssue(true)
	seq.notePowerOn(clock.now())
	seq.noteRegistered(clock.now())
	start := clock.now()

	require.NoError(t, seq.PowerOff())
	assert.GreaterOrEqual(t, clock.now().Sub(start), agingGuardAfterRegistration)
}

func TestAgingGuardDelaysPowerOffWithoutRegistration(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyR410)
	pins.SetPowerGood(true)
	pins.OnPowerPulse = togglePowerGood
	seq.setMemoryIssue(true)
	seq.notePowerOn(clock.now())
	start := clock.now()

	require.NoError(t, seq.PowerOff())
	assert.GreaterOrEqual(t, clock.now().Sub(start), agingGuardAfterPowerOn)
}

func TestAgingGuardSkippedWithoutMemoryIssue(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyR410)
	pins.SetPowerGood(true)
	pins.OnPowerPulse = togglePowerGood
	seq.notePowerOn(clock.now())
	start := clock.now()

	require.NoError(t, seq.PowerOff())
	assert.Less(t, clock.now().Sub(start), agingGuardAfterRegistration)
}

func TestAgingGuardSkippedOnU201(t *testing.T) {
	seq, pins, clock := newTestSequencer(FamilyU201)
	pins.SetPowerGood(true)
	pins.OnPowerPulse = togglePowerGood
	seq.setMemoryIssue(true)
	seq.notePowerOn(clock.now())
	start := clock.now()

	require.NoError(t, seq.PowerOff())
	assert.Less(t, clock.now().Sub(start), agingGuardAfterRegistration)
}
