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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSIMAlreadyRouted(t *testing.T) {
	r := newTestRig(t)
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "16,2", "23,255")
	r.simReady()

	require.NoError(t, r.c.selectSIMCard())
	for _, cmd := range r.engine.Commands {
		assert.NotContains(t, cmd, "AT+UGPIOC=")
	}
	assert.False(t, r.engine.Executed("AT+CFUN=16"))
}

func TestSelectSIMReconfiguresInternalU201(t *testing.T) {
	r := newTestRig(t)
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "23,0")
	r.simReady()

	require.NoError(t, r.c.selectSIMCard())
	assert.True(t, r.engine.Executed("AT+UGPIOC=23,255"))
	assert.True(t, r.engine.Executed("AT+CFUN=16"))
}

func TestSelectSIMReconfiguresInternalR410(t *testing.T) {
	r := newTestRig(t, WithFamily(FamilyR410))
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "23,255")
	r.simReady()

	require.NoError(t, r.c.selectSIMCard())
	assert.True(t, r.engine.Executed("AT+UGPIOC=23,0,1"))
	assert.True(t, r.engine.Executed("AT+CFUN=15"))
}

func TestSelectSIMExternalChecksDrivenLevel(t *testing.T) {
	r := newTestRig(t, WithSIMSlot(SIMExternal))
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "23,0")
	// Output mode matches but drives the wrong level.
	r.engine.Script("AT+UGPIOR=23", ResultOK, "+UGPIOR: 23,1")
	r.simReady()

	require.NoError(t, r.c.selectSIMCard())
	assert.True(t, r.engine.Executed("AT+UGPIOC=23,0,0"))
}

func TestSelectSIMExternalLevelAlreadyCorrect(t *testing.T) {
	r := newTestRig(t, WithSIMSlot(SIMExternal))
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "23,0")
	r.engine.Script("AT+UGPIOR=23", ResultOK, "+UGPIOR: 23,0")
	r.simReady()

	require.NoError(t, r.c.selectSIMCard())
	for _, cmd := range r.engine.Commands {
		assert.NotContains(t, cmd, "AT+UGPIOC=")
	}
}

func TestSelectSIMPollsUntilReady(t *testing.T) {
	r := newTestRig(t)
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "23,255")
	// Two busy polls, then ready.
	r.engine.Script("AT+CPIN?", ResultOK)
	r.engine.Script("AT+CPIN?", ResultOK)
	r.engine.Script("AT+CPIN?", ResultOK, "+CPIN: READY")

	require.NoError(t, r.c.selectSIMCard())
	assert.True(t, r.engine.Executed("AT+CCID"))
}

func TestSelectSIMGivesUpWhenNeverReady(t *testing.T) {
	r := newTestRig(t)
	r.engine.Script("AT+UGPIOC?", ResultOK, "+UGPIOC:", "23,255")
	for i := 0; i < simReadyAttempts; i++ {
		r.engine.Script("AT+CPIN?", ResultOK, "+CPIN: SIM PIN")
	}

	err := r.c.selectSIMCard()
	assert.ErrorIs(t, err, ErrSIMNotReady)
}

func TestCheckSIMCardNotReady(t *testing.T) {
	r := newTestRig(t)
	r.engine.Script("AT+CPIN?", ResultOK, "+CPIN: SIM PIN")

	err := r.c.checkSIMCard()
	assert.ErrorIs(t, err, ErrSIMNotReady)
}
