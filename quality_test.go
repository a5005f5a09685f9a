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

func TestSignalQualityRequiresConnection(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)

	_, err := r.c.SignalQuality()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSignalQualityUTRAN(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)
	r.engine.Script("AT+COPS?", ResultOK, `+COPS: 0,2,"31026",2`)
	r.engine.Script("AT+CSQ", ResultOK, "+CSQ: 10,5")

	q, err := r.c.SignalQuality()
	require.NoError(t, err)
	assert.Equal(t, ActUTRAN, q.AccessTechnology)
	assert.Equal(t, QualityECN0, q.QualityUnits)
	assert.Equal(t, StrengthRSCP, q.StrengthUnits)
	// rxqual 5 -> Ec/N0 index 7+(7-5)*6 = 19.
	assert.Equal(t, uint8(19), q.Quality)
	// rxlev 10 with Ec/N0 -1500 -> RSCP -102 dBm -> index 19.
	assert.Equal(t, uint8(19), q.Strength)
}

func TestSignalQualityGSM(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)
	r.engine.Script("AT+COPS?", ResultOK, `+COPS: 0,2,"31026",0`)
	r.engine.Script("AT+CSQ", ResultOK, "+CSQ: 20,4")

	q, err := r.c.SignalQuality()
	require.NoError(t, err)
	assert.Equal(t, ActGSM, q.AccessTechnology)
	assert.Equal(t, QualityRXQUAL, q.QualityUnits)
	assert.Equal(t, StrengthRXLEV, q.StrengthUnits)
	assert.Equal(t, uint8(4), q.Quality)
	assert.Equal(t, uint8(40), q.Strength)
}

func TestSignalQualityGSMEdgeUsesMeanBEP(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)
	r.engine.Script("AT+COPS?", ResultOK, `+COPS: 0,2,"31026",3`)
	r.engine.Script("AT+CSQ", ResultOK, "+CSQ: 15,3")

	q, err := r.c.SignalQuality()
	require.NoError(t, err)
	assert.Equal(t, ActGSMEdge, q.AccessTechnology)
	assert.Equal(t, QualityMeanBEP, q.QualityUnits)
	assert.Equal(t, uint8(3), q.Quality)
}

func TestSignalQualityUnknownCSQReadings(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)
	r.engine.Script("AT+COPS?", ResultOK, `+COPS: 0,2,"31026",2`)
	r.engine.Script("AT+CSQ", ResultOK, "+CSQ: 99,99")

	q, err := r.c.SignalQuality()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), q.Quality)
	assert.Equal(t, uint8(255), q.Strength)
}

func TestSignalQualityR410Extended(t *testing.T) {
	r := newTestRig(t, WithFamily(FamilyR410))
	r.powerOn(t)
	r.engine.Script("AT+COPS?", ResultOK, "+COPS: 0")
	r.engine.Script("AT+CEREG?", ResultOK, `+CEREG: 2,1,"1A2B","000000C8",8`)
	require.NoError(t, r.c.Connect())

	r.engine.Script("AT+COPS?", ResultOK, `+COPS: 0,2,"310410",7`)
	r.engine.Script("AT+UCGED?", ResultOK,
		"+RSRP: 162,5110,\"-75.80\",",
		"+RSRQ: 162,5110,\"-14.20\",")

	q, err := r.c.SignalQuality()
	require.NoError(t, err)
	// R4 reports the generic LTE code for its Cat M1 radio.
	assert.Equal(t, ActLTECatM1, q.AccessTechnology)
	assert.Equal(t, QualityRSRQ, q.QualityUnits)
	assert.Equal(t, StrengthRSRP, q.StrengthUnits)
	assert.Equal(t, uint8(66), q.Strength)
	assert.Equal(t, uint8(11), q.Quality)
	assert.True(t, r.engine.Executed("AT+UCGED=5"))
}

func TestSignalQualityBadOperatorData(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)
	// No access technology field.
	r.engine.Script("AT+COPS?", ResultOK, `+COPS: 0,2,"31026"`)

	_, err := r.c.SignalQuality()
	assert.ErrorIs(t, err, ErrBadData)
}

func TestRSRPToStrength(t *testing.T) {
	tests := []struct {
		rsrp int64
		want uint8
	}{
		{-200, 0},
		{-141, 0},
		{-140, 1},
		{-75, 66},
		{-44, 97},
		{-1, 97},
		{0, 97},
		{-250, 255},
		{10, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rsrpToStrength(tt.rsrp), "rsrp %d", tt.rsrp)
	}
}

func TestRSRQToQuality(t *testing.T) {
	tests := []struct {
		rsrq int64
		frac uint64
		want uint8
	}{
		{-20, 0, 0},
		{-19, 60, 0},
		{-19, 50, 1},
		{-14, 20, 11},
		{-3, 0, 34},
		{-1, 0, 34},
		{0, 0, 34},
		{-21, 0, 255},
		{1, 0, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rsrqToQuality(tt.rsrq, tt.frac), "rsrq %d.%d", tt.rsrq, tt.frac)
	}
}
