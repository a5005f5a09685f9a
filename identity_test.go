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
)

func TestAccessTechnologyFamilies(t *testing.T) {
	for _, act := range []AccessTechnology{ActGSM, ActGSMCompact, ActUTRAN, ActGSMEdge,
		ActUTRANHSDPA, ActUTRANHSUPA, ActUTRANHSDPAHSUPA} {
		assert.True(t, act.isGERANUTRAN(), act.String())
		assert.False(t, act.isEUTRAN(), act.String())
	}
	for _, act := range []AccessTechnology{ActLTE, ActLTECatM1, ActLTENBIoT} {
		assert.True(t, act.isEUTRAN(), act.String())
		assert.False(t, act.isGERANUTRAN(), act.String())
	}
	assert.False(t, ActNone.isGERANUTRAN())
	assert.False(t, ActNone.isEUTRAN())
	assert.True(t, ActNone.known())
	assert.False(t, AccessTechnology(10).known())
}

func TestSignalQualityUnitDerivation(t *testing.T) {
	tests := []struct {
		act      AccessTechnology
		quality  QualityUnits
		strength StrengthUnits
	}{
		{ActGSM, QualityRXQUAL, StrengthRXLEV},
		{ActGSMCompact, QualityRXQUAL, StrengthRXLEV},
		{ActGSMEdge, QualityRXQUAL, StrengthRXLEV},
		{ActUTRAN, QualityECN0, StrengthRSCP},
		{ActUTRANHSDPA, QualityECN0, StrengthRSCP},
		{ActUTRANHSDPAHSUPA, QualityECN0, StrengthRSCP},
		{ActLTE, QualityRSRQ, StrengthRSRP},
		{ActLTECatM1, QualityRSRQ, StrengthRSRP},
		{ActLTENBIoT, QualityRSRQ, StrengthRSRP},
		{ActNone, QualityUnknown, StrengthUnknown},
	}
	for _, tt := range tests {
		var q SignalQuality
		q.setAccessTechnology(tt.act)
		assert.Equal(t, tt.quality, q.QualityUnits, tt.act.String())
		assert.Equal(t, tt.strength, q.StrengthUnits, tt.act.String())
	}
}

func TestMobileNetworkCodeString(t *testing.T) {
	cgi := CellularGlobalIdentity{MobileNetworkCode: 7, TwoDigitMNC: true}
	assert.Equal(t, "07", cgi.MobileNetworkCodeString())

	cgi = CellularGlobalIdentity{MobileNetworkCode: 7}
	assert.Equal(t, "007", cgi.MobileNetworkCodeString())

	cgi = CellularGlobalIdentity{MobileNetworkCode: 260}
	assert.Equal(t, "260", cgi.MobileNetworkCodeString())
}

func TestLocationInvalidation(t *testing.T) {
	var cgi CellularGlobalIdentity
	assert.False(t, cgi.locationUnset())

	cgi.invalidateLocation()
	assert.True(t, cgi.locationUnset())
	assert.Equal(t, unsetLocationAreaCode, cgi.LocationAreaCode)
	assert.Equal(t, unsetCellID, cgi.CellID)

	cgi.LocationAreaCode = 0x1A2B
	cgi.CellID = 0xC8
	assert.False(t, cgi.locationUnset())
}

func TestNetworkConfigForIMSI(t *testing.T) {
	assert.Equal(t, "fast.t-mobile.com", networkConfigForIMSI("310260123456789").APN)
	assert.Equal(t, "broadband", networkConfigForIMSI("310410987654321").APN)
	assert.Empty(t, networkConfigForIMSI("999990000000000").APN)
	assert.Empty(t, networkConfigForIMSI("").APN)
}
