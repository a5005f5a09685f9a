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
	"fmt"
	"math"
)

// AccessTechnology is the radio access technology as reported in +COPS and
// the +CxREG notifications (3GPP TS 27.007 <AcT> coding).
type AccessTechnology int

const (
	// ActNone means no current access technology is known.
	ActNone AccessTechnology = -1
	// ActGSM is GSM.
	ActGSM AccessTechnology = 0
	// ActGSMCompact is GSM Compact.
	ActGSMCompact AccessTechnology = 1
	// ActUTRAN is UTRAN (3G).
	ActUTRAN AccessTechnology = 2
	// ActGSMEdge is GSM with EGPRS.
	ActGSMEdge AccessTechnology = 3
	// ActUTRANHSDPA is UTRAN with HSDPA.
	ActUTRANHSDPA AccessTechnology = 4
	// ActUTRANHSUPA is UTRAN with HSUPA.
	ActUTRANHSUPA AccessTechnology = 5
	// ActUTRANHSDPAHSUPA is UTRAN with HSDPA and HSUPA.
	ActUTRANHSDPAHSUPA AccessTechnology = 6
	// ActLTE is E-UTRAN.
	ActLTE AccessTechnology = 7
	// ActLTECatM1 is LTE Cat M1.
	ActLTECatM1 AccessTechnology = 8
	// ActLTENBIoT is LTE NB-IoT.
	ActLTENBIoT AccessTechnology = 9
)

func (a AccessTechnology) String() string {
	switch a {
	case ActNone:
		return "none"
	case ActGSM:
		return "GSM"
	case ActGSMCompact:
		return "GSM Compact"
	case ActUTRAN:
		return "UTRAN"
	case ActGSMEdge:
		return "GSM/EDGE"
	case ActUTRANHSDPA:
		return "UTRAN/HSDPA"
	case ActUTRANHSUPA:
		return "UTRAN/HSUPA"
	case ActUTRANHSDPAHSUPA:
		return "UTRAN/HSDPA+HSUPA"
	case ActLTE:
		return "LTE"
	case ActLTECatM1:
		return "LTE Cat M1"
	case ActLTENBIoT:
		return "LTE NB-IoT"
	default:
		return fmt.Sprintf("AcT(%d)", int(a))
	}
}

func (a AccessTechnology) known() bool {
	return a >= ActNone && a <= ActLTENBIoT
}

// isGERANUTRAN reports membership in the 2G/3G family that owns the +CREG
// and +CGREG location fields.
func (a AccessTechnology) isGERANUTRAN() bool {
	return a >= ActGSM && a <= ActUTRANHSDPAHSUPA
}

// isEUTRAN reports membership in the LTE family that owns the +CEREG
// tracking-area fields.
func (a AccessTechnology) isEUTRAN() bool {
	return a >= ActLTE && a <= ActLTENBIoT
}

// Location and cell fields use the maximum representable value as the "unset"
// sentinel; notification handlers only fill them while unset.
const (
	unsetLocationAreaCode uint16 = math.MaxUint16
	unsetCellID           uint32 = math.MaxUint32
)

// CellularGlobalIdentity identifies the serving cell: operator codes plus the
// location/tracking area and cell identifiers last reported for the current
// access technology.
type CellularGlobalIdentity struct {
	MobileCountryCode uint16
	MobileNetworkCode uint16
	// TwoDigitMNC preserves the reported digit count: a leading zero in a
	// two-digit network code is significant and must not be dropped.
	TwoDigitMNC      bool
	LocationAreaCode uint16
	CellID           uint32
}

// MobileNetworkCodeString renders the network code with its original digit
// count ("08" stays "08", "260" stays "260").
func (c CellularGlobalIdentity) MobileNetworkCodeString() string {
	if c.TwoDigitMNC {
		return fmt.Sprintf("%02d", c.MobileNetworkCode)
	}
	return fmt.Sprintf("%03d", c.MobileNetworkCode)
}

func (c *CellularGlobalIdentity) invalidateLocation() {
	c.LocationAreaCode = unsetLocationAreaCode
	c.CellID = unsetCellID
}

func (c *CellularGlobalIdentity) locationUnset() bool {
	return c.LocationAreaCode == unsetLocationAreaCode && c.CellID == unsetCellID
}

// QualityUnits is the unit kind of the SignalQuality Quality value.
type QualityUnits int

const (
	// QualityUnknown means no quality unit applies.
	QualityUnknown QualityUnits = iota
	// QualityRXQUAL is the GSM RXQUAL bit-error-rate index.
	QualityRXQUAL
	// QualityMeanBEP is the EGPRS mean bit-error-probability index.
	QualityMeanBEP
	// QualityECN0 is the UTRAN Ec/N0 index.
	QualityECN0
	// QualityRSRQ is the LTE reference signal received quality index.
	QualityRSRQ
)

// StrengthUnits is the unit kind of the SignalQuality Strength value.
type StrengthUnits int

const (
	// StrengthUnknown means no strength unit applies.
	StrengthUnknown StrengthUnits = iota
	// StrengthRXLEV is the GSM received signal level index.
	StrengthRXLEV
	// StrengthRSCP is the UTRAN received signal code power index.
	StrengthRSCP
	// StrengthRSRP is the LTE reference signal received power index.
	StrengthRSRP
)

// SignalQuality carries one normalized signal measurement. Strength and
// Quality are 0-255 indices; 255 means unknown or unavailable. Values are
// recomputed per query and never persisted.
type SignalQuality struct {
	Strength         uint8
	Quality          uint8
	QualityUnits     QualityUnits
	StrengthUnits    StrengthUnits
	AccessTechnology AccessTechnology
}

// setAccessTechnology records the access technology and derives the default
// unit kinds its measurements are reported in.
func (q *SignalQuality) setAccessTechnology(act AccessTechnology) {
	q.AccessTechnology = act
	switch {
	case act >= ActGSM && act <= ActGSMEdge && act != ActUTRAN:
		q.QualityUnits = QualityRXQUAL
		q.StrengthUnits = StrengthRXLEV
	case act == ActUTRAN || (act >= ActUTRANHSDPA && act <= ActUTRANHSDPAHSUPA):
		q.QualityUnits = QualityECN0
		q.StrengthUnits = StrengthRSCP
	case act.isEUTRAN():
		q.QualityUnits = QualityRSRQ
		q.StrengthUnits = StrengthRSRP
	default:
		q.QualityUnits = QualityUnknown
		q.StrengthUnits = StrengthUnknown
	}
}
