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
	"github.com/ZaparooProject/go-saracell/internal/atscan"
)

// SignalQuality queries a fresh signal measurement for the current access
// technology. Strength and Quality are normalized 0-255 indices with 255
// meaning unknown. The modem must not be disconnected.
func (c *Client) SignalQuality() (SignalQuality, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := SignalQuality{Strength: 255, Quality: 255}
	if c.ConnectionState() == Disconnected {
		return q, ErrInvalidState
	}
	if err := c.checkReady(); err != nil {
		return q, err
	}
	if err := c.queryOperator(&q); err != nil {
		return q, err
	}
	if c.profile().extendedSignalQuality {
		if err := c.queryUCGED(&q); err != nil {
			return q, err
		}
	} else {
		if err := c.queryCSQ(&q); err != nil {
			return q, err
		}
	}
	return q, nil
}

// queryOperator reads the current operator in numeric format, updating the
// operator codes of the global identity and deriving the measurement units
// from the reported access technology.
func (c *Client) queryOperator(q *SignalQuality) error {
	if err := c.execOK("AT+COPS=3,2"); err != nil {
		return err
	}
	resp, err := c.send("AT+COPS?")
	if err != nil {
		return err
	}
	var mccmnc string
	act := int64(-1)
	hasAct := false
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		rest, ok := atscan.TrimPrefix(line, "+COPS:")
		if !ok {
			continue
		}
		fields := atscan.Fields(rest)
		// +COPS: <mode>[,<format>,<oper>[,<AcT>]]
		if len(fields) >= 3 {
			if s, ok := atscan.Unquote(fields[2]); ok {
				mccmnc = s
			}
		}
		if len(fields) >= 4 {
			if v, ok := atscan.Int(fields[3]); ok {
				act = v
				hasAct = true
			}
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	if !hasAct || !atscan.Digits(mccmnc) || len(mccmnc) < 5 || len(mccmnc) > 6 {
		return ErrBadData
	}
	mcc, _ := atscan.Uint(mccmnc[:3])
	mnc, _ := atscan.Uint(mccmnc[3:])
	c.cgi.MobileCountryCode = uint16(mcc)
	c.cgi.MobileNetworkCode = uint16(mnc)
	c.cgi.TwoDigitMNC = len(mccmnc) == 5

	a := AccessTechnology(act)
	// The R4 radio is Cat M1 but reports the generic E-UTRAN code.
	if c.conf.Family == FamilyR410 && a == ActLTE {
		a = ActLTECatM1
	}
	if !a.known() {
		return ErrBadData
	}
	q.setAccessTechnology(a)
	return nil
}

// queryUCGED reads the extended LTE metrics. RSRP and RSRQ arrive as quoted
// fixed-point dBm/dB values and are mapped onto the 0-97 and 0-34 index
// ranges; out-of-range readings stay at 255.
func (c *Client) queryUCGED(q *SignalQuality) error {
	if err := c.execOK("AT+UCGED=5"); err != nil {
		return err
	}
	resp, err := c.send("AT+UCGED?")
	if err != nil {
		return err
	}
	strength, quality := uint8(255), uint8(255)
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		if rest, ok := atscan.TrimPrefix(line, "+RSRP:"); ok {
			if fields := atscan.Fields(rest); len(fields) >= 3 {
				if v, _, ok := atscan.QuotedFixedPoint(fields[2]); ok {
					strength = rsrpToStrength(v)
				}
			}
		} else if rest, ok := atscan.TrimPrefix(line, "+RSRQ:"); ok {
			if fields := atscan.Fields(rest); len(fields) >= 3 {
				if v, frac, ok := atscan.QuotedFixedPoint(fields[2]); ok {
					quality = rsrqToQuality(v, frac)
				}
			}
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	q.Strength = strength
	q.Quality = quality
	return nil
}

func rsrpToStrength(rsrp int64) uint8 {
	switch {
	case rsrp < -140 && rsrp >= -200:
		return 0
	case rsrp >= -44 && rsrp <= 0:
		return 97
	case rsrp >= -140 && rsrp < -44:
		return uint8(rsrp + 141)
	default:
		return 255
	}
}

func rsrqToQuality(rsrq int64, frac uint64) uint8 {
	// The reading is negative; the fraction digits subtract.
	mul100 := rsrq*100 - int64(frac)
	switch {
	case mul100 < -1950 && mul100 >= -2000:
		return 0
	case mul100 >= -300 && mul100 <= 0:
		return 34
	case mul100 >= -1950 && mul100 < -300:
		return uint8((mul100 + 2000) / 50)
	default:
		return 255
	}
}

// queryCSQ reads the generic signal quality report and converts its RXLEV
// and RXQUAL indices into the units of the current access technology.
func (c *Client) queryCSQ(q *SignalQuality) error {
	resp, err := c.send("AT+CSQ")
	if err != nil {
		return err
	}
	rxlev, rxqual := int64(99), int64(99)
	found := false
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		rest, ok := atscan.TrimPrefix(line, "+CSQ:")
		if !ok {
			continue
		}
		fields := atscan.Fields(rest)
		if len(fields) < 2 {
			continue
		}
		l, okLev := atscan.Int(fields[0])
		u, okQual := atscan.Int(fields[1])
		if okLev && okQual {
			rxlev, rxqual = l, u
			found = true
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	if !found {
		return ErrBadData
	}

	// On GSM/EDGE the quality index is a mean bit error probability, not
	// RXQUAL.
	if q.AccessTechnology == ActGSMEdge {
		q.QualityUnits = QualityMeanBEP
	}

	switch q.QualityUnits {
	case QualityRXQUAL, QualityMeanBEP:
		q.Quality = uint8(rxqual)
	case QualityECN0:
		if rxqual != 99 {
			v := 7 + (7-rxqual)*6
			if v > 44 {
				v = 44
			}
			q.Quality = uint8(v)
		} else {
			q.Quality = 255
		}
	case QualityRSRQ:
		if rxqual != 99 {
			q.Quality = uint8(rxqual * 34 / 7)
		} else {
			q.Quality = 255
		}
	}

	switch q.StrengthUnits {
	case StrengthRXLEV:
		if rxlev != 99 {
			q.Strength = uint8(2 * rxlev)
		} else {
			q.Strength = uint8(rxlev)
		}
	case StrengthRSCP:
		switch {
		case rxlev == 99:
			q.Strength = 255
		case q.Quality != 255:
			// Reconstruct RSCP from RSSI and Ec/N0, both in dB*100.
			ecn0 := int64(q.Quality)*50 - 2450
			rssi := -11250 + 500*rxlev/2
			rscp := (rssi + ecn0) / 100
			switch {
			case rscp < -120:
				q.Strength = 0
			case rscp >= -25:
				q.Strength = 96
			default:
				q.Strength = uint8(rscp + 121)
			}
		default:
			// No quality reading; assume a nominal Ec/N0.
			q.Strength = uint8(3 + 2*rxlev)
		}
	case StrengthRSRP:
		if rxlev != 99 {
			q.Strength = uint8(rxlev * 97 / 31)
		} else {
			q.Strength = 255
		}
	}
	return nil
}
