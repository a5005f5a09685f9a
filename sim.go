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
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ZaparooProject/go-saracell/internal/atscan"
)

const (
	simReadyAttempts     = 10
	simReadyPollInterval = time.Second
)

// simTarget returns the GPIO mux configuration routing the requested SIM
// slot. The external slot is an output driven low on both families; the
// internal slot is mode 255 on the U2 series and an output driven high on
// the R4 series.
func simTarget(f Family, slot SIMSlot) (mode, value uint64, hasValue bool) {
	if slot == SIMExternal {
		return 0, 0, true
	}
	if f == FamilyR410 {
		return 0, 1, true
	}
	return 255, 0, false
}

// selectSIMCard routes the configured SIM slot through the modem's GPIO mux.
// The persistent pin configuration is read back first and only rewritten when
// it differs; a rewrite requires a SIM functionality reset before the card
// can be polled for readiness.
func (c *Client) selectSIMCard() error {
	wantMode, wantValue, hasValue := simTarget(c.conf.Family, c.conf.SIM)

	resp, err := c.send("AT+UGPIOC?")
	if err != nil {
		return err
	}
	curMode := int64(-1)
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		line = strings.TrimSpace(line)
		// The response opens with a bare "+UGPIOC:" header line.
		line = strings.TrimSpace(strings.TrimPrefix(line, "+UGPIOC:"))
		fields := atscan.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pin, okPin := atscan.Uint(fields[0])
		mode, okMode := atscan.Uint(fields[1])
		if okPin && okMode && pin == simSelectPin {
			curMode = int64(mode)
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}

	needReconfig := curMode != int64(wantMode)
	if !needReconfig && hasValue {
		// The mode matches and is an output; verify the driven level.
		resp, err := c.send("AT+UGPIOR=%d", simSelectPin)
		if err != nil {
			return err
		}
		curValue := int64(-1)
		for resp.HasNextLine() {
			line, err := resp.ReadLine()
			if err != nil {
				return c.parserError(err)
			}
			rest, ok := atscan.TrimPrefix(line, "+UGPIOR:")
			if !ok {
				continue
			}
			fields := atscan.Fields(rest)
			if len(fields) < 2 {
				continue
			}
			if pin, ok := atscan.Uint(fields[0]); ok && pin == simSelectPin {
				if v, ok := atscan.Uint(fields[1]); ok {
					curValue = int64(v)
				}
			}
		}
		if err := c.readResultOK(resp); err != nil {
			return err
		}
		needReconfig = curValue != int64(wantValue)
	}

	if needReconfig {
		glog.V(1).Infof("routing the %s SIM slot", c.conf.SIM)
		if hasValue {
			if err := c.execOK("AT+UGPIOC=%d,%d,%d", simSelectPin, wantMode, wantValue); err != nil {
				return err
			}
		} else {
			if err := c.execOK("AT+UGPIOC=%d,%d", simSelectPin, wantMode); err != nil {
				return err
			}
		}
		prof := c.profile()
		if err := c.execOK(prof.simResetCommand); err != nil {
			return err
		}
		c.clock.sleep(prof.simResetSettle)
		if err := c.waitATResponse(bootProbeTimeout, defaultProbePeriod); err != nil {
			return err
		}
	}

	for i := 0; i < simReadyAttempts; i++ {
		if err := c.checkSIMCard(); err == nil {
			return nil
		}
		c.clock.sleep(simReadyPollInterval)
	}
	glog.Error("SIM card did not become ready")
	return ErrSIMNotReady
}

// checkSIMCard polls the SIM readiness once. A card answering READY is
// additionally asked for its ICCID, which fails until the card is actually
// usable.
func (c *Client) checkSIMCard() error {
	resp, err := c.send("AT+CPIN?")
	if err != nil {
		return err
	}
	ready := false
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		if rest, ok := atscan.TrimPrefix(line, "+CPIN:"); ok && rest == "READY" {
			ready = true
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	if !ready {
		return ErrSIMNotReady
	}
	return c.execOK("AT+CCID")
}
