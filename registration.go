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

// Automatic operator selection can take minutes on a cold cell search.
const operatorSelectTimeout = 5 * time.Minute

// regReport is one parsed +CREG/+CGREG/+CEREG line. The same layout serves
// both the unsolicited notification and the body of a read command; the modem
// answers read commands with an extra leading <n> mode field.
type regReport struct {
	stat        uint64
	lac         uint64
	cellID      uint64
	hasLocation bool
	act         AccessTechnology
	hasAct      bool
}

// parseRegReport scans the remainder after the report prefix. When the first
// two fields are both plain decimals the line carries the read-command mode
// prefix and the status is the second field; in the unsolicited layout the
// status comes first and the second field, if any, is the quoted area code.
func parseRegReport(rest string) (regReport, error) {
	fields := atscan.Fields(rest)
	if len(fields) == 0 {
		return regReport{}, ErrUnexpectedResponse
	}
	idx := 0
	if len(fields) >= 2 {
		_, ok0 := atscan.Uint(fields[0])
		_, ok1 := atscan.Uint(fields[1])
		if ok0 && ok1 {
			idx = 1
		}
	}
	var rep regReport
	stat, ok := atscan.Uint(fields[idx])
	if !ok {
		return regReport{}, ErrUnexpectedResponse
	}
	rep.stat = stat
	idx++
	if len(fields) >= idx+2 {
		lac, okLac := atscan.QuotedHex(fields[idx])
		ci, okCell := atscan.QuotedHex(fields[idx+1])
		if okLac && okCell {
			rep.lac = lac
			rep.cellID = ci
			rep.hasLocation = true
			idx += 2
			if len(fields) > idx {
				if a, ok := atscan.Int(fields[idx]); ok {
					rep.act = AccessTechnology(a)
					rep.hasAct = true
				}
			}
		}
	}
	return rep, nil
}

func registrationFromStat(stat uint64) RegistrationState {
	// 1: registered home, 5: registered roaming.
	if stat == 1 || stat == 5 {
		return Registered
	}
	return NotRegistered
}

func (c *Client) installURCHandlers() {
	c.engine.AddURCHandler("+CREG:", c.handleCREG)
	c.engine.AddURCHandler("+CGREG:", c.handleCGREG)
	c.engine.AddURCHandler("+CEREG:", c.handleCEREG)
}

func (c *Client) handleCREG(line string) error {
	rest, ok := atscan.TrimPrefix(line, "+CREG:")
	if !ok {
		return ErrUnexpectedResponse
	}
	rep, err := parseRegReport(rest)
	if err != nil {
		return err
	}
	c.creg = registrationFromStat(rep.stat)
	c.checkRegistrationState()
	c.updateLocation(rep, AccessTechnology.isGERANUTRAN)
	return nil
}

func (c *Client) handleCGREG(line string) error {
	rest, ok := atscan.TrimPrefix(line, "+CGREG:")
	if !ok {
		return ErrUnexpectedResponse
	}
	rep, err := parseRegReport(rest)
	if err != nil {
		return err
	}
	c.cgreg = registrationFromStat(rep.stat)
	c.checkRegistrationState()
	c.updateLocation(rep, AccessTechnology.isGERANUTRAN)
	return nil
}

func (c *Client) handleCEREG(line string) error {
	rest, ok := atscan.TrimPrefix(line, "+CEREG:")
	if !ok {
		return ErrUnexpectedResponse
	}
	rep, err := parseRegReport(rest)
	if err != nil {
		return err
	}
	c.cereg = registrationFromStat(rep.stat)
	c.checkRegistrationState()
	c.updateLocation(rep, AccessTechnology.isEUTRAN)
	return nil
}

// updateLocation fills the serving-cell location from a report. Location
// fields only move from unset to set; they are invalidated as a pair when a
// fresh fix is wanted. A report is ignored when the effective access
// technology is known and does not belong to the report family, so a stale 2G
// area code cannot overwrite an LTE tracking area or vice versa. A technology
// named in the report applies to that report only; the cached one is refreshed
// from the operator query alone.
func (c *Client) updateLocation(rep regReport, inFamily func(AccessTechnology) bool) {
	act := c.act
	if rep.hasAct && rep.act.known() {
		act = rep.act
	}
	if !rep.hasLocation || !c.cgi.locationUnset() {
		return
	}
	if act != ActNone && !inFamily(act) {
		return
	}
	c.cgi.LocationAreaCode = uint16(rep.lac)
	c.cgi.CellID = uint32(rep.cellID)
}

// checkRegistrationState folds the per-family registration flags into the
// connection state. 2G/3G needs both network and GPRS registration; EPS
// registration stands alone.
func (c *Client) checkRegistrationState() {
	if c.ConnectionState() == Disconnected {
		return
	}
	registered := (c.creg == Registered && c.cgreg == Registered) || c.cereg == Registered
	if registered {
		if c.power.memoryIssuePresent() && c.ConnectionState() != Connected {
			c.power.noteRegistered(c.clock.now())
		}
		c.setConnState(Connected)
	} else if c.ConnectionState() == Connected {
		c.setConnState(Connecting)
		now := c.clock.now()
		c.regStartTime = now
		c.regCheckTime = now
		c.power.clearRegistered()
	}
}

func (c *Client) resetRegistrationState() {
	c.creg = NotRegistered
	c.cgreg = NotRegistered
	c.cereg = NotRegistered
	now := c.clock.now()
	c.regStartTime = now
	c.regCheckTime = now
}

// Connect configures the packet data context and starts a registration
// attempt. The attempt completes asynchronously: the caller drives it by
// polling ProcessEvents until the connection state reaches Connected.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectionState() != Disconnected {
		return ErrInvalidState
	}
	if err := c.checkReady(); err != nil {
		return err
	}
	c.resetRegistrationState()
	if err := c.configureAPN(); err != nil {
		return err
	}
	if err := c.registerNet(); err != nil {
		return err
	}
	c.checkRegistrationState()
	return nil
}

// Disconnect deregisters from the network. Idempotent while disconnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() == StateDisabled {
		return ErrInvalidState
	}
	if c.ConnectionState() == Disconnected {
		return nil
	}
	if err := c.checkReady(); err != nil {
		return err
	}
	// Result ignored: deregistering while already detached answers ERROR.
	if _, err := c.exec("AT+COPS=2,2"); err != nil {
		return err
	}
	c.resetRegistrationState()
	c.setConnState(Disconnected)
	return nil
}

// registerNet enables registration notifications, kicks automatic operator
// selection if needed and seeds the watchdog timers.
func (c *Client) registerNet() error {
	prof := c.profile()
	if prof.usesEPSRegistration {
		if err := c.execOK("AT+CEREG=2"); err != nil {
			return err
		}
	} else {
		if err := c.execOK("AT+CREG=2"); err != nil {
			return err
		}
		if err := c.execOK("AT+CGREG=2"); err != nil {
			return err
		}
	}
	c.setConnState(Connecting)
	c.power.clearRegistered()

	resp, err := c.send("AT+COPS?")
	if err != nil {
		return err
	}
	mode := int64(-1)
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		rest, ok := atscan.TrimPrefix(line, "+COPS:")
		if !ok {
			continue
		}
		if fields := atscan.Fields(rest); len(fields) > 0 {
			if v, ok := atscan.Int(fields[0]); ok {
				mode = v
			}
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	if mode != 0 {
		// Not in automatic selection mode. The result is ignored: the
		// registration state is tracked through the notifications.
		if _, err := c.engine.ExecCommandTimeout(operatorSelectTimeout, "AT+COPS=0,2"); err != nil {
			return c.parserError(err)
		}
	}
	// Query the current status once; the engine routes the response bodies
	// through the notification handlers.
	if prof.usesEPSRegistration {
		if err := c.execOK("AT+CEREG?"); err != nil {
			return err
		}
	} else {
		if err := c.execOK("AT+CREG?"); err != nil {
			return err
		}
		if err := c.execOK("AT+CGREG?"); err != nil {
			return err
		}
	}
	now := c.clock.now()
	c.regStartTime = now
	c.regCheckTime = now
	return nil
}

// configureAPN writes the packet data context. An empty caller profile is
// derived from the SIM's IMSI prefix; credentials select CHAP authentication
// through the context string.
func (c *Client) configureAPN() error {
	c.netConf = c.conf.Network
	if !c.netConf.valid() {
		resp, err := c.send("AT+CIMI")
		if err != nil {
			return err
		}
		var imsi string
		for resp.HasNextLine() {
			line, err := resp.ReadLine()
			if err != nil {
				return c.parserError(err)
			}
			line = strings.TrimSpace(line)
			if atscan.Digits(line) {
				imsi = line
			}
		}
		if err := c.readResultOK(resp); err != nil {
			return err
		}
		c.netConf = networkConfigForIMSI(imsi)
	}
	auth := ""
	if c.netConf.hasUser() && c.netConf.hasPassword() {
		auth = "CHAP:"
	}
	return c.execOK("AT+CGDCONT=1,\"IP\",\"%s%s\"", auth, c.netConf.APN)
}

// SetRegistrationTimeout raises the registration watchdog timeout at runtime.
// Values below the default are clamped up to it.
func (c *Client) SetRegistrationTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < defaultRegistrationTimeout {
		d = defaultRegistrationTimeout
	}
	c.conf.RegistrationTimeout = d
}

// ProcessEvents drains pending notifications and drives the registration
// watchdog. The owner calls it periodically; while Connecting it re-polls the
// registration status every 15 seconds and resets the modem once the
// watchdog timeout elapses without a registration.
func (c *Client) ProcessEvents() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processEvents()
}

func (c *Client) processEvents() error {
	if c.State() != StateOn {
		return ErrInvalidState
	}
	c.drainMuxEvents()
	if err := c.engine.ProcessURC(); err != nil {
		glog.Warningf("failed to process pending notifications: %v", err)
	}
	c.checkRegistrationState()
	if c.ConnectionState() != Connecting {
		return nil
	}
	prof := c.profile()
	if c.clock.now().Sub(c.regCheckTime) >= registrationCheckInterval {
		defer func() { c.regCheckTime = c.clock.now() }()
		if prof.usesEPSRegistration {
			if err := c.execOK("AT+CEREG?"); err != nil {
				return err
			}
		} else {
			if err := c.execOK("AT+CREG?"); err != nil {
				return err
			}
			if err := c.execOK("AT+CGREG?"); err != nil {
				return err
			}
		}
	}
	if c.ConnectionState() == Connecting &&
		c.clock.now().Sub(c.regStartTime) >= c.conf.RegistrationTimeout {
		glog.Warning("resetting the modem due to the network registration timeout")
		if err := c.muxer.Stop(); err != nil {
			glog.Warningf("failed to stop muxer: %v", err)
		}
		if err := c.power.PowerOff(); err != nil {
			if err := c.power.HardReset(true); err != nil {
				glog.Errorf("hard reset failed: %v", err)
			}
		}
		c.setState(StateOff)
	}
	return nil
}

// drainMuxEvents applies hints queued by the muxer observer. A data-channel
// loss while connected re-enters the registration wait with fresh timers.
func (c *Client) drainMuxEvents() {
	for {
		select {
		case ev := <-c.muxEvents:
			if ev == muxEventDataChannelClosed && c.ConnectionState() == Connected {
				glog.Warning("data channel closed, re-entering the registration wait")
				c.setConnState(Connecting)
				c.resetRegistrationState()
				c.power.clearRegistered()
			}
		default:
			return
		}
	}
}
