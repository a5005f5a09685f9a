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

	"github.com/ZaparooProject/go-saracell/internal/atscan"
)

// FirmwareVersionString returns the modem firmware revision identification.
func (c *Client) FirmwareVersionString() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return "", err
	}
	return c.readInfoLine("AT+CGMR")
}

// IMEI returns the modem's serial number (IMEI).
func (c *Client) IMEI() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return "", err
	}
	return c.readInfoLine("AT+CGSN")
}

// ICCID returns the SIM card identity.
func (c *Client) ICCID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return "", err
	}
	resp, err := c.send("AT+CCID")
	if err != nil {
		return "", err
	}
	var iccid string
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return "", c.parserError(err)
		}
		if rest, ok := atscan.TrimPrefix(line, "+CCID:"); ok && atscan.Digits(rest) {
			iccid = rest
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return "", err
	}
	if iccid == "" {
		return "", ErrUnexpectedResponse
	}
	return iccid, nil
}

// readInfoLine runs an identification command whose response body is a single
// free-form line.
func (c *Client) readInfoLine(cmd string) (string, error) {
	resp, err := c.send(cmd)
	if err != nil {
		return "", err
	}
	var value string
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return "", c.parserError(err)
		}
		if line = strings.TrimSpace(line); line != "" && value == "" {
			value = line
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return "", err
	}
	if value == "" {
		return "", ErrUnexpectedResponse
	}
	return value, nil
}

// appFirmwareVersion queries the application firmware version via ATI9 and
// encodes it as major*100+minor. Known layouts:
//
//	"02.05,A16.03"            -> 1603
//	"08.90,A01.13"            -> 113
//	"L0.0.00.00.05.06,A.02.00" -> 200
//	"L0.0.00.00.05.08,A.02.04" -> 204
func (c *Client) appFirmwareVersion() (int, error) {
	resp, err := c.send("ATI9")
	if err != nil {
		return 0, err
	}
	version := 0
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return 0, c.parserError(err)
		}
		_, after, found := strings.Cut(line, ",")
		if !found {
			continue
		}
		parts := strings.Split(strings.TrimLeft(after, "A."), ".")
		if len(parts) < 2 {
			continue
		}
		major, okMajor := atscan.Uint(parts[0])
		minor, okMinor := atscan.Uint(parts[1])
		if okMajor && okMinor {
			version = int(major)*100 + int(minor)
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return 0, err
	}
	if version == 0 {
		return 0, ErrUnexpectedResponse
	}
	return version, nil
}

// GlobalIdentity returns the serving-cell identity. The operator codes come
// from a fresh +COPS read; the location fields are invalidated and refilled
// from the registration status of the current access technology's family, so
// a stale fix from another technology is never returned.
func (c *Client) GlobalIdentity() (CellularGlobalIdentity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero CellularGlobalIdentity
	if c.ConnectionState() == Disconnected {
		return zero, ErrInvalidState
	}
	if err := c.checkReady(); err != nil {
		return zero, err
	}
	var q SignalQuality
	if err := c.queryOperator(&q); err != nil {
		return zero, err
	}
	if q.AccessTechnology == ActNone {
		return zero, ErrInvalidState
	}
	c.act = q.AccessTechnology
	c.cgi.invalidateLocation()
	// Prefer the packet-domain report, fall back to the network report. The
	// engine routes the response bodies through the notification handlers.
	if c.profile().usesEPSRegistration {
		if err := c.execOK("AT+CEREG?"); err != nil {
			return zero, err
		}
	} else {
		if err := c.execOK("AT+CGREG?"); err != nil {
			return zero, err
		}
	}
	if err := c.execOK("AT+CREG?"); err != nil {
		return zero, err
	}
	return c.cgi, nil
}
