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

// Package uart provides the serial transport to the modem, backed by
// go.bug.st/serial.
package uart

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	saracell "github.com/ZaparooProject/go-saracell"
)

const discardReadTimeout = 50 * time.Millisecond

// Port is a saracell.SerialPort over a host serial device. The enable gate is
// lock-free so it can be flipped from any goroutine while reads are blocked.
type Port struct {
	port    serial.Port
	enabled atomic.Bool
}

// New opens the serial device at the given baud rate, 8N1.
func New(device string, baud int) (*Port, error) {
	sp, err := serial.Open(device, mode(baud))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	p := &Port{port: sp}
	p.enabled.Store(true)
	return p, nil
}

func mode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func (p *Port) Read(buf []byte) (int, error) {
	if !p.enabled.Load() {
		return 0, fmt.Errorf("uart read: %w", saracell.ErrPortDisabled)
	}
	return p.port.Read(buf)
}

func (p *Port) Write(buf []byte) (int, error) {
	if !p.enabled.Load() {
		return 0, fmt.Errorf("uart write: %w", saracell.ErrPortDisabled)
	}
	return p.port.Write(buf)
}

// SetBaudRate reconfigures the host-side line speed.
func (p *Port) SetBaudRate(baud int) error {
	if err := p.port.SetMode(mode(baud)); err != nil {
		return fmt.Errorf("set baud rate %d: %w", baud, err)
	}
	return nil
}

// DiscardInput flushes the input buffer and keeps draining inbound bytes for
// the given window, dropping stale boot chatter.
func (p *Port) DiscardInput(window time.Duration) error {
	if err := p.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer: %w", err)
	}
	if err := p.port.SetReadTimeout(discardReadTimeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	defer func() {
		_ = p.port.SetReadTimeout(serial.NoTimeout)
	}()
	buf := make([]byte, 256)
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if _, err := p.port.Read(buf); err != nil {
			return fmt.Errorf("drain input: %w", err)
		}
	}
	return nil
}

// SetEnabled flips the enable gate. Disabling does not close the device;
// blocked reads finish on their own and subsequent calls fail fast.
func (p *Port) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Close closes the underlying device.
func (p *Port) Close() error {
	return p.port.Close()
}
