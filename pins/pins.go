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

// Package pins drives the modem control lines through periph.io host GPIO.
package pins

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Config names the host GPIO lines wired to the modem.
type Config struct {
	// Power is the PWR_ON output. Idles high, pulses low.
	Power string
	// Reset is the RESET_N output. Idles high, pulses low.
	Reset string
	// BufferEnable is the UART voltage-translator enable output, active low.
	BufferEnable string
	// PowerGood is the V_INT input.
	PowerGood string
}

// Pins is a saracell.ModemPins implementation over periph.io.
type Pins struct {
	power gpio.PinIO
	reset gpio.PinIO
	bufEn gpio.PinIO
	vint  gpio.PinIO
}

// New resolves and initializes the configured lines: control outputs idle
// high, the translator disabled, the power-good line an input.
func New(cfg Config) (*Pins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init gpio host: %w", err)
	}
	p := &Pins{}
	var err error
	if p.power, err = lookup(cfg.Power); err != nil {
		return nil, err
	}
	if p.reset, err = lookup(cfg.Reset); err != nil {
		return nil, err
	}
	if p.bufEn, err = lookup(cfg.BufferEnable); err != nil {
		return nil, err
	}
	if p.vint, err = lookup(cfg.PowerGood); err != nil {
		return nil, err
	}
	if err := p.power.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.Power, err)
	}
	if err := p.reset.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.Reset, err)
	}
	// Active low: high keeps the translator off until the client enables it.
	if err := p.bufEn.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.BufferEnable, err)
	}
	if err := p.vint.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.PowerGood, err)
	}
	return p, nil
}

func lookup(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown gpio %q", name)
	}
	return pin, nil
}

// SetPower drives the PWR_ON line.
func (p *Pins) SetPower(high bool) error {
	return p.power.Out(gpio.Level(high))
}

// SetReset drives the RESET_N line.
func (p *Pins) SetReset(high bool) error {
	return p.reset.Out(gpio.Level(high))
}

// SetBufferEnable switches the UART voltage translator.
func (p *Pins) SetBufferEnable(on bool) error {
	return p.bufEn.Out(gpio.Level(!on))
}

// PowerGood samples the V_INT input.
func (p *Pins) PowerGood() (bool, error) {
	return p.vint.Read() == gpio.High, nil
}
