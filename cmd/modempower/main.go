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

// modempower exercises the modem power sequencing standalone: power the
// modem on or off, hard reset it, or report the power-good line. Useful for
// bring-up of a new board before any serial wiring exists.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	saracell "github.com/ZaparooProject/go-saracell"
	"github.com/ZaparooProject/go-saracell/pins"
)

var (
	powerPin = flag.String("power-pin", "GPIO24", "PWR_ON gpio name")
	resetPin = flag.String("reset-pin", "GPIO25", "RESET_N gpio name")
	bufenPin = flag.String("bufen-pin", "GPIO23", "UART buffer enable gpio name")
	vintPin  = flag.String("vint-pin", "GPIO27", "V_INT power-good gpio name")
	family   = flag.String("family", "u201", "modem family: u201 or r410")
	action   = flag.String("action", "status", "one of: status, on, off, reset")
)

func main() {
	flag.Parse()
	defer glog.Flush()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "modempower:", err)
		os.Exit(1)
	}
}

func run() error {
	var fam saracell.Family
	switch *family {
	case "u201":
		fam = saracell.FamilyU201
	case "r410":
		fam = saracell.FamilyR410
	default:
		return fmt.Errorf("unknown family %q", *family)
	}

	p, err := pins.New(pins.Config{
		Power:        *powerPin,
		Reset:        *resetPin,
		BufferEnable: *bufenPin,
		PowerGood:    *vintPin,
	})
	if err != nil {
		return err
	}
	seq := saracell.NewPowerSequencer(p, fam)

	switch *action {
	case "status":
		fmt.Println("power good:", seq.PowerGood())
		return nil
	case "on":
		return seq.PowerOn()
	case "off":
		return seq.PowerOff()
	case "reset":
		return seq.HardReset(false)
	default:
		return fmt.Errorf("unknown action %q", *action)
	}
}
