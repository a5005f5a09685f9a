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

// Package saracell drives a u-blox SARA cellular network co-processor (NCP)
// attached over a serial link: it sequences the modem's power pins, probes
// and initializes the AT command interface, brings up a GSM 07.10-style
// multiplexer over the same wire, selects and authenticates the SIM, joins
// the cellular network, and hands a data channel to an upstream network
// stack.
//
// The package deliberately does not implement the AT transaction engine, the
// link-layer multiplexer, or the raw serial/GPIO access itself; those are
// collaborators supplied through the CommandEngine, Muxer, SerialPort and
// ModemPins interfaces. Concrete SerialPort and ModemPins implementations for
// real hardware live in the transport/uart and pins subpackages.
//
// Basic usage:
//
//	port, err := uart.New("/dev/ttyS2", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := saracell.New(port, muxer, engine, modemPins,
//	    saracell.WithFamily(saracell.FamilyR410),
//	    saracell.WithNetwork(saracell.NetworkConfig{APN: "internet"}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.On(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    _ = client.ProcessEvents()
//	    time.Sleep(time.Second)
//	}
//
// Concurrency: exactly one exclusive session may drive the client at a time;
// every exported method except Disable acquires the session lock. Disable is
// the cross-goroutine escape valve: it only flips atomic state and the
// serial/channel enable gates, so it can safely preempt a session holder
// blocked inside a transport call.
package saracell
