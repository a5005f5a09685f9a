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
	"io"
	"time"
)

// Stream is the byte stream an AT command engine reads from and writes to.
// Both the raw serial port and a muxed logical channel satisfy it.
type Stream interface {
	io.Reader
	io.Writer
}

// FinalResult is the final result code terminating an AT command exchange.
type FinalResult int

const (
	// ResultOK is the "OK" final result.
	ResultOK FinalResult = iota
	// ResultError is the bare "ERROR" final result.
	ResultError
	// ResultCMEError is a "+CME ERROR: <n>" final result.
	ResultCMEError
	// ResultCMSError is a "+CMS ERROR: <n>" final result.
	ResultCMSError
	// ResultNoCarrier is the "NO CARRIER" final result.
	ResultNoCarrier
	// ResultBusy is the "BUSY" final result.
	ResultBusy
	// ResultNoAnswer is the "NO ANSWER" final result.
	ResultNoAnswer
)

func (r FinalResult) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultError:
		return "ERROR"
	case ResultCMEError:
		return "+CME ERROR"
	case ResultCMSError:
		return "+CMS ERROR"
	case ResultNoCarrier:
		return "NO CARRIER"
	case ResultBusy:
		return "BUSY"
	case ResultNoAnswer:
		return "NO ANSWER"
	default:
		return "unknown"
	}
}

// URCHandler consumes one unsolicited (or command-response) line whose prefix
// matched the handler's registration. Handlers run on the goroutine driving
// the engine, never concurrently with each other. A handler error marks the
// line as mis-parsed; the engine logs and drops it.
type URCHandler func(line string) error

// Response reads the body of a single AT command exchange.
type Response interface {
	// ReadLine returns the next response line with the terminator stripped.
	ReadLine() (string, error)

	// HasNextLine reports whether another body line precedes the final
	// result code.
	HasNextLine() bool

	// ReadResult consumes up to the final result code and returns it.
	ReadResult() (FinalResult, error)
}

// CommandEngine is the AT command/response transaction engine. The engine is
// an external collaborator: this package only defines the contract it must
// satisfy.
//
// The engine must dispatch every response line matching a registered URC
// prefix to its handler, including lines read while a command exchange is in
// flight; some modems answer registration queries through the same layout as
// their unsolicited notifications.
//
// Timeout errors must wrap ErrTimeout.
type CommandEngine interface {
	// Bind attaches the engine to a byte stream, discarding buffered input
	// and all registered URC handlers.
	Bind(s Stream) error

	// AddURCHandler registers a handler for lines starting with prefix.
	AddURCHandler(prefix string, fn URCHandler)

	// ExecCommand sends a formatted command and consumes the response up to
	// the final result code, dispatching URC lines on the way.
	ExecCommand(format string, args ...any) (FinalResult, error)

	// ExecCommandTimeout is ExecCommand with a per-call timeout override.
	ExecCommandTimeout(timeout time.Duration, format string, args ...any) (FinalResult, error)

	// SendCommand sends a formatted command and returns a reader over its
	// response body.
	SendCommand(format string, args ...any) (Response, error)

	// SendCommandTimeout is SendCommand with a per-call timeout override.
	SendCommandTimeout(timeout time.Duration, format string, args ...any) (Response, error)

	// ProcessURC drains and dispatches any pending unsolicited lines.
	ProcessURC() error

	// Reset discards buffered input and any partially read exchange.
	Reset()
}
