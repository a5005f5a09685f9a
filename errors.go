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

import "errors"

// Sentinel errors returned by the client and its collaborators. Callers are
// expected to match these with errors.Is; collaborator implementations should
// wrap the relevant sentinel so that matching keeps working across layers.
var (
	// ErrInvalidState indicates an operation was attempted in a state that
	// does not permit it (client disabled, modem not powered, ...).
	ErrInvalidState = errors.New("invalid state")

	// ErrTimeout indicates a command or probe did not complete in time.
	// CommandEngine implementations must wrap this sentinel in their
	// command-timeout errors.
	ErrTimeout = errors.New("operation timeout")

	// ErrATNotOK indicates the modem answered a command with a final result
	// other than OK.
	ErrATNotOK = errors.New("AT command not OK")

	// ErrUnexpectedResponse indicates a response line did not match any of
	// the layouts the command is known to produce.
	ErrUnexpectedResponse = errors.New("unexpected AT response")

	// ErrBadData indicates a response parsed but carried values outside the
	// documented range (unknown access technology, malformed operator code).
	ErrBadData = errors.New("bad data in AT response")

	// ErrSIMNotReady indicates the SIM card did not report READY within the
	// readiness polling budget. Transient; a later attempt may succeed.
	ErrSIMNotReady = errors.New("SIM not ready")

	// ErrMuxerFlowControl is the sentinel a Muxer implementation must wrap
	// when a channel write is rejected by remote flow control. The client
	// treats it as a transient non-error on the data path.
	ErrMuxerFlowControl = errors.New("muxer flow control")

	// ErrMuxerStart indicates the multiplexer start handshake failed.
	ErrMuxerStart = errors.New("muxer start failed")

	// ErrPortDisabled is returned by stream implementations once their
	// enable gate has been flipped off by Disable.
	ErrPortDisabled = errors.New("port disabled")
)
