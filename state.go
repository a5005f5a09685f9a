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

// State is the coarse lifecycle state of the NCP client. StateDisabled gates
// every operation except Enable/Disable themselves: while disabled, the
// externally visible effects of all other states are suppressed.
type State int32

const (
	// StateOff means the modem is powered down or unresponsive.
	StateOff State = iota
	// StateOn means the modem booted, initialized and accepts commands over
	// the muxed control channel.
	StateOn
	// StateDisabled means the client was administratively disabled; all
	// session-acquiring operations fail fast until Enable is called.
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateOn:
		return "on"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ConnectionState is the network attachment state. Transitions are only valid
// while the client State is StateOn.
type ConnectionState int32

const (
	// Disconnected means no registration attempt is in progress.
	Disconnected ConnectionState = iota
	// Connecting means a registration attempt is in progress and watched by
	// the registration watchdog.
	Connecting
	// Connected means the modem is registered and the data channel is open.
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// RegistrationState tracks one technology family's network registration flag.
type RegistrationState int

const (
	// NotRegistered means the family reported any status other than home or
	// roaming registration.
	NotRegistered RegistrationState = iota
	// Registered means the family reported home (1) or roaming (5) status.
	Registered
)

func (s RegistrationState) String() string {
	if s == Registered {
		return "registered"
	}
	return "not registered"
}
