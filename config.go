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

import "time"

// SIMSlot selects which SIM the modem's GPIO mux routes to the SIM interface.
type SIMSlot int

const (
	// SIMInternal selects the on-board SIM (chip-family-specific encoding).
	SIMInternal SIMSlot = iota
	// SIMExternal selects the external nano SIM slot.
	SIMExternal
)

func (s SIMSlot) String() string {
	if s == SIMExternal {
		return "external"
	}
	return "internal"
}

// ResetReason is the cause of the host's last reset, as reported by the
// platform. It gates the first-power-off settle guard: some modems auto
// power on when they see a rising supply and must be given time to finish
// before the first power-off pulse can be detected.
type ResetReason int

const (
	// ResetReasonUnknown means the platform did not report a reset cause.
	ResetReasonUnknown ResetReason = iota
	// ResetReasonPowerDown means the host lost power.
	ResetReasonPowerDown
	// ResetReasonBrownout means the host reset on a supply brownout.
	ResetReasonBrownout
	// ResetReasonOther covers every deliberate reset cause.
	ResetReasonOther
)

// NetworkConfig is the network profile used to configure the packet data
// context. A zero value means "derive the profile from the SIM identity".
type NetworkConfig struct {
	APN      string
	User     string
	Password string
}

func (n NetworkConfig) hasAPN() bool      { return n.APN != "" }
func (n NetworkConfig) hasUser() bool     { return n.User != "" }
func (n NetworkConfig) hasPassword() bool { return n.Password != "" }

// valid reports whether the profile carries enough to skip the SIM lookup.
func (n NetworkConfig) valid() bool { return n.hasAPN() }

// Callbacks are the notifications the client delivers to its owner. All
// callbacks run synchronously on the goroutine driving the client session,
// except OnData which runs on the muxer's receive goroutine.
type Callbacks struct {
	// OnStateChange fires on every State transition.
	OnStateChange func(state State)

	// OnConnectionStateChange fires on every ConnectionState transition.
	OnConnectionStateChange func(state ConnectionState)

	// OnAuth fires once per transition to Connected, carrying the data
	// channel authentication credentials.
	OnAuth func(user, password string)

	// OnData receives raw inbound data-channel bytes.
	OnData func(data []byte)
}

// Config collects the caller-supplied client configuration. It is immutable
// for the lifetime of the client.
type Config struct {
	Family              Family
	SIM                 SIMSlot
	Network             NetworkConfig
	Callbacks           Callbacks
	RegistrationTimeout time.Duration
	LastResetReason     ResetReason
	BootTime            time.Time
}

func defaultConfig() Config {
	return Config{
		Family:              FamilyU201,
		SIM:                 SIMInternal,
		RegistrationTimeout: defaultRegistrationTimeout,
		BootTime:            time.Now(),
	}
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithFamily selects the modem chip family.
func WithFamily(f Family) Option {
	return func(c *Client) error {
		if _, ok := familyProfiles[f]; !ok {
			return ErrBadData
		}
		c.conf.Family = f
		return nil
	}
}

// WithSIMSlot selects the SIM slot routed by the modem's GPIO mux.
func WithSIMSlot(slot SIMSlot) Option {
	return func(c *Client) error {
		c.conf.SIM = slot
		return nil
	}
}

// WithNetwork supplies the network profile. A zero profile derives the APN
// from the SIM identity at connect time.
func WithNetwork(network NetworkConfig) Option {
	return func(c *Client) error {
		c.conf.Network = network
		return nil
	}
}

// WithCallbacks installs the owner's event and data callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Client) error {
		c.conf.Callbacks = cb
		return nil
	}
}

// WithRegistrationTimeout raises the registration watchdog timeout. Values
// below the 10 minute default are clamped up to it; the timeout can never be
// lowered.
func WithRegistrationTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < defaultRegistrationTimeout {
			d = defaultRegistrationTimeout
		}
		c.conf.RegistrationTimeout = d
		return nil
	}
}

// WithLastResetReason reports the host's last reset cause to the power
// sequencer's first-power-off guard.
func WithLastResetReason(r ResetReason) Option {
	return func(c *Client) error {
		c.conf.LastResetReason = r
		return nil
	}
}

// WithBootTime overrides the host boot timestamp used by the first-power-off
// guard. Defaults to the time the client was constructed.
func WithBootTime(t time.Time) Option {
	return func(c *Client) error {
		c.conf.BootTime = t
		return nil
	}
}
