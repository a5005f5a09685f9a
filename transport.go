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

// SerialPort is the raw serial stream to the modem. See transport/uart for a
// go.bug.st/serial backed implementation.
type SerialPort interface {
	Stream

	// SetBaudRate reconfigures the host-side line speed.
	SetBaudRate(baud int) error

	// DiscardInput reads and drops inbound bytes for the given window,
	// flushing stale boot chatter before a probe.
	DiscardInput(window time.Duration) error

	// SetEnabled flips the enable gate. While disabled, subsequent Read and
	// Write calls must fail fast with an error wrapping ErrPortDisabled.
	// Must not block; it is called from Disable on a foreign goroutine.
	SetEnabled(enabled bool)
}

// ChannelState is the lifecycle state of one muxer logical channel.
type ChannelState int

const (
	// ChannelClosed means the channel is down.
	ChannelClosed ChannelState = iota
	// ChannelOpened means the channel is established and passing data.
	ChannelOpened
)

// ChannelStateHandler observes logical channel transitions. It executes on
// the muxer's own goroutine: implementations must not block and must not
// re-enter the client session.
type ChannelStateHandler func(channel int, oldState, newState ChannelState)

// MuxerConfig tunes the multiplexer per chip family before Start.
type MuxerConfig struct {
	MaxFrameSize           int
	KeepAlivePeriod        time.Duration
	KeepAliveMaxMissed     int
	MSCKeepAlive           bool
	MaxRetransmissions     int
	AckTimeout             time.Duration
	ControlResponseTimeout time.Duration
}

// Muxer is the link-layer multiplexer producing reliable logical channels
// over the serial stream. This package only configures and observes it.
//
// WriteChannel must wrap ErrMuxerFlowControl when a write is rejected by
// remote flow control; the client treats that as a transient non-error.
type Muxer interface {
	// Configure applies tuning parameters. Must be called before Start.
	Configure(cfg MuxerConfig) error

	// SetChannelStateHandler installs the channel observer.
	SetChannelStateHandler(fn ChannelStateHandler)

	// Start runs the multiplexer start handshake as initiator (blocking,
	// bounded by the muxer's internal contract).
	Start() error

	// Stop tears the multiplexer down and closes all channels. Idempotent.
	Stop() error

	// OpenChannel establishes a logical channel. When recv is non-nil,
	// inbound channel data is delivered to it on the muxer's goroutine;
	// when nil, data is buffered for ChannelStream readers.
	OpenChannel(channel int, recv func(data []byte) error) error

	// ResumeChannel re-enables flow on a previously throttled channel.
	ResumeChannel(channel int) error

	// WriteChannel writes data to an open channel.
	WriteChannel(channel int, data []byte) error

	// ChannelStream returns the byte-stream view of an open channel.
	ChannelStream(channel int) Stream

	// SetChannelEnabled flips a channel's enable gate; while disabled, the
	// channel stream fails fast. Must not block (called from Disable).
	SetChannelEnabled(channel int, enabled bool) error
}

// ModemPins is the pin-level HAL for the modem control lines: power toggle,
// reset, UART voltage-translator buffer enable and the power-good input. See
// the pins subpackage for a periph.io backed implementation.
type ModemPins interface {
	// SetPower drives the PWR_ON line. The line idles high; pulses are low.
	SetPower(high bool) error

	// SetReset drives the RESET_N line. The line idles high.
	SetReset(high bool) error

	// SetBufferEnable enables or disables the UART voltage translator.
	SetBufferEnable(on bool) error

	// PowerGood samples the V_INT power-good input.
	PowerGood() (bool, error)
}
