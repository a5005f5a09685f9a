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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/ZaparooProject/go-saracell/internal/atscan"
)

type muxEvent int

const (
	// muxEventDataChannelClosed hints that the data channel went down while a
	// session was established; ProcessEvents re-enters Connecting.
	muxEventDataChannelClosed muxEvent = iota
)

const muxEventBuffer = 8

// Client drives a u-blox SARA cellular modem: power sequencing, boot probing,
// one-time initialization, SIM selection, network registration and the muxed
// data channel. The AT command engine and the link multiplexer are external
// collaborators supplied at construction.
//
// All session operations serialize on an internal lock. Disable is the one
// exception: it is lock-free and safe to call from any goroutine to unblock
// an operation in flight.
type Client struct {
	serial SerialPort
	muxer  Muxer
	engine CommandEngine
	pins   ModemPins
	power  *PowerSequencer
	conf   Config
	clock  clock

	state     atomic.Int32
	prevState atomic.Int32
	connState atomic.Int32
	fwVersion atomic.Int32

	muxEvents chan muxEvent
	flow      *flowController

	mu        sync.Mutex
	ready     bool
	parserErr error

	creg  RegistrationState
	cgreg RegistrationState
	cereg RegistrationState

	act     AccessTechnology
	cgi     CellularGlobalIdentity
	netConf NetworkConfig

	regStartTime time.Time
	regCheckTime time.Time
}

// New creates a client over the given collaborators. The modem is left
// untouched; call On to power it up and initialize it.
func New(serial SerialPort, muxer Muxer, engine CommandEngine, pins ModemPins, opts ...Option) (*Client, error) {
	if serial == nil || muxer == nil || engine == nil || pins == nil {
		return nil, fmt.Errorf("missing collaborator: %w", ErrBadData)
	}
	c := &Client{
		serial:    serial,
		muxer:     muxer,
		engine:    engine,
		pins:      pins,
		conf:      defaultConfig(),
		clock:     realClock{},
		muxEvents: make(chan muxEvent, muxEventBuffer),
		act:       ActNone,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.cgi.invalidateLocation()
	c.netConf = c.conf.Network
	c.flow = newFlowController(c.clock)
	c.power = NewPowerSequencer(pins, c.conf.Family,
		WithPowerResetReason(c.conf.LastResetReason),
		WithPowerBootTime(c.conf.BootTime))
	c.power.clock = c.clock
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.conf }

// State returns the current lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

// ConnectionState returns the current network attachment state.
func (c *Client) ConnectionState() ConnectionState {
	return ConnectionState(c.connState.Load())
}

func (c *Client) profile() *familyProfile { return c.conf.Family.profile() }

// On powers the modem up and runs the boot probe and one-time initialization
// if it has not been done yet. Idempotent while the modem is on and ready.
func (c *Client) On() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() == StateDisabled {
		return ErrInvalidState
	}
	if c.State() == StateOn && c.ready {
		return nil
	}
	if err := c.power.PowerOn(); err != nil {
		return err
	}
	return c.waitReady()
}

// Off stops the multiplexer and powers the modem down.
func (c *Client) Off() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offLocked()
}

func (c *Client) offLocked() error {
	if c.State() == StateDisabled {
		return ErrInvalidState
	}
	if err := c.muxer.Stop(); err != nil {
		glog.Warningf("failed to stop muxer: %v", err)
	}
	// The translator comes down even when the modem is already off.
	if err := c.power.SetBufferEnabled(false); err != nil {
		glog.Warningf("failed to disable UART buffer: %v", err)
	}
	err := c.power.PowerOff()
	c.ready = false
	c.setConnState(Disconnected)
	c.setState(StateOff)
	return err
}

// Enable re-enables a disabled client. The underlying streams are re-opened
// and the modem is powered down to restart from a known state.
func (c *Client) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StateDisabled {
		return nil
	}
	c.serial.SetEnabled(true)
	if err := c.muxer.SetChannelEnabled(atChannel, true); err != nil {
		glog.Warningf("failed to re-enable control channel: %v", err)
	}
	c.state.Store(c.prevState.Load())
	return c.offLocked()
}

// Disable administratively disables the client. It deliberately takes no
// locks: the enable gates on the serial port and control channel make any
// command exchange in flight fail fast, unblocking the goroutine holding the
// session. The previous state is restored by Enable.
func (c *Client) Disable() {
	st := c.State()
	if st == StateDisabled {
		return
	}
	c.prevState.Store(int32(st))
	c.state.Store(int32(StateDisabled))
	c.serial.SetEnabled(false)
	if err := c.muxer.SetChannelEnabled(atChannel, false); err != nil {
		glog.Warningf("failed to disable control channel: %v", err)
	}
}

// setState transitions the lifecycle state, suppressed while disabled. A
// transition to StateOff also clears readiness and disconnects.
func (c *Client) setState(s State) {
	if c.State() == StateDisabled {
		return
	}
	if s == StateOff {
		c.ready = false
		c.setConnState(Disconnected)
	}
	if c.State() == s {
		return
	}
	c.state.Store(int32(s))
	glog.V(1).Infof("state changed: %s", s)
	if cb := c.conf.Callbacks.OnStateChange; cb != nil {
		cb(s)
	}
}

// setConnState transitions the attachment state, suppressed while disabled.
// Entering Connected opens the data channel; if that fails the transition is
// demoted to Disconnected. The auth callback fires before the state callback
// and only when Connected actually sticks.
func (c *Client) setConnState(s ConnectionState) {
	if c.State() == StateDisabled {
		return
	}
	if c.ConnectionState() == s {
		return
	}
	glog.V(1).Infof("connection state changed: %s", s)
	c.connState.Store(int32(s))
	if s == Connected {
		if err := c.muxer.OpenChannel(pppChannel, c.onDataChannel); err != nil {
			glog.Errorf("failed to open data channel: %v", err)
			c.ready = false
			c.connState.Store(int32(Disconnected))
			s = Disconnected
		}
	}
	cb := c.conf.Callbacks
	if s == Connected && cb.OnAuth != nil && c.netConf.hasUser() && c.netConf.hasPassword() {
		cb.OnAuth(c.netConf.User, c.netConf.Password)
	}
	if cb.OnConnectionStateChange != nil {
		cb.OnConnectionStateChange(s)
	}
}

func (c *Client) onDataChannel(data []byte) error {
	if cb := c.conf.Callbacks.OnData; cb != nil {
		cb(data)
	}
	return nil
}

// onMuxChannelState observes channel teardown on the muxer goroutine. It must
// not re-enter the session: losing the control channel disables the client
// outright and a data-channel loss is queued as a hint for ProcessEvents.
func (c *Client) onMuxChannelState(channel int, _, newState ChannelState) {
	if newState != ChannelClosed {
		return
	}
	switch channel {
	case 0:
		glog.Error("muxer control channel closed, disabling client")
		c.Disable()
	case pppChannel:
		if c.ConnectionState() == Disconnected {
			return
		}
		select {
		case c.muxEvents <- muxEventDataChannelClosed:
		default:
		}
	}
}

// waitReady probes the modem over the raw serial port and, on first contact,
// runs the one-time initialization up to multiplexed mode. A modem that stays
// silent past the probe budgets is hard reset and left off.
func (c *Client) waitReady() error {
	if c.ready {
		return nil
	}
	if err := c.muxer.Stop(); err != nil {
		glog.Warningf("failed to stop muxer: %v", err)
	}
	if err := c.serial.SetBaudRate(defaultBaudRate); err != nil {
		return err
	}
	if err := c.bindEngine(c.serial); err != nil {
		return err
	}
	if err := c.power.SetBufferEnabled(true); err != nil {
		return err
	}
	if err := c.serial.DiscardInput(inputDiscardWindow); err != nil {
		return err
	}
	c.engine.Reset()
	c.ready = c.waitATResponse(bootProbeTimeout, defaultProbePeriod) == nil
	prof := c.profile()
	if !c.ready && prof.altBootBaud != 0 {
		// Newer firmware lines persist a higher boot baud rate.
		if err := c.serial.SetBaudRate(prof.altBootBaud); err == nil {
			if err := c.serial.DiscardInput(inputDiscardWindow); err != nil {
				return err
			}
			c.engine.Reset()
			c.ready = c.waitATResponse(bootProbeTimeout, defaultProbePeriod) == nil
		}
	}
	if c.ready {
		c.power.notePowerOn(c.clock.now())
		if err := c.serial.DiscardInput(inputDiscardWindow); err != nil {
			return err
		}
		c.engine.Reset()
		c.parserErr = nil
		glog.V(1).Info("modem is responsive")
		if err := c.initReady(); err != nil {
			glog.Errorf("modem initialization failed: %v", err)
			c.ready = false
		}
	}
	if !c.ready {
		glog.Error("no response from the modem, hard resetting")
		if err := c.power.SetBufferEnabled(false); err != nil {
			glog.Warningf("failed to disable UART buffer: %v", err)
		}
		if err := c.power.HardReset(true); err != nil {
			glog.Warningf("hard reset failed: %v", err)
		}
		c.setState(StateOff)
		return ErrInvalidState
	}
	return nil
}

// initReady brings a freshly responsive modem into its operational
// configuration: SIM slot, line speed, flow control, the family's persistent
// settings and finally the multiplexed mode with the control channel bound.
func (c *Client) initReady() error {
	prof := c.profile()
	if err := c.selectSIMCard(); err != nil {
		return err
	}
	// Numeric operator format for all subsequent +COPS reads. The result is
	// ignored: some firmware answers ERROR while deregistered.
	if _, err := c.exec("AT+COPS=3,2"); err != nil {
		return err
	}
	if prof.extendedInit {
		if fw, err := c.appFirmwareVersion(); err == nil {
			c.fwVersion.Store(int32(fw))
			c.power.setMemoryIssue(fw == memoryIssueFirmwareVersion)
			glog.V(1).Infof("application firmware version: %d", fw)
		} else {
			glog.Warningf("failed to query application firmware version: %v", err)
		}
	}
	if err := c.changeBaudRate(prof.runtimeBaud); err != nil {
		return err
	}
	if err := c.serial.DiscardInput(inputDiscardWindow); err != nil {
		return err
	}
	if err := c.waitATResponse(baudSwitchProbeLimit, defaultProbePeriod); err != nil {
		return err
	}
	if err := c.execOK("AT+IFC=2,2"); err != nil {
		return err
	}
	if err := c.waitATResponse(baudSwitchProbeLimit, defaultProbePeriod); err != nil {
		return err
	}
	if prof.extendedInit {
		if err := c.checkOperatorProfile(); err != nil {
			return err
		}
		if err := c.checkRATLock(); err != nil {
			return err
		}
		if err := c.disableEDRX(); err != nil {
			return err
		}
	}
	if err := c.execOK(prof.psmDisableCommand); err != nil {
		return err
	}
	if err := c.execOK("AT+CMUX=0,0,,%d,,,,,", maxMuxerFrameSize); err != nil {
		return err
	}
	if err := c.muxer.Configure(prof.mux); err != nil {
		return err
	}
	c.muxer.SetChannelStateHandler(c.onMuxChannelState)
	if err := c.muxer.Start(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrMuxerStart)
	}
	started := false
	defer func() {
		if !started {
			c.muxer.Stop()
		}
	}()
	if err := c.muxer.OpenChannel(atChannel, nil); err != nil {
		return err
	}
	if err := c.muxer.ResumeChannel(atChannel); err != nil {
		return err
	}
	if err := c.bindEngine(c.muxer.ChannelStream(atChannel)); err != nil {
		return err
	}
	if err := c.waitATResponse(prof.postMuxProbeTimeout, prof.postMuxProbePeriod); err != nil {
		return err
	}
	started = true
	c.setState(StateOn)
	return nil
}

// checkOperatorProfile moves the modem off the software-default operator
// profile onto SIM-based selection. Changing the profile requires a
// deregistered radio and a modem restart to take effect.
func (c *Client) checkOperatorProfile() error {
	resp, err := c.send("AT+UMNOPROF?")
	if err != nil {
		return err
	}
	var current uint64
	seen := false
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		rest, ok := atscan.TrimPrefix(line, "+UMNOPROF:")
		if !ok {
			continue
		}
		if fields := atscan.Fields(rest); len(fields) > 0 {
			if v, ok := atscan.Uint(fields[0]); ok {
				current, seen = v, true
			}
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	if !seen || current != 0 {
		return nil
	}
	glog.V(1).Info("switching to the SIM-select operator profile")
	if err := c.execOK("AT+COPS=2,2"); err != nil {
		return err
	}
	// The modem may restart while answering; the result is not meaningful.
	if resp, err := c.engine.SendCommandTimeout(time.Second, "AT+UMNOPROF=1"); err == nil {
		_, _ = resp.ReadResult()
	}
	prof := c.profile()
	if err := c.execOK(prof.simResetCommand); err != nil {
		return err
	}
	c.clock.sleep(prof.simResetSettle)
	return c.waitATResponse(bootProbeTimeout, defaultProbePeriod)
}

// checkRATLock pins the radio access technology selection to LTE Cat M1. The
// setting is persistent; it is only rewritten when some other technology is
// still enabled.
func (c *Client) checkRATLock() error {
	resp, err := c.send("AT+URAT?")
	if err != nil {
		return err
	}
	needLock := false
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		rest, ok := atscan.TrimPrefix(line, "+URAT:")
		if !ok {
			continue
		}
		for _, f := range atscan.Fields(rest) {
			if v, ok := atscan.Uint(f); ok && v != uint64(ActLTE) {
				needLock = true
			}
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	if !needLock {
		return nil
	}
	glog.V(1).Info("locking the radio access technology to LTE Cat M1")
	if err := c.execOK("AT+COPS=2,2"); err != nil {
		return err
	}
	return c.execOK("AT+URAT=%d", int(ActLTE))
}

// disableEDRX disables eDRX for every access technology it is currently
// enabled on, resetting the per-technology parameters to their defaults.
func (c *Client) disableEDRX() error {
	resp, err := c.send("AT+CEDRXS?")
	if err != nil {
		return err
	}
	var acts []uint64
	for resp.HasNextLine() {
		line, err := resp.ReadLine()
		if err != nil {
			return c.parserError(err)
		}
		rest, ok := atscan.TrimPrefix(line, "+CEDRXS:")
		if !ok {
			continue
		}
		if fields := atscan.Fields(rest); len(fields) > 0 {
			if v, ok := atscan.Uint(fields[0]); ok {
				acts = append(acts, v)
			}
		}
	}
	if err := c.readResultOK(resp); err != nil {
		return err
	}
	for _, act := range acts {
		if err := c.execOK("AT+CEDRXS=3,%d", act); err != nil {
			return err
		}
	}
	return nil
}

// checkReady verifies the session is usable before a command sequence. After
// a recorded parse failure the control channel is probed once; an unresponsive
// channel drops readiness and waitReady re-initializes.
func (c *Client) checkReady() error {
	if c.State() != StateOn {
		return ErrInvalidState
	}
	if c.ready && c.parserErr != nil {
		if err := c.execOKTimeout(time.Second, "AT"); err == nil {
			c.parserErr = nil
		} else {
			c.ready = false
		}
	}
	return c.waitReady()
}

// waitATResponse probes with "AT" until the modem answers OK or the timeout
// budget runs out. Per-attempt timeouts pace the loop; any other engine error
// aborts immediately.
func (c *Client) waitATResponse(timeout, period time.Duration) error {
	start := c.clock.now()
	for {
		r, err := c.engine.ExecCommandTimeout(period, "AT")
		if err == nil && r == ResultOK {
			return nil
		}
		if err != nil && !errors.Is(err, ErrTimeout) {
			return err
		}
		if c.clock.now().Sub(start) >= timeout {
			return fmt.Errorf("no response to AT probe: %w", ErrTimeout)
		}
		if err == nil {
			c.clock.sleep(period)
		}
	}
}

func (c *Client) changeBaudRate(baud int) error {
	if err := c.execOK("AT+IPR=%d", baud); err != nil {
		return err
	}
	return c.serial.SetBaudRate(baud)
}

func (c *Client) bindEngine(s Stream) error {
	if err := c.engine.Bind(s); err != nil {
		return err
	}
	c.installURCHandlers()
	return nil
}

// parserError records a session-level parse or transport failure so that
// checkReady re-probes the control channel before the next sequence.
func (c *Client) parserError(err error) error {
	c.parserErr = err
	return err
}

func (c *Client) exec(format string, args ...any) (FinalResult, error) {
	r, err := c.engine.ExecCommand(format, args...)
	if err != nil {
		return r, c.parserError(err)
	}
	return r, nil
}

func (c *Client) execOK(format string, args ...any) error {
	r, err := c.exec(format, args...)
	if err != nil {
		return err
	}
	if r != ResultOK {
		return fmt.Errorf("%s: %w", r, ErrATNotOK)
	}
	return nil
}

func (c *Client) execOKTimeout(timeout time.Duration, format string, args ...any) error {
	r, err := c.engine.ExecCommandTimeout(timeout, format, args...)
	if err != nil {
		return c.parserError(err)
	}
	if r != ResultOK {
		return fmt.Errorf("%s: %w", r, ErrATNotOK)
	}
	return nil
}

func (c *Client) send(format string, args ...any) (Response, error) {
	resp, err := c.engine.SendCommand(format, args...)
	if err != nil {
		return nil, c.parserError(err)
	}
	return resp, nil
}

func (c *Client) readResultOK(resp Response) error {
	r, err := resp.ReadResult()
	if err != nil {
		return c.parserError(err)
	}
	if r != ResultOK {
		return fmt.Errorf("%s: %w", r, ErrATNotOK)
	}
	return nil
}
