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
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// fakeClock is a manual clock for tests: sleeping advances time instantly.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) advance(d time.Duration) { c.sleep(d) }

// setClock swaps the clock everywhere the client keeps one. Test-only; call
// before the first session operation.
func (c *Client) setClock(ck clock) {
	c.clock = ck
	c.power.clock = ck
	c.flow.clock = ck
}

// MockPins is a ModemPins implementation for tests. Pin lines idle high; a
// full low-high pulse on the power or reset line invokes the corresponding
// hook so tests can model the modem's reaction.
type MockPins struct {
	mu     sync.Mutex
	power  bool
	reset  bool
	buffer bool
	good   bool

	// PowerPulses and ResetPulses count completed low-high pulses.
	PowerPulses int
	ResetPulses int

	// OnPowerPulse and OnResetPulse run after a completed pulse, outside the
	// mock's lock.
	OnPowerPulse func(p *MockPins)
	OnResetPulse func(p *MockPins)

	// Err, when set, fails every pin operation.
	Err error
}

// NewMockPins returns pins with both control lines idle high and the modem
// unpowered.
func NewMockPins() *MockPins {
	return &MockPins{power: true, reset: true}
}

// SetPowerGood drives the simulated V_INT input.
func (p *MockPins) SetPowerGood(on bool) {
	p.mu.Lock()
	p.good = on
	p.mu.Unlock()
}

// BufferEnabled reports the state of the simulated UART voltage translator.
func (p *MockPins) BufferEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer
}

func (p *MockPins) SetPower(high bool) error {
	p.mu.Lock()
	if p.Err != nil {
		p.mu.Unlock()
		return p.Err
	}
	pulsed := !p.power && high
	p.power = high
	if pulsed {
		p.PowerPulses++
	}
	fn := p.OnPowerPulse
	p.mu.Unlock()
	if pulsed && fn != nil {
		fn(p)
	}
	return nil
}

func (p *MockPins) SetReset(high bool) error {
	p.mu.Lock()
	if p.Err != nil {
		p.mu.Unlock()
		return p.Err
	}
	pulsed := !p.reset && high
	p.reset = high
	if pulsed {
		p.ResetPulses++
	}
	fn := p.OnResetPulse
	p.mu.Unlock()
	if pulsed && fn != nil {
		fn(p)
	}
	return nil
}

func (p *MockPins) SetBufferEnable(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.buffer = on
	return nil
}

func (p *MockPins) PowerGood() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return false, p.Err
	}
	return p.good, nil
}

// MockSerial is a SerialPort implementation for tests. Reads return EOF; the
// transport traffic itself goes through the mocked command engine.
type MockSerial struct {
	mu       sync.Mutex
	enabled  bool
	baud     int
	discards int

	// BaudHistory records every SetBaudRate call in order.
	BaudHistory []int

	// SetBaudErr, when set, fails SetBaudRate.
	SetBaudErr error
}

func NewMockSerial() *MockSerial {
	return &MockSerial{enabled: true, baud: defaultBaudRate}
}

func (s *MockSerial) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return 0, fmt.Errorf("read: %w", ErrPortDisabled)
	}
	return 0, io.EOF
}

func (s *MockSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return 0, fmt.Errorf("write: %w", ErrPortDisabled)
	}
	return len(p), nil
}

func (s *MockSerial) SetBaudRate(baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetBaudErr != nil {
		return s.SetBaudErr
	}
	s.baud = baud
	s.BaudHistory = append(s.BaudHistory, baud)
	return nil
}

func (s *MockSerial) DiscardInput(time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discards++
	return nil
}

func (s *MockSerial) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

// Enabled reports the state of the enable gate.
func (s *MockSerial) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// BaudRate returns the current line speed.
func (s *MockSerial) BaudRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

// mockChannelWrite is one recorded data-channel write.
type mockChannelWrite struct {
	Channel int
	Data    []byte
}

// MockMuxer is a Muxer implementation for tests.
type MockMuxer struct {
	mu      sync.Mutex
	cfg     MuxerConfig
	handler ChannelStateHandler
	started bool
	opened  map[int]func([]byte) error
	enabled map[int]bool
	writes  []mockChannelWrite

	// Stops counts Stop calls.
	Stops int

	// StartErr, OpenErr and WriteErr fail the corresponding operations.
	StartErr error
	OpenErr  error
	WriteErr error
}

func NewMockMuxer() *MockMuxer {
	return &MockMuxer{
		opened:  make(map[int]func([]byte) error),
		enabled: make(map[int]bool),
	}
}

func (m *MockMuxer) Configure(cfg MuxerConfig) error {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

// ConfigUsed returns the configuration applied by Configure.
func (m *MockMuxer) ConfigUsed() MuxerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *MockMuxer) SetChannelStateHandler(fn ChannelStateHandler) {
	m.mu.Lock()
	m.handler = fn
	m.mu.Unlock()
}

func (m *MockMuxer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.started = true
	return nil
}

func (m *MockMuxer) Stop() error {
	m.mu.Lock()
	m.started = false
	m.Stops++
	m.opened = make(map[int]func([]byte) error)
	m.mu.Unlock()
	return nil
}

// Started reports whether the muxer is running.
func (m *MockMuxer) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *MockMuxer) OpenChannel(channel int, recv func(data []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.opened[channel] = recv
	m.enabled[channel] = true
	return nil
}

// ChannelOpen reports whether a channel was opened and not torn down.
func (m *MockMuxer) ChannelOpen(channel int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.opened[channel]
	return ok
}

func (m *MockMuxer) ResumeChannel(int) error { return nil }

func (m *MockMuxer) WriteChannel(channel int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.writes = append(m.writes, mockChannelWrite{Channel: channel, Data: buf})
	return nil
}

// WrittenBytes totals the payload bytes written to a channel.
func (m *MockMuxer) WrittenBytes(channel int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, w := range m.writes {
		if w.Channel == channel {
			total += len(w.Data)
		}
	}
	return total
}

func (m *MockMuxer) ChannelStream(int) Stream { return NewMockSerial() }

func (m *MockMuxer) SetChannelEnabled(channel int, enabled bool) error {
	m.mu.Lock()
	m.enabled[channel] = enabled
	m.mu.Unlock()
	return nil
}

// ChannelEnabled reports the state of a channel's enable gate.
func (m *MockMuxer) ChannelEnabled(channel int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[channel]
}

// ReportChannelState invokes the installed channel observer, as the real
// muxer would from its own goroutine.
func (m *MockMuxer) ReportChannelState(channel int, oldState, newState ChannelState) {
	m.mu.Lock()
	fn := m.handler
	m.mu.Unlock()
	if fn != nil {
		fn(channel, oldState, newState)
	}
}

// Deliver feeds inbound bytes to a channel's receive callback.
func (m *MockMuxer) Deliver(channel int, data []byte) error {
	m.mu.Lock()
	recv := m.opened[channel]
	m.mu.Unlock()
	if recv == nil {
		return ErrInvalidState
	}
	return recv(data)
}

// mockExchange is one scripted command exchange.
type mockExchange struct {
	cmd     string
	lines   []string
	result  FinalResult
	err     error
	timeout bool
}

// MockEngine is a scripted CommandEngine for tests. Exchanges queued with
// Script are matched by their formatted command text; an unmatched command
// answers OK with an empty body. Body lines of executed commands are routed
// through the registered notification handlers exactly like the real engine
// routes status reports.
type MockEngine struct {
	mu       sync.Mutex
	clock    *fakeClock
	handlers map[string]URCHandler
	script   []mockExchange
	pending  []string
	bound    Stream

	// Commands records every executed or sent command in order.
	Commands []string

	// Resets counts Reset calls, Binds counts Bind calls.
	Resets int
	Binds  int

	// BindErr fails Bind.
	BindErr error

	// FailAll makes every exchange time out, advancing the fake clock by the
	// call timeout. Models an unresponsive modem.
	FailAll bool
}

const mockDefaultTimeout = 10 * time.Second

func NewMockEngine() *MockEngine {
	return &MockEngine{handlers: make(map[string]URCHandler)}
}

// UseClock ties timeout simulation to a manual clock.
func (e *MockEngine) UseClock(ck *fakeClock) { e.clock = ck }

// Script queues one exchange: the exact command text, its final result and
// optional body lines.
func (e *MockEngine) Script(cmd string, result FinalResult, lines ...string) {
	e.mu.Lock()
	e.script = append(e.script, mockExchange{cmd: cmd, result: result, lines: lines})
	e.mu.Unlock()
}

// ScriptErr queues an exchange failing with err.
func (e *MockEngine) ScriptErr(cmd string, err error) {
	e.mu.Lock()
	e.script = append(e.script, mockExchange{cmd: cmd, err: err})
	e.mu.Unlock()
}

// ScriptTimeout queues an exchange that times out.
func (e *MockEngine) ScriptTimeout(cmd string) {
	e.mu.Lock()
	e.script = append(e.script, mockExchange{cmd: cmd, timeout: true})
	e.mu.Unlock()
}

// InjectURC queues an unsolicited line for the next ProcessURC.
func (e *MockEngine) InjectURC(line string) {
	e.mu.Lock()
	e.pending = append(e.pending, line)
	e.mu.Unlock()
}

func (e *MockEngine) Bind(s Stream) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.BindErr != nil {
		return e.BindErr
	}
	e.bound = s
	e.handlers = make(map[string]URCHandler)
	e.Binds++
	return nil
}

func (e *MockEngine) AddURCHandler(prefix string, fn URCHandler) {
	e.mu.Lock()
	e.handlers[prefix] = fn
	e.mu.Unlock()
}

func (e *MockEngine) take(cmd string) mockExchange {
	for i, ex := range e.script {
		if ex.cmd == cmd {
			e.script = append(e.script[:i:i], e.script[i+1:]...)
			return ex
		}
	}
	return mockExchange{cmd: cmd, result: ResultOK}
}

func (e *MockEngine) advance(d time.Duration) {
	if e.clock != nil {
		e.clock.sleep(d)
	}
}

func (e *MockEngine) dispatch(line string) {
	e.mu.Lock()
	var fn URCHandler
	for prefix, h := range e.handlers {
		if strings.HasPrefix(line, prefix) {
			fn = h
			break
		}
	}
	e.mu.Unlock()
	if fn != nil {
		_ = fn(line)
	}
}

func (e *MockEngine) ExecCommand(format string, args ...any) (FinalResult, error) {
	return e.ExecCommandTimeout(mockDefaultTimeout, format, args...)
}

func (e *MockEngine) ExecCommandTimeout(timeout time.Duration, format string, args ...any) (FinalResult, error) {
	cmd := fmt.Sprintf(format, args...)
	e.mu.Lock()
	e.Commands = append(e.Commands, cmd)
	failAll := e.FailAll
	var ex mockExchange
	if !failAll {
		ex = e.take(cmd)
	}
	e.mu.Unlock()
	if failAll || ex.timeout {
		e.advance(timeout)
		return ResultError, fmt.Errorf("%s: %w", cmd, ErrTimeout)
	}
	if ex.err != nil {
		return ResultError, ex.err
	}
	for _, line := range ex.lines {
		e.dispatch(line)
	}
	return ex.result, nil
}

func (e *MockEngine) SendCommand(format string, args ...any) (Response, error) {
	return e.SendCommandTimeout(mockDefaultTimeout, format, args...)
}

func (e *MockEngine) SendCommandTimeout(timeout time.Duration, format string, args ...any) (Response, error) {
	cmd := fmt.Sprintf(format, args...)
	e.mu.Lock()
	e.Commands = append(e.Commands, cmd)
	failAll := e.FailAll
	var ex mockExchange
	if !failAll {
		ex = e.take(cmd)
	}
	e.mu.Unlock()
	if failAll || ex.timeout {
		e.advance(timeout)
		return nil, fmt.Errorf("%s: %w", cmd, ErrTimeout)
	}
	if ex.err != nil {
		return nil, ex.err
	}
	return &mockResponse{lines: ex.lines, result: ex.result}, nil
}

func (e *MockEngine) ProcessURC() error {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	for _, line := range pending {
		e.dispatch(line)
	}
	return nil
}

func (e *MockEngine) Reset() {
	e.mu.Lock()
	e.Resets++
	e.mu.Unlock()
}

// Executed reports whether cmd was executed or sent at any point.
func (e *MockEngine) Executed(cmd string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.Commands {
		if c == cmd {
			return true
		}
	}
	return false
}

type mockResponse struct {
	lines  []string
	result FinalResult
}

func (r *mockResponse) HasNextLine() bool { return len(r.lines) > 0 }

func (r *mockResponse) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", ErrUnexpectedResponse
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *mockResponse) ReadResult() (FinalResult, error) {
	r.lines = nil
	return r.result, nil
}
