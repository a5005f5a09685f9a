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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegReport(t *testing.T) {
	tests := []struct {
		name string
		rest string
		want regReport
		err  bool
	}{
		{
			name: "unsolicited status only",
			rest: "1",
			want: regReport{stat: 1},
		},
		{
			name: "unsolicited with location",
			rest: `5,"1A2B","00C3D4E5"`,
			want: regReport{stat: 5, lac: 0x1A2B, cellID: 0x00C3D4E5, hasLocation: true},
		},
		{
			name: "unsolicited with location and act",
			rest: `1,"1A2B","00C3D4E5",7`,
			want: regReport{stat: 1, lac: 0x1A2B, cellID: 0x00C3D4E5, hasLocation: true, act: ActLTE, hasAct: true},
		},
		{
			name: "read response mode prefix",
			rest: "2,1",
			want: regReport{stat: 1},
		},
		{
			name: "read response with location and act",
			rest: `2,5,"FFFE","0000000A",0`,
			want: regReport{stat: 5, lac: 0xFFFE, cellID: 0x0A, hasLocation: true, act: ActGSM, hasAct: true},
		},
		{
			name: "empty",
			rest: "",
			err:  true,
		},
		{
			name: "garbage status",
			rest: `"x",1`,
			err:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := parseRegReport(tt.rest)
			if tt.err {
				require.ErrorIs(t, err, ErrUnexpectedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rep)
		})
	}
}

func TestRegistrationFromStat(t *testing.T) {
	assert.Equal(t, Registered, registrationFromStat(1))
	assert.Equal(t, Registered, registrationFromStat(5))
	for _, stat := range []uint64{0, 2, 3, 4, 6} {
		assert.Equal(t, NotRegistered, registrationFromStat(stat))
	}
}

func TestRegistrationFlagCombinations(t *testing.T) {
	// Connected requires either both circuit- and packet-switched
	// registration or EPS registration on its own.
	tests := []struct {
		name               string
		creg, cgreg, cereg RegistrationState
		want               ConnectionState
	}{
		{"none", NotRegistered, NotRegistered, NotRegistered, Connecting},
		{"cs only", Registered, NotRegistered, NotRegistered, Connecting},
		{"ps only", NotRegistered, Registered, NotRegistered, Connecting},
		{"eps only", NotRegistered, NotRegistered, Registered, Connected},
		{"cs and ps", Registered, Registered, NotRegistered, Connected},
		{"cs and eps", Registered, NotRegistered, Registered, Connected},
		{"ps and eps", NotRegistered, Registered, Registered, Connected},
		{"all", Registered, Registered, Registered, Connected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRig(t)
			r.powerOn(t)
			r.engine.Script("AT+COPS?", ResultOK, "+COPS: 0")
			require.NoError(t, r.c.Connect())
			require.Equal(t, Connecting, r.c.ConnectionState())

			r.c.mu.Lock()
			r.c.creg, r.c.cgreg, r.c.cereg = tt.creg, tt.cgreg, tt.cereg
			r.c.checkRegistrationState()
			r.c.mu.Unlock()
			assert.Equal(t, tt.want, r.c.ConnectionState())
		})
	}
}

func TestConnectReachesConnected(t *testing.T) {
	var states []ConnectionState
	r := newTestRig(t, WithCallbacks(Callbacks{
		OnConnectionStateChange: func(s ConnectionState) { states = append(states, s) },
	}))
	r.powerOn(t)
	r.connectRegistered(t)

	assert.Equal(t, []ConnectionState{Connecting, Connected}, states)
	assert.True(t, r.muxer.ChannelOpen(pppChannel))
	assert.True(t, r.engine.Executed("AT+CREG=2"))
	assert.True(t, r.engine.Executed("AT+CGREG=2"))
}

func TestConnectR410UsesEPSRegistration(t *testing.T) {
	r := newTestRig(t, WithFamily(FamilyR410))
	r.powerOn(t)
	r.engine.Script("AT+COPS?", ResultOK, "+COPS: 0")
	r.engine.Script("AT+CEREG?", ResultOK, `+CEREG: 2,1,"1A2B","000000C8",8`)

	require.NoError(t, r.c.Connect())
	assert.Equal(t, Connected, r.c.ConnectionState())
	assert.True(t, r.engine.Executed("AT+CEREG=2"))
	assert.False(t, r.engine.Executed("AT+CREG=2"))
}

func TestConnectKicksAutomaticOperatorSelection(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	// Manual selection mode reported; the client must request automatic.
	r.engine.Script("AT+COPS?", ResultOK, "+COPS: 1,2,\"31026\"")
	require.NoError(t, r.c.Connect())

	assert.True(t, r.engine.Executed("AT+COPS=0,2"))
	assert.Equal(t, Connecting, r.c.ConnectionState())
}

func TestConnectConfiguresAPNWithCredentials(t *testing.T) {
	r := newTestRig(t, WithNetwork(NetworkConfig{
		APN: "internet", User: "u", Password: "p",
	}))
	r.powerOn(t)
	r.connectRegistered(t)

	assert.True(t, r.engine.Executed(`AT+CGDCONT=1,"IP","CHAP:internet"`))
	assert.False(t, r.engine.Executed("AT+CIMI"))
}

func TestConnectDerivesAPNFromIMSI(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.engine.Script("AT+CIMI", ResultOK, "310260123456789")
	r.connectRegistered(t)

	assert.True(t, r.engine.Executed(`AT+CGDCONT=1,"IP","fast.t-mobile.com"`))
}

func TestAuthCallbackFiresOnceBeforeConnected(t *testing.T) {
	var order []string
	r := newTestRig(t,
		WithNetwork(NetworkConfig{APN: "internet", User: "u", Password: "p"}),
		WithCallbacks(Callbacks{
			OnAuth: func(user, password string) {
				order = append(order, "auth:"+user+":"+password)
			},
			OnConnectionStateChange: func(s ConnectionState) {
				order = append(order, s.String())
			},
		}))
	r.powerOn(t)
	r.connectRegistered(t)

	assert.Equal(t, []string{"connecting", "auth:u:p", "connected"}, order)
}

func TestUnsolicitedDeregistrationReentersConnecting(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)

	r.engine.InjectURC("+CREG: 0")
	require.NoError(t, r.c.ProcessEvents())
	assert.Equal(t, Connecting, r.c.ConnectionState())
}

func TestDataChannelLossReentersConnecting(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)

	r.muxer.ReportChannelState(pppChannel, ChannelOpened, ChannelClosed)
	assert.Equal(t, Connected, r.c.ConnectionState())

	require.NoError(t, r.c.ProcessEvents())
	assert.Equal(t, Connecting, r.c.ConnectionState())
}

func TestProcessEventsRepollsEveryCheckInterval(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.engine.Script("AT+COPS?", ResultOK, "+COPS: 0")
	require.NoError(t, r.c.Connect())
	require.Equal(t, Connecting, r.c.ConnectionState())

	polls := func() int {
		n := 0
		for _, cmd := range r.engine.Commands {
			if cmd == "AT+CREG?" {
				n++
			}
		}
		return n
	}
	before := polls()

	// Within the check interval: no new query.
	r.clock.advance(5 * time.Second)
	require.NoError(t, r.c.ProcessEvents())
	assert.Equal(t, before, polls())

	r.clock.advance(registrationCheckInterval)
	require.NoError(t, r.c.ProcessEvents())
	assert.Equal(t, before+1, polls())
}

func TestRegistrationWatchdogResetsModemOnce(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.engine.Script("AT+COPS?", ResultOK, "+COPS: 0")
	require.NoError(t, r.c.Connect())
	require.Equal(t, Connecting, r.c.ConnectionState())

	r.clock.advance(defaultRegistrationTimeout)
	require.NoError(t, r.c.ProcessEvents())
	assert.Equal(t, StateOff, r.c.State())
	assert.Equal(t, Disconnected, r.c.ConnectionState())
	assert.False(t, r.c.power.PowerGood())
	assert.GreaterOrEqual(t, r.muxer.Stops, 1)

	// The watchdog fired; the client stays off until powered again.
	assert.ErrorIs(t, r.c.ProcessEvents(), ErrInvalidState)
}

func TestSetRegistrationTimeoutClampsUp(t *testing.T) {
	r := newTestRig(t)
	r.c.SetRegistrationTimeout(time.Minute)
	assert.Equal(t, defaultRegistrationTimeout, r.c.Config().RegistrationTimeout)

	r.c.SetRegistrationTimeout(20 * time.Minute)
	assert.Equal(t, 20*time.Minute, r.c.Config().RegistrationTimeout)
}

func TestDisconnectDeregisters(t *testing.T) {
	r := newTestRig(t)
	r.powerOn(t)
	r.connectRegistered(t)

	require.NoError(t, r.c.Disconnect())
	assert.Equal(t, Disconnected, r.c.ConnectionState())
	assert.True(t, r.engine.Executed("AT+COPS=2,2"))
}
