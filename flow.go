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
	"sync"
	"time"

	"github.com/golang/glog"
)

const (
	flowWindow       = 50 * time.Millisecond
	flowWindowBudget = 512
)

// flowController paces data-channel writes on firmware without usable
// hardware flow control: at most flowWindowBudget bytes per flowWindow.
type flowController struct {
	mu            sync.Mutex
	clock         clock
	windowStart   time.Time
	bytesInWindow int
}

func newFlowController(ck clock) *flowController {
	return &flowController{clock: ck}
}

// admit reports whether another write fits the current pacing window.
func (f *flowController) admit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.clock.now()
	if now.Sub(f.windowStart) >= flowWindow {
		f.windowStart = now
		f.bytesInWindow = 0
	}
	return f.bytesInWindow < flowWindowBudget
}

// note records bytes handed to the muxer. Crossing the budget restarts the
// window so the pacing holds from the moment it filled up.
func (f *flowController) note(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bytesInWindow += n
	if f.bytesInWindow >= flowWindowBudget {
		f.windowStart = f.clock.now()
	}
}

// WriteData writes one block to the data channel. On R4 firmware without
// usable hardware flow control, writes beyond the pacing budget are dropped
// silently; the network stack above retransmits. A rejection by remote flow
// control is a transient non-error. Any other write failure disables the
// client, since the muxer link is no longer trustworthy.
func (c *Client) WriteData(data []byte) error {
	if c.State() != StateOn {
		return ErrInvalidState
	}
	limited := c.conf.Family == FamilyR410 &&
		c.fwVersion.Load() <= noFlowControlFirmwareMax
	if limited && !c.flow.admit() {
		return nil
	}
	err := c.muxer.WriteChannel(pppChannel, data)
	if limited {
		c.flow.note(len(data))
	}
	if err != nil {
		if errors.Is(err, ErrMuxerFlowControl) {
			glog.V(1).Info("remote side flow control")
			return nil
		}
		c.Disable()
		return err
	}
	return nil
}
