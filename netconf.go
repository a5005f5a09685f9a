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

import "strings"

// imsiProfile maps an IMSI prefix (MCC+MNC) to a default network profile.
type imsiProfile struct {
	prefix string
	conf   NetworkConfig
}

// Longest prefix wins; entries are checked in order.
var imsiProfiles = []imsiProfile{
	{"310410", NetworkConfig{APN: "broadband"}},             // AT&T
	{"310280", NetworkConfig{APN: "broadband"}},             // AT&T
	{"310030", NetworkConfig{APN: "broadband"}},             // AT&T
	{"310260", NetworkConfig{APN: "fast.t-mobile.com"}},     // T-Mobile US
	{"310240", NetworkConfig{APN: "fast.t-mobile.com"}},     // T-Mobile US
	{"21407", NetworkConfig{APN: "spe.inetd.vodafone.com"}}, // Vodafone ES
	{"20404", NetworkConfig{APN: "office.vodafone.nl"}},     // Vodafone NL
}

// networkConfigForIMSI derives a default network profile from the SIM's IMSI
// prefix. Unknown prefixes yield a zero profile; the modem then falls back to
// the network-assigned default context.
func networkConfigForIMSI(imsi string) NetworkConfig {
	var best imsiProfile
	for _, p := range imsiProfiles {
		if strings.HasPrefix(imsi, p.prefix) && len(p.prefix) > len(best.prefix) {
			best = p
		}
	}
	return best.conf
}
