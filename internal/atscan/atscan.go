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

// Package atscan provides small scanning helpers for AT response lines:
// prefix matching, comma-separated field splitting and the numeric field
// encodings (decimal, quoted hexadecimal, quoted fixed-point) the u-blox
// responses use.
package atscan

import (
	"strconv"
	"strings"
)

// TrimPrefix matches line against an AT information prefix ("+CREG:") and
// returns the remainder with surrounding spaces stripped.
func TrimPrefix(line, prefix string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}

// Fields splits a response remainder on commas, trimming spaces around each
// field. Empty fields are preserved so positional layouts stay aligned.
func Fields(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Uint parses a plain decimal unsigned field.
func Uint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int parses a plain decimal signed field.
func Int(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Unquote strips one pair of surrounding double quotes.
func Unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// QuotedHex parses a quoted hexadecimal field ("1A2B") as used by the
// location-area and cell-id fields of the registration notifications.
func QuotedHex(s string) (uint64, bool) {
	inner, ok := Unquote(s)
	if !ok || inner == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(inner, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// QuotedFixedPoint parses a quoted fixed-point field ("-14.20") into its
// integer part and fraction digits, as reported by the extended signal
// metrics. The fraction is returned as the raw digit value (20 for ".20").
func QuotedFixedPoint(s string) (int64, uint64, bool) {
	inner, ok := Unquote(s)
	if !ok {
		return 0, 0, false
	}
	intPart, fracPart, found := strings.Cut(inner, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if !found {
		return n, 0, true
	}
	f, err := strconv.ParseUint(fracPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return n, f, true
}

// Digits reports whether s is non-empty and consists only of ASCII digits.
func Digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
