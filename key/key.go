// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package key provides the codec between flat config keys and
// structural key paths.
//
// Two delimiter conventions coexist in a flat key. The nesting
// delimiter ":" joins property names, as in "Database:Host". The
// element delimiter "__" joins a collection to a list index or map
// key and then to the element's own path, as in "Endpoints__0__Url"
// or "Services__api__Timeout". Both conventions may appear in the
// same key.
//
// The codec only decomposes and recomposes strings. Whether a
// segment is structurally valid for a given target type is decided
// by the binder, never here.
package key

import (
	"strconv"
	"strings"
)

const (
	nestDelim    = ":"
	elementDelim = "__"
)

// Segment is a single typed step in a key path.
type Segment interface {
	Key() string
}

// Name represents a property name segment.
type Name string

// Key implements the [Segment] interface.
func (n Name) Key() string {
	return string(n)
}

// Index represents a non-negative list index segment.
type Index int

// Key implements the [Segment] interface.
func (i Index) Key() string {
	return strconv.Itoa(int(i))
}

// MapKey represents a dictionary key segment. Unlike [Name] it is
// always joined with the element delimiter when encoded.
type MapKey string

// Key implements the [Segment] interface.
func (k MapKey) Key() string {
	return string(k)
}

// Chain represents a key path: an ordered sequence of segments.
type Chain []Segment

// Name returns a new Chain with a property name segment appended.
// The receiver is never mutated.
func (c Chain) Name(s string) Chain {
	return c.extend(Name(s))
}

// Index returns a new Chain with a list index segment appended.
// The receiver is never mutated.
func (c Chain) Index(i int) Chain {
	return c.extend(Index(i))
}

// MapKey returns a new Chain with a dictionary key segment appended.
// The receiver is never mutated.
func (c Chain) MapKey(s string) Chain {
	return c.extend(MapKey(s))
}

func (c Chain) extend(s Segment) Chain {
	out := make(Chain, len(c)+1)
	copy(out, c)
	out[len(c)] = s
	return out
}

// Key implements the [Segment] interface. It encodes the chain back
// into a flat key: ":" between adjacent property names, "__" on any
// boundary that touches an index or map key.
func (c Chain) Key() string {
	var sb strings.Builder
	for i, seg := range c {
		if i > 0 {
			if isElement(seg) || isElement(c[i-1]) {
				sb.WriteString(elementDelim)
			} else {
				sb.WriteString(nestDelim)
			}
		}
		sb.WriteString(seg.Key())
	}
	return sb.String()
}

func isElement(s Segment) bool {
	switch s.(type) {
	case Index, MapKey:
		return true
	default:
		return false
	}
}

// Parse decomposes a flat key into a key path. Pieces joined by the
// element delimiter that consist solely of ASCII digits become
// [Index] segments; every other piece becomes a [Name]. Empty pieces
// are dropped.
//
// Parse cannot distinguish a dictionary key from a property name;
// that distinction only exists relative to a target type and is made
// by the binder.
func Parse(flat string) Chain {
	var chain Chain
	for _, part := range strings.Split(flat, nestDelim) {
		for _, piece := range strings.Split(part, elementDelim) {
			if piece == "" {
				continue
			}
			if n, ok := parseIndex(piece); ok {
				chain = append(chain, Index(n))
				continue
			}
			chain = append(chain, Name(piece))
		}
	}
	return chain
}

func parseIndex(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
