// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The yamlkit Authors
// SPDX-License-Identifier: Apache-2.0

// Tag resolution: deriving a specific tag for a node that carries none.
// The composer consults the resolver for every untagged node it builds, and
// the serializer consults it symmetrically to decide which tags can be left
// out of the output without changing what a reader would resolve.

package core

// PathArcKind discriminates the steps of a node path.
type PathArcKind int

const (
	SEQUENCE_ITEM_ARC PathArcKind = iota
	MAPPING_KEY_ARC
	MAPPING_VALUE_ARC
)

// PathArc is one step on the way from the document root to a node: a
// sequence item (with its index), a mapping key, or the value for a scalar
// key (with the key's content).
type PathArc struct {
	Kind  PathArcKind
	Index int    // Item index for SEQUENCE_ITEM_ARC.
	Key   string // Key content for MAPPING_VALUE_ARC, when the key is a scalar.
}

// Resolver derives a specific tag for a node with a nonspecific one.
// kind is the node's variant; path leads from the document root to the
// node; value is the scalar content for scalar nodes; implicit is false
// when the node was quoted or otherwise marked as plain text, which pins
// scalars to the str tag.
type Resolver interface {
	Resolve(kind NodeKind, path []PathArc, value string, implicit bool) (string, error)
}

// StandardResolver implements the standard YAML 1.1 resolution rules for
// the core schema: literal null and bool forms, C strtol-style integers and
// strtod-style floats, with str, seq and map as fallbacks.
type StandardResolver struct{}

func (StandardResolver) Resolve(kind NodeKind, path []PathArc, value string, implicit bool) (string, error) {
	switch kind {
	case SEQUENCE_NODE:
		return SEQ_TAG, nil
	case MAPPING_NODE:
		return MAP_TAG, nil
	case SCALAR_NODE:
		if !implicit {
			return STR_TAG, nil
		}
		return resolveScalar(value), nil
	}
	return "", ResolverError{Problem: "cannot resolve an unknown node kind"}
}

func resolveScalar(value string) string {
	switch value {
	case "", "~", "null", "Null", "NULL":
		return NULL_TAG
	case "yes", "Yes", "YES", "no", "No", "NO",
		"true", "True", "TRUE", "false", "False", "FALSE",
		"on", "On", "ON", "off", "Off", "OFF":
		return BOOL_TAG
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF",
		"-.inf", "-.Inf", "-.INF",
		".nan", ".NaN", ".NAN":
		return FLOAT_TAG
	}
	if isIntLiteral(value) {
		return INT_TAG
	}
	if isFloatLiteral(value) {
		return FLOAT_TAG
	}
	return STR_TAG
}

// isIntLiteral matches what a C-locale strtol with base 0 would consume in
// full: an optional sign, then a hexadecimal, octal or decimal digit run.
func isIntLiteral(s string) bool {
	if len(s) == 0 {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	digits, base := s, 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		digits, base = s[2:], 16
		if len(digits) == 0 {
			return false
		}
	} else if s[0] == '0' {
		// "0" alone is a valid octal zero.
		digits, base = s[1:], 8
	}
	for i := 0; i < len(digits); i++ {
		if !digitInBase(digits[i], base) {
			return false
		}
	}
	return true
}

func digitInBase(c byte, base int) bool {
	switch base {
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
	}
	return c >= '0' && c <= '9'
}

// isFloatLiteral matches what a locale-independent strtod would consume in
// full: an optional sign, a digit run with at most one '.', and an optional
// exponent. The special inf/nan words are handled before this is reached.
func isFloatLiteral(s string) bool {
	if len(s) == 0 {
		return false
	}
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits, dot := 0, false
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits++
			i++
			continue
		}
		if c == '.' && !dot {
			dot = true
			i++
			continue
		}
		break
	}
	if digits == 0 {
		return false
	}
	if i == len(s) {
		// A bare digit run without '.' or exponent was already claimed as
		// an integer; with a dot it is a float.
		return dot
	}
	if s[i] != 'e' && s[i] != 'E' {
		return false
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
