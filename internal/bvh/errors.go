// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package bvh

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by the parser. Every error returned by Parse matches exactly one
// of them with errors.Is.
var (
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrMalformedNumber      = errors.New("malformed number")
	ErrUnrecognizedChannel  = errors.New("unrecognized channel")
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")
	ErrStreamUnavailable    = errors.New("stream unavailable")
	ErrLimitExceeded        = errors.New("parser limit exceeded")
)

// Block names used as location context in errors.
const (
	blockFile      = "file"
	blockHierarchy = "hierarchy"
	blockJoint     = "joint"
	blockEndSite   = "end site"
	blockOffset    = "offset"
	blockChannels  = "channels"
	blockMotion    = "motion"
	blockFrames    = "motion data"
)

// ParseError describes the first structural failure found in a stream.
type ParseError struct {
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Block is the grammar block being parsed, e.g. "joint" or "motion".
	Block string
	// Joint is the name of the joint being parsed, if any.
	Joint    string
	Expected string
	Found    string
	// Line is the 1-based line of the last token read.
	Line int
	// Err is the underlying cause, e.g. a read or strconv error.
	Err error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Block != "" {
		fmt.Fprintf(&b, " in %s", e.Block)
		if e.Joint != "" {
			fmt.Fprintf(&b, " %q", e.Joint)
		}
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	switch {
	case e.Expected != "" && e.Found != "":
		fmt.Fprintf(&b, ": expected %q, found %q", e.Expected, e.Found)
	case e.Expected != "":
		fmt.Fprintf(&b, ": expected %q", e.Expected)
	case e.Found != "":
		fmt.Fprintf(&b, ": found %q", e.Found)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns both the kind and the cause so errors.Is matches either.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a stable identifier for the kind of err, or an empty string when err
// is not a parse error.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnexpectedToken):
		return "UnexpectedToken"
	case errors.Is(err, ErrMalformedNumber):
		return "MalformedNumber"
	case errors.Is(err, ErrUnrecognizedChannel):
		return "UnrecognizedChannel"
	case errors.Is(err, ErrUnexpectedEndOfInput):
		return "UnexpectedEndOfInput"
	case errors.Is(err, ErrStreamUnavailable):
		return "StreamUnavailable"
	case errors.Is(err, ErrLimitExceeded):
		return "LimitExceeded"
	default:
		return ""
	}
}
