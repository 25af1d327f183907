// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package bvh

type Token int

const (
	ILLEGAL Token = iota
	EOF

	// Literals.
	WORD

	// Structural.
	LBRACE
	RBRACE

	// Keywords.
	HIERARCHY
	ROOT
	JOINT
	END
	SITE
	OFFSET
	CHANNELS
	MOTION
	FRAMES
	FRAME
	TIME
)

var keywords = map[string]Token{
	"{":         LBRACE,
	"}":         RBRACE,
	"HIERARCHY": HIERARCHY,
	"ROOT":      ROOT,
	"JOINT":     JOINT,
	"End":       END,
	"Site":      SITE,
	"OFFSET":    OFFSET,
	"CHANNELS":  CHANNELS,
	"MOTION":    MOTION,
	"Frames:":   FRAMES,
	"Frame":     FRAME,
	"Time:":     TIME,
}

// String returns the literal spelling of keyword tokens.
func (t Token) String() string {
	switch t {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case WORD:
		return "WORD"
	}
	for lit, tok := range keywords {
		if tok == t {
			return lit
		}
	}
	return "ILLEGAL"
}

func lookup(lit string) Token {
	if tok, ok := keywords[lit]; ok {
		return tok
	}
	return WORD
}

func isWhitespace(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}

func isNewline(ch rune) bool {
	return ch == '\n'
}
