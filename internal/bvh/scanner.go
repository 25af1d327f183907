// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package bvh

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Scanner splits a stream into whitespace-delimited words. It knows nothing about the
// grammar beyond classifying keywords.
type Scanner struct {
	r *bufio.Reader

	line    int
	tokLine int
	last    string

	// err holds the first read error other than io.EOF.
	err error
}

var errNonFinite = errors.New("value is not finite")

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r), line: 1}
}

func (s *Scanner) read() (rune, bool) {
	ch, _, err := s.r.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) && s.err == nil {
			s.err = err
		}
		return 0, false
	}
	if isNewline(ch) {
		s.line++
	}
	return ch, true
}

func (s *Scanner) skipWhitespace() (rune, bool) {
	for {
		ch, ok := s.read()
		if !ok {
			return 0, false
		}
		if !isWhitespace(ch) && !isNewline(ch) {
			return ch, true
		}
	}
}

func (s *Scanner) streamErr() error {
	return &ParseError{Kind: ErrStreamUnavailable, Line: s.tokLine, Err: s.err}
}

// Scan returns the next word and its token class. EOF is returned once the stream is
// exhausted; a failing stream yields an ErrStreamUnavailable error.
func (s *Scanner) Scan() (tok Token, lit string, err error) {
	ch, ok := s.skipWhitespace()
	if !ok {
		if s.err != nil {
			return ILLEGAL, "", s.streamErr()
		}
		return EOF, "", nil
	}
	s.tokLine = s.line

	var buf strings.Builder
	buf.WriteRune(ch)

forLoop:
	for {
		ch, ok := s.read()
		switch {
		case !ok:
			break forLoop
		case isWhitespace(ch), isNewline(ch):
			break forLoop
		default:
			buf.WriteRune(ch)
		}
	}
	if s.err != nil {
		return ILLEGAL, buf.String(), s.streamErr()
	}

	lit = buf.String()
	s.last = lit
	return lookup(lit), lit, nil
}

// NextToken returns the next word, or io.EOF at the end of the stream.
func (s *Scanner) NextToken() (string, error) {
	tok, lit, err := s.Scan()
	if err != nil {
		return "", err
	}
	if tok == EOF {
		return "", io.EOF
	}
	return lit, nil
}

// NextNumber reads the next word as a finite real number.
func (s *Scanner) NextNumber() (float64, error) {
	lit, err := s.NextToken()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, &ParseError{Kind: ErrMalformedNumber, Found: lit, Line: s.tokLine, Err: numErr(err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Kind: ErrMalformedNumber, Found: lit, Line: s.tokLine, Err: errNonFinite}
	}
	return v, nil
}

// NextCount reads the next word as a non-negative integer.
func (s *Scanner) NextCount() (int, error) {
	lit, err := s.NextToken()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(lit)
	if err != nil {
		return 0, &ParseError{Kind: ErrMalformedNumber, Found: lit, Line: s.tokLine, Err: numErr(err)}
	}
	if v < 0 {
		return 0, &ParseError{Kind: ErrMalformedNumber, Found: lit, Line: s.tokLine, Err: errors.New("negative count")}
	}
	return v, nil
}

// AtEnd reports whether only whitespace remains in the stream.
func (s *Scanner) AtEnd() bool {
	if _, ok := s.skipWhitespace(); !ok {
		return true
	}
	// ReadRune was the last call, so UnreadRune cannot fail.
	_ = s.r.UnreadRune()
	return false
}

// Line returns the line of the last word read.
func (s *Scanner) Line() int { return s.tokLine }

// Last returns the last word read.
func (s *Scanner) Last() string { return s.last }

// numErr strips the strconv wrapper, which repeats the offending literal.
func numErr(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}
