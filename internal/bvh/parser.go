// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package bvh implements a parser for Biovision Hierarchy motion capture files.
//
// A stream starts with a HIERARCHY section describing a tree of joints, each with an
// offset and an ordered list of channels, followed by a MOTION section holding one line
// of channel values per frame. Motion values are laid out by walking the joints in
// registration order, which is the pre-order of the hierarchy.
package bvh

import (
	"errors"
	"io"
	"log/slog"
)

const (
	// DefaultMaxDepth bounds joint nesting.
	DefaultMaxDepth = 256
	// DefaultMaxFrames bounds the declared frame count. Joints without channels consume
	// no input per frame, so the count alone must be capped.
	DefaultMaxFrames = 1 << 20
)

// Parser reads one skeleton from a stream. It is not safe for concurrent use.
type Parser struct {
	s         *Scanner
	logger    *slog.Logger
	maxDepth  int
	maxFrames int

	// sk is only set during Parse.
	sk *Skeleton
}

func NewParser(r io.Reader) *Parser {
	return &Parser{
		s:         NewScanner(r),
		logger:    slog.New(slog.DiscardHandler),
		maxDepth:  DefaultMaxDepth,
		maxFrames: DefaultMaxFrames,
	}
}

// WithLogger sets the diagnostics sink. Messages are advisory only.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithMaxDepth sets the maximum joint nesting. Values below 1 are ignored.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	if depth > 0 {
		p.maxDepth = depth
	}
	return p
}

// WithMaxFrames sets the maximum declared frame count. Values below 1 are ignored.
func (p *Parser) WithMaxFrames(frames int) *Parser {
	if frames > 0 {
		p.maxFrames = frames
	}
	return p
}

var errSkeletonInUse = errors.New("bvh: skeleton already holds joints")

// Parse reads the hierarchy and motion sections into sk, which must be zero-valued. On
// error sk is partially populated and must be discarded.
func (p *Parser) Parse(sk *Skeleton) error {
	if sk == nil {
		return errors.New("bvh: nil skeleton")
	}
	if len(sk.Joints) > 0 || sk.FrameCount > 0 {
		return errSkeletonInUse
	}
	p.sk = sk
	defer func() { p.sk = nil }()

	if err := p.parse(); err != nil {
		p.logger.Error("failed to parse stream", slog.Any("error", err))
		return err
	}
	p.logger.Debug("successfully parsed stream",
		slog.Int("joints", len(sk.Joints)),
		slog.Int("frames", sk.FrameCount),
	)
	return nil
}

func (p *Parser) parse() error {
	if _, err := p.expect(HIERARCHY, blockFile, ""); err != nil {
		return err
	}
	if err := p.parseHierarchy(); err != nil {
		return err
	}
	return p.parseMotion()
}

// expect reads the next token and checks that it is want.
func (p *Parser) expect(want Token, block, joint string) (string, error) {
	tok, lit, err := p.s.Scan()
	if err != nil {
		return lit, p.wrap(err, block, joint)
	}
	switch tok {
	case want:
		return lit, nil
	case EOF:
		return "", p.endOfInput(block, joint, want.String())
	default:
		return lit, p.fail(ErrUnexpectedToken, block, joint, want.String(), lit)
	}
}

func (p *Parser) fail(kind error, block, joint, expected, found string) *ParseError {
	return &ParseError{
		Kind:     kind,
		Block:    block,
		Joint:    joint,
		Expected: expected,
		Found:    found,
		Line:     p.s.Line(),
	}
}

// endOfInput reports an exhausted stream, naming the last token seen.
func (p *Parser) endOfInput(block, joint, expected string) *ParseError {
	return p.fail(ErrUnexpectedEndOfInput, block, joint, expected, p.s.Last())
}

// wrap adds location context to errors coming from the scanner.
func (p *Parser) wrap(err error, block, joint string) error {
	if errors.Is(err, io.EOF) {
		return p.endOfInput(block, joint, "")
	}
	var pe *ParseError
	if errors.As(err, &pe) && pe.Block == "" {
		pe.Block = block
		pe.Joint = joint
	}
	return err
}
