// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package bvh

import (
	"fmt"
	"log/slog"
)

const maxChannelsHint = 6

func (p *Parser) parseHierarchy() error {
	p.logger.Debug("parsing hierarchy")

	if _, err := p.expect(ROOT, blockHierarchy, ""); err != nil {
		return err
	}
	root, err := p.parseJoint(NoJoint, 1)
	if err != nil {
		return err
	}
	p.sk.Root = root

	p.logger.Debug("hierarchy parsed",
		slog.Int("joints", len(p.sk.Joints)),
		slog.Int("channels", p.sk.NumChannels()),
	)
	return nil
}

// parseJoint parses the body of a ROOT or JOINT block, the keyword being already
// consumed. The joint is registered before its children so the registry is in pre-order.
func (p *Parser) parseJoint(parent JointID, depth int) (*Joint, error) {
	if depth > p.maxDepth {
		return nil, p.fail(ErrLimitExceeded, blockJoint, "", fmt.Sprintf("depth <= %d", p.maxDepth), p.s.Last())
	}

	tok, name, err := p.s.Scan()
	switch {
	case err != nil:
		return nil, p.wrap(err, blockJoint, "")
	case tok == EOF:
		return nil, p.endOfInput(blockJoint, "", "joint name")
	case tok != WORD:
		return nil, p.fail(ErrUnexpectedToken, blockJoint, "", "joint name", name)
	}

	joint := &Joint{Name: name, Parent: parent}

	if _, err := p.expect(LBRACE, blockJoint, name); err != nil {
		return nil, err
	}
	if _, err := p.expect(OFFSET, blockJoint, name); err != nil {
		return nil, err
	}
	if joint.Offset, err = p.parseOffset(name); err != nil {
		return nil, err
	}
	if _, err := p.expect(CHANNELS, blockJoint, name); err != nil {
		return nil, err
	}
	if err := p.parseChannelOrder(joint); err != nil {
		return nil, err
	}

	p.sk.register(joint)
	p.logger.Debug("joint parsed",
		slog.String("name", name),
		slog.Int("id", int(joint.id)),
		slog.Int("channels", joint.NumChannels()),
	)

	for {
		tok, lit, err := p.s.Scan()
		if err != nil {
			return nil, p.wrap(err, blockJoint, name)
		}

		switch tok {
		case JOINT:
			child, err := p.parseJoint(joint.id, depth+1)
			if err != nil {
				return nil, err
			}
			joint.Children = append(joint.Children, child)
		case END:
			child, err := p.parseEndSite(joint)
			if err != nil {
				return nil, err
			}
			joint.Children = append(joint.Children, child)
		case RBRACE:
			return joint, nil
		case EOF:
			// Unterminated joint.
			return nil, p.endOfInput(blockJoint, name, RBRACE.String())
		default:
			return nil, p.fail(ErrUnexpectedToken, blockJoint, name, "JOINT, End Site or }", lit)
		}
	}
}

// parseEndSite parses "Site { OFFSET x y z }", the End keyword being already consumed.
func (p *Parser) parseEndSite(parent *Joint) (*Joint, error) {
	for _, want := range []Token{SITE, LBRACE, OFFSET} {
		if _, err := p.expect(want, blockEndSite, parent.Name); err != nil {
			return nil, err
		}
	}

	leaf := &Joint{Name: EndSiteName, Parent: parent.id, endSite: true}

	var err error
	if leaf.Offset, err = p.parseOffset(parent.Name); err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, blockEndSite, parent.Name); err != nil {
		return nil, err
	}

	p.sk.register(leaf)
	return leaf, nil
}

func (p *Parser) parseOffset(joint string) (Offset, error) {
	var v [3]float64
	for i := range v {
		n, err := p.s.NextNumber()
		if err != nil {
			return Offset{}, p.wrap(err, blockOffset, joint)
		}
		v[i] = n
	}
	return Offset{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseChannelOrder reads the channel count and names of joint. The resulting list is
// the number and order of values the joint takes from every frame.
func (p *Parser) parseChannelOrder(joint *Joint) error {
	n, err := p.s.NextCount()
	if err != nil {
		return p.wrap(err, blockChannels, joint.Name)
	}

	channels := make([]Channel, 0, min(n, maxChannelsHint))
	for range n {
		tok, lit, err := p.s.Scan()
		switch {
		case err != nil:
			return p.wrap(err, blockChannels, joint.Name)
		case tok == EOF:
			return p.endOfInput(blockChannels, joint.Name, "channel name")
		}

		c, err := ParseChannel(lit)
		if err != nil {
			return p.fail(ErrUnrecognizedChannel, blockChannels, joint.Name, "", lit)
		}
		channels = append(channels, c)
	}

	joint.Channels = channels
	return nil
}
