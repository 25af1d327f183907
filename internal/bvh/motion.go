// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package bvh

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// parseMotion reads the MOTION section. It only distributes values by position: each
// joint takes NumChannels values per frame, in registration order.
func (p *Parser) parseMotion() error {
	if _, err := p.expect(MOTION, blockMotion, ""); err != nil {
		return err
	}

	p.logger.Debug("parsing motion")

	if _, err := p.expect(FRAMES, blockMotion, ""); err != nil {
		return err
	}
	frames, err := p.s.NextCount()
	if err != nil {
		return p.wrap(err, blockMotion, "")
	}
	if frames > p.maxFrames {
		return p.fail(ErrLimitExceeded, blockMotion, "", fmt.Sprintf("frames <= %d", p.maxFrames), strconv.Itoa(frames))
	}

	for _, want := range []Token{FRAME, TIME} {
		if _, err := p.expect(want, blockMotion, ""); err != nil {
			return err
		}
	}
	frameTime, err := p.s.NextNumber()
	if err != nil {
		return p.wrap(err, blockMotion, "")
	}

	p.sk.FrameCount = frames
	p.sk.FrameTime = frameTime
	p.logger.Debug("motion header parsed",
		slog.Int("frames", frames),
		slog.Float64("frameTime", frameTime),
	)

	joints := p.sk.Joints
	trace := p.logger.Enabled(context.Background(), slog.LevelDebug)
	sample := make([][]float64, len(joints))

	for i := 0; i < frames; i++ {
		for k, joint := range joints {
			values := make([]float64, joint.NumChannels())
			for c := range values {
				v, err := p.s.NextNumber()
				if err != nil {
					return p.wrap(err, blockFrames, joint.Name)
				}
				values[c] = v
			}
			sample[k] = values
		}

		// Only whole frames are appended.
		for k, joint := range joints {
			joint.Motion = append(joint.Motion, sample[k])
			if trace {
				p.logger.Debug("frame values",
					slog.Int("frame", i),
					slog.String("joint", joint.Name),
					slog.String("values", formatValues(sample[k])),
				)
			}
		}
	}

	if !p.s.AtEnd() {
		p.logger.Warn("ignoring data after last frame", slog.Int("line", p.s.Line()))
	}
	return nil
}

// formatValues renders values as a comma separated list.
func formatValues(values []float64) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
