// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package bvh

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Channel is a single degree of freedom sampled once per frame.
type Channel int

const (
	XPOSITION Channel = iota
	YPOSITION
	ZPOSITION
	XROTATION
	YROTATION
	ZROTATION
)

var channelNames = [...]string{
	XPOSITION: "Xposition",
	YPOSITION: "Yposition",
	ZPOSITION: "Zposition",
	XROTATION: "Xrotation",
	YROTATION: "Yrotation",
	ZROTATION: "Zrotation",
}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel maps a channel name to its Channel. Matching is exact, case included.
func ParseChannel(name string) (Channel, error) {
	for c, n := range channelNames {
		if n == name {
			return Channel(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnrecognizedChannel, name)
}

// Offset is the position of a joint relative to its parent.
type Offset struct {
	X, Y, Z float64
}

// JointID identifies a joint by its position in Skeleton.Joints.
type JointID int

// NoJoint is the parent of the root joint.
const NoJoint JointID = -1

// EndSiteName is the name given to the leaf joints terminating a limb.
const EndSiteName = "End Site"

// Joint is a node of the skeleton hierarchy.
// A joint owns its children; Parent only refers back into the registry.
type Joint struct {
	Name     string
	Offset   Offset
	Channels []Channel
	Parent   JointID
	Children []*Joint

	// Motion holds one sample per frame, each with len(Channels) values.
	Motion [][]float64

	id      JointID
	endSite bool
}

// ID returns the registration index of j.
func (j *Joint) ID() JointID { return j.id }

// IsEndSite returns whether j is a limb terminator.
func (j *Joint) IsEndSite() bool { return j.endSite }

func (j *Joint) NumChannels() int { return len(j.Channels) }

func (j *Joint) NumFrames() int { return len(j.Motion) }

// Frame returns the values of frame i in channel order.
func (j *Joint) Frame(i int) []float64 {
	if i < 0 || i >= len(j.Motion) {
		return nil
	}
	return j.Motion[i]
}

// ForEach calls f for each descendant of j, node before children.
func (j *Joint) ForEach(f func(*Joint)) {
	for _, c := range j.Children {
		f(c)
		c.ForEach(f)
	}
}

// Skeleton is the result of parsing a motion capture stream. It is allocated by the
// caller and populated by Parser.Parse.
type Skeleton struct {
	Root *Joint
	// Joints lists every joint in registration order. Motion data is laid out in
	// this order, so it must never be re-sorted.
	Joints []*Joint

	FrameCount int
	// FrameTime is the duration of a frame in seconds.
	FrameTime float64
}

// register appends j to the registry and assigns its id.
func (s *Skeleton) register(j *Joint) {
	j.id = JointID(len(s.Joints))
	s.Joints = append(s.Joints, j)
}

// NumChannels returns the number of values in one frame of motion data.
func (s *Skeleton) NumChannels() int {
	n := 0
	for _, j := range s.Joints {
		n += j.NumChannels()
	}
	return n
}

// Joint returns the joint with the given id, or nil.
func (s *Skeleton) Joint(id JointID) *Joint {
	if id < 0 || int(id) >= len(s.Joints) {
		return nil
	}
	return s.Joints[id]
}

// Parent returns the parent of j, or nil for the root.
func (s *Skeleton) Parent(j *Joint) *Joint {
	return s.Joint(j.Parent)
}

// FindJoint returns the first joint named name in registration order.
func (s *Skeleton) FindJoint(name string) *Joint {
	for _, j := range s.Joints {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// Duration returns the length of the motion.
func (s *Skeleton) Duration() time.Duration {
	return MotionDuration(s.FrameCount, s.FrameTime)
}

// MotionDuration returns frames*frameTime seconds, saturated to the range of time.Duration.
func MotionDuration(frames int, frameTime float64) time.Duration {
	d := float64(frames) * frameTime * float64(time.Second)
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(d)
}

// Depth returns the number of joints on the longest root to leaf path.
func (s *Skeleton) Depth() int {
	if s.Root == nil {
		return 0
	}
	var depth func(*Joint) int
	depth = func(j *Joint) int {
		d := 0
		for _, c := range j.Children {
			d = max(d, depth(c))
		}
		return d + 1
	}
	return depth(s.Root)
}

// Validate checks that s is a completely parsed skeleton.
func (s *Skeleton) Validate() error {
	if s.Root == nil {
		return errors.New("skeleton has no root joint")
	}
	if len(s.Joints) == 0 || s.Joints[0] != s.Root {
		return errors.New("root joint is not first in registry")
	}
	if s.Root.Parent != NoJoint {
		return errors.New("root joint has a parent")
	}

	// Walking the tree in pre-order must reproduce the registry.
	i := 0
	var walk func(j *Joint, parent JointID) error
	walk = func(j *Joint, parent JointID) error {
		if i >= len(s.Joints) || s.Joints[i] != j {
			return fmt.Errorf("joint %q is out of registration order", j.Name)
		}
		if j.id != JointID(i) {
			return fmt.Errorf("joint %q has id %d at index %d", j.Name, j.id, i)
		}
		if j.Parent != parent {
			return fmt.Errorf("joint %q has parent %d, want %d", j.Name, j.Parent, parent)
		}
		i++
		for _, c := range j.Children {
			if err := walk(c, j.id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(s.Root, NoJoint); err != nil {
		return err
	}
	if i != len(s.Joints) {
		return fmt.Errorf("registry holds %d joints, tree holds %d", len(s.Joints), i)
	}

	for _, j := range s.Joints {
		if len(j.Motion) != s.FrameCount {
			return fmt.Errorf("joint %q has %d frames, want %d", j.Name, len(j.Motion), s.FrameCount)
		}
		for f, values := range j.Motion {
			if len(values) != len(j.Channels) {
				return fmt.Errorf("joint %q frame %d has %d values, want %d", j.Name, f, len(values), len(j.Channels))
			}
		}
	}
	return nil
}
