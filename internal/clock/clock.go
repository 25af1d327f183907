// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package clock lets catalog timestamps and parse timings be driven by a fake clock in tests.
package clock

import (
	"time"

	"github.com/jmhodges/clock"
)

var (
	// TimeNowFn returns the current time. Tests swap it with SetFakeClock.
	TimeNowFn func() time.Time

	// FakeClock is the clock used while the fake is enabled.
	FakeClock clock.FakeClock
)

// SetFakeClock makes Now and Since follow FakeClock.
func SetFakeClock() {
	TimeNowFn = FakeClock.Now
}

// UnsetFakeClock restores the host clock.
func UnsetFakeClock() {
	TimeNowFn = time.Now
}

func Now() time.Time { return TimeNowFn() }

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return TimeNowFn().Sub(t)
}

func init() {
	TimeNowFn = time.Now
	FakeClock = clock.NewFake()
}
