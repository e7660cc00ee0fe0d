package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the threshold above which the catalog gets more room.
	LayoutWideWidth = 160
)

// Pane sizing.
const (
	// MinPaneHeight is the smallest pane height, borders included.
	MinPaneHeight = 5

	// CouponCharLimit caps the coupon text input.
	CouponCharLimit = 32
)

// Timing constants.
const (
	// DefaultClockInterval is how often the header clock advances.
	DefaultClockInterval = time.Second
)
