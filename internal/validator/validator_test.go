package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		valid  bool
		reason string
	}{
		{name: "minimum square", width: 224, height: 224, valid: true},
		{name: "one pixel under minimum", width: 223, height: 224, reason: MsgTooSmall},
		{name: "height under minimum", width: 224, height: 223, reason: MsgTooSmall},
		{name: "maximum square", width: 4096, height: 4096, valid: true},
		{name: "one pixel over maximum", width: 4097, height: 4096, reason: MsgTooLarge},
		{name: "ratio exactly 1.5", width: 336, height: 224, valid: true},
		{name: "ratio exactly 1.5 portrait", width: 224, height: 336, valid: true},
		{name: "ratio just over 1.5", width: 337, height: 224, reason: MsgNotSquarish},
		{name: "ratio just over 1.5 portrait", width: 224, height: 337, reason: MsgNotSquarish},
		{name: "typical scan", width: 512, height: 512, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.width, tt.height)
			assert.Equal(t, tt.valid, got.OK())
			assert.Equal(t, tt.reason, got.Reason())
		})
	}
}

func TestValidateRulePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		reason string
	}{
		// too small and far from square: only the size rule is reported
		{name: "small and elongated", width: 100, height: 1000, reason: MsgTooSmall},
		{name: "tiny", width: 1, height: 1, reason: MsgTooSmall},
		// too large and elongated
		{name: "large and elongated", width: 5000, height: 1000, reason: MsgTooLarge},
		{name: "small side wins over large side", width: 100, height: 5000, reason: MsgTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.width, tt.height)
			assert.False(t, got.OK())
			assert.Equal(t, tt.reason, got.Reason())
		})
	}
}

func TestValidateAcceptsNearSquareRange(t *testing.T) {
	for w := MinSide; w <= MaxSide; w += 97 {
		for h := MinSide; h <= MaxSide; h += 131 {
			long, short := w, h
			if short > long {
				long, short = short, long
			}
			got := Validate(w, h)
			if float64(long)/float64(short) <= MaxAspectRatio {
				assert.True(t, got.OK(), "%dx%d", w, h)
			} else {
				assert.Equal(t, MsgNotSquarish, got.Reason(), "%dx%d", w, h)
			}
		}
	}
}

func TestValidateSmallSideAlwaysReportsMinimum(t *testing.T) {
	for small := 1; small < MinSide; small += 17 {
		for _, other := range []int{MinSide, 300, 1000, MaxSide} {
			assert.Equal(t, MsgTooSmall, Validate(small, other).Reason())
			assert.Equal(t, MsgTooSmall, Validate(other, small).Reason())
		}
	}
}
