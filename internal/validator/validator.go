// Package validator holds the sizing rules an image must pass before upload.
package validator

import "github.com/ds124wfegd/mri-uploader/internal/entity"

const (
	MinSide        = 224
	MaxSide        = 4096
	MaxAspectRatio = 1.5

	MsgTooSmall    = "Image dimensions must be at least 224x224 pixels"
	MsgTooLarge    = "Image dimensions cannot exceed 4096x4096 pixels"
	MsgNotSquarish = "Image aspect ratio should be close to 1:1 (square)"
)

// Validate applies the rules in order; the first failing rule is reported.
func Validate(width, height int) entity.ValidationOutcome {
	if width < MinSide || height < MinSide {
		return entity.Invalid(MsgTooSmall)
	}
	if width > MaxSide || height > MaxSide {
		return entity.Invalid(MsgTooLarge)
	}

	long, short := width, height
	if short > long {
		long, short = short, long
	}
	if float64(long)/float64(short) > MaxAspectRatio {
		return entity.Invalid(MsgNotSquarish)
	}
	return entity.Valid()
}

func ValidateDimensions(d entity.Dimensions) entity.ValidationOutcome {
	return Validate(d.Width, d.Height)
}
