package entity

import "errors"

const (
	MsgNoFile     = "Please select a file to upload"
	MsgDecode     = "The selected file could not be read as an image"
	MsgSubmission = "Prediction request failed. Please try again."
)

var (
	// Selection errors
	ErrNoFile = errors.New("no file selected")
	ErrDecode = errors.New("image decode failed")

	// Submission errors
	ErrSubmission    = errors.New("prediction request failed")
	ErrNavigatedAway = errors.New("page navigated away")

	ErrUnknownDragEvent = errors.New("unknown drag event")
	ErrSessionKeyAbsent = errors.New("session key not found")
)

// UserMessage maps an error from the pipeline to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFile):
		return MsgNoFile
	case errors.Is(err, ErrDecode):
		return MsgDecode
	default:
		return MsgSubmission
	}
}
