// Package uistate renders the submission flow's phase onto a display surface.
package uistate

import (
	"fmt"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
)

const (
	PlaceholderLabel = "Choose a file or drag it here"
	LoadingCaption   = "Analyzing MRI scan…"
)

// Preview is what the previewing phase shows.
type Preview struct {
	FileName   string            `json:"file_name"`
	Dimensions entity.Dimensions `json:"dimensions"`
	Thumbnail  string            `json:"thumbnail,omitempty"`
}

func (p Preview) DimensionsText() string {
	return fmt.Sprintf("Dimensions: %d × %d pixels", p.Dimensions.Width, p.Dimensions.Height)
}

// Renderer is the capability the controller draws through.
type Renderer interface {
	RenderIdle()
	RenderPreview(p Preview)
	RenderError(reason string)
	RenderLoading()
	RenderDone(location string)
}

// Snapshot is everything needed to draw one phase.
type Snapshot struct {
	Phase    entity.Phase
	Preview  Preview
	Reason   string
	Location string
}

// Render draws s on r. It is the only place a phase picks its renderer call.
func Render(r Renderer, s Snapshot) {
	switch s.Phase {
	case entity.PhasePreviewing:
		r.RenderPreview(s.Preview)
	case entity.PhaseErrorShown:
		r.RenderError(s.Reason)
	case entity.PhaseLoading:
		r.RenderLoading()
	case entity.PhaseNavigatedAway:
		r.RenderDone(s.Location)
	default:
		r.RenderIdle()
	}
}

type tee []Renderer

// Tee fans every render call out to all of rs in order.
func Tee(rs ...Renderer) Renderer { return tee(rs) }

func (t tee) RenderIdle() {
	for _, r := range t {
		r.RenderIdle()
	}
}

func (t tee) RenderPreview(p Preview) {
	for _, r := range t {
		r.RenderPreview(p)
	}
}

func (t tee) RenderError(reason string) {
	for _, r := range t {
		r.RenderError(reason)
	}
}

func (t tee) RenderLoading() {
	for _, r := range t {
		r.RenderLoading()
	}
}

func (t tee) RenderDone(location string) {
	for _, r := range t {
		r.RenderDone(location)
	}
}
