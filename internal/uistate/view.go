package uistate

import (
	"sync"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
)

// LoadingIndicator is created on first use and reused afterwards.
type LoadingIndicator struct {
	Caption string `json:"caption"`
	Visible bool   `json:"visible"`
}

// ViewState is a copy of the view's elements.
type ViewState struct {
	Phase          entity.Phase      `json:"phase"`
	Label          string            `json:"label"`
	LabelError     bool              `json:"label_error"`
	UploadError    bool              `json:"upload_error"`
	ErrorVisible   bool              `json:"error_visible"`
	ErrorMessage   string            `json:"error_message"`
	PreviewVisible bool              `json:"preview_visible"`
	Thumbnail      string            `json:"thumbnail,omitempty"`
	DimensionsText string            `json:"dimensions_text"`
	SubmitDisabled bool              `json:"submit_disabled"`
	Highlighted    bool              `json:"highlighted"`
	Indicator      *LoadingIndicator `json:"indicator,omitempty"`
	Location       string            `json:"location,omitempty"`
}

// View models the upload page elements the flow binds to.
type View struct {
	mu    sync.RWMutex
	state ViewState

	indicatorsCreated int
}

func NewView() *View {
	return &View{state: ViewState{Phase: entity.PhaseIdle, Label: PlaceholderLabel}}
}

func (v *View) RenderIdle() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leaveLoading()
	v.state.Phase = entity.PhaseIdle
}

func (v *View) RenderPreview(p Preview) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leaveLoading()
	v.clearError()
	v.state.Phase = entity.PhasePreviewing
	v.state.Thumbnail = p.Thumbnail
	v.state.PreviewVisible = true
	v.state.Label = p.FileName
	v.state.DimensionsText = p.DimensionsText()
}

func (v *View) RenderError(reason string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leaveLoading()
	v.state.Phase = entity.PhaseErrorShown
	v.state.UploadError = true
	v.state.LabelError = true
	v.state.ErrorVisible = true
	v.state.ErrorMessage = reason
	v.state.Label = PlaceholderLabel
	v.state.PreviewVisible = false
}

func (v *View) RenderLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Phase = entity.PhaseLoading
	v.state.SubmitDisabled = true
	if v.state.Indicator == nil {
		v.state.Indicator = &LoadingIndicator{Caption: LoadingCaption}
		v.indicatorsCreated++
	}
	v.state.Indicator.Visible = true
}

func (v *View) RenderDone(location string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leaveLoading()
	v.state.Phase = entity.PhaseNavigatedAway
	v.state.Location = location
}

// SetHighlight mirrors the drop zone highlight.
func (v *View) SetHighlight(on bool) {
	v.mu.Lock()
	v.state.Highlighted = on
	v.mu.Unlock()
}

func (v *View) State() ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := v.state
	if s.Indicator != nil {
		ind := *s.Indicator
		s.Indicator = &ind
	}
	return s
}

// IndicatorsCreated reports how many loading indicators were ever built.
func (v *View) IndicatorsCreated() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.indicatorsCreated
}

func (v *View) leaveLoading() {
	v.state.SubmitDisabled = false
	if v.state.Indicator != nil {
		v.state.Indicator.Visible = false
	}
}

func (v *View) clearError() {
	v.state.UploadError = false
	v.state.LabelError = false
	v.state.ErrorVisible = false
}
