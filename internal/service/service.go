package service

import (
	"context"

	"github.com/ds124wfegd/mri-uploader/internal/controller"
	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/filesource"
	"github.com/ds124wfegd/mri-uploader/internal/uistate"
)

// State is what the upload page currently shows plus where the flow stands.
type State struct {
	View   uistate.ViewState `json:"view"`
	Status controller.Status `json:"status"`
}

type UploadService interface {
	// Pick is the file picker interaction.
	Pick(files entity.FileList) error
	PickPaths(paths ...string) error
	// Drag forwards a drag event to the drop zone.
	Drag(ev filesource.DragEvent) (filesource.Disposition, error)
	Submit() error
	State() State
	// DropZone is shared with other drop surfaces such as a watched folder.
	DropZone() *filesource.DropZone
	Wait(ctx context.Context, cond func(controller.Status) bool) (controller.Status, error)
}

type flowController interface {
	Select(file *entity.CandidateFile) error
	Submit() error
	Status() controller.Status
	Wait(ctx context.Context, cond func(controller.Status) bool) (controller.Status, error)
	Done() <-chan struct{}
}
