package service

import (
	"context"

	"github.com/ds124wfegd/mri-uploader/internal/controller"
	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/filesource"
	"github.com/ds124wfegd/mri-uploader/internal/uistate"
	"github.com/sirupsen/logrus"
)

type uploadService struct {
	ctrl   flowController
	view   *uistate.View
	picker *filesource.Picker
	zone   *filesource.DropZone
}

// NewUploadService binds the picker and the drop zone to one change handler
// feeding ctrl, the way a page binds its input and drop surface.
func NewUploadService(ctrl flowController, view *uistate.View) UploadService {
	s := &uploadService{ctrl: ctrl, view: view}
	s.picker = filesource.NewPicker(s.onChange)
	s.zone = filesource.NewDropZone(s.picker)
	return s
}

func (s *uploadService) DropZone() *filesource.DropZone {
	return s.zone
}

func (s *uploadService) onChange(file *entity.CandidateFile) {
	if err := s.ctrl.Select(file); err != nil {
		logrus.WithError(err).Warn("selection ignored")
	}
}

func (s *uploadService) Pick(files entity.FileList) error {
	if err := s.alive(); err != nil {
		return err
	}
	s.picker.SetFiles(files)
	s.picker.Change()
	return nil
}

func (s *uploadService) PickPaths(paths ...string) error {
	return s.Pick(filesource.FilesFromPaths(paths...))
}

func (s *uploadService) Drag(ev filesource.DragEvent) (filesource.Disposition, error) {
	if err := s.alive(); err != nil {
		return filesource.Disposition{}, err
	}
	d := s.zone.Handle(ev)
	s.view.SetHighlight(s.zone.Highlighted())
	return d, nil
}

func (s *uploadService) Submit() error {
	return s.ctrl.Submit()
}

func (s *uploadService) State() State {
	// a watched folder drives the zone directly
	s.view.SetHighlight(s.zone.Highlighted())
	return State{View: s.view.State(), Status: s.ctrl.Status()}
}

func (s *uploadService) Wait(ctx context.Context, cond func(controller.Status) bool) (controller.Status, error) {
	return s.ctrl.Wait(ctx, cond)
}

func (s *uploadService) alive() error {
	select {
	case <-s.ctrl.Done():
		return entity.ErrNavigatedAway
	default:
		return nil
	}
}
