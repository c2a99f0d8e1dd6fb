// Package filesource turns picker selections and drops into one candidate file.
package filesource

import (
	"sync"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/sirupsen/logrus"
)

// ChangeHandler receives the candidate of every change; nil means nothing usable was picked.
type ChangeHandler func(file *entity.CandidateFile)

// Picker plays the role of the file input: it holds the selected list and
// dispatches a single change handler no matter how the list got there.
type Picker struct {
	mu       sync.Mutex
	files    entity.FileList
	onChange ChangeHandler
}

func NewPicker(onChange ChangeHandler) *Picker {
	return &Picker{onChange: onChange}
}

// SetFiles replaces the selection without dispatching change.
func (p *Picker) SetFiles(files entity.FileList) {
	p.mu.Lock()
	p.files = files
	p.mu.Unlock()
}

func (p *Picker) Files() entity.FileList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.files
}

// Change dispatches the change handler with the first selected file.
func (p *Picker) Change() {
	file := p.Files().First()
	if p.onChange != nil {
		p.onChange(file)
	}
}

// Choose is a picker interaction selecting files on disk.
// Paths that cannot be read are left out of the selection.
func (p *Picker) Choose(paths ...string) {
	p.SetFiles(FilesFromPaths(paths...))
	p.Change()
}

func FilesFromPaths(paths ...string) entity.FileList {
	list := make(entity.FileList, 0, len(paths))
	for _, path := range paths {
		f, err := entity.FileFromPath(path)
		if err != nil {
			logrus.WithError(err).WithField("path", path).Warn("skipping unreadable file")
			continue
		}
		list = append(list, f)
	}
	return list
}
