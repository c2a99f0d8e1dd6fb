package filesource

import (
	"fmt"
	"sync"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
)

type DragKind string

const (
	DragEnter DragKind = "dragenter"
	DragOver  DragKind = "dragover"
	DragLeave DragKind = "dragleave"
	Drop      DragKind = "drop"
)

func ParseDragKind(s string) (DragKind, error) {
	switch k := DragKind(s); k {
	case DragEnter, DragOver, DragLeave, Drop:
		return k, nil
	}
	switch s {
	case "enter":
		return DragEnter, nil
	case "over":
		return DragOver, nil
	case "leave":
		return DragLeave, nil
	}
	return "", fmt.Errorf("%w: %q", entity.ErrUnknownDragEvent, s)
}

type DragEvent struct {
	Kind  DragKind
	Files entity.FileList
	// Carrying is set while the drag holds files whose content is not yet readable.
	Carrying bool
}

func (e DragEvent) HasFiles() bool {
	return e.Carrying || len(e.Files) > 0
}

// Disposition tells the host what to do with the native event.
type Disposition struct {
	PreventDefault  bool `json:"prevent_default"`
	StopPropagation bool `json:"stop_propagation"`
}

// DropZone is the designated drop surface.
type DropZone struct {
	picker *Picker

	mu          sync.Mutex
	highlighted bool
}

func NewDropZone(picker *Picker) *DropZone {
	return &DropZone{picker: picker}
}

func (z *DropZone) Highlighted() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.highlighted
}

// Handle consumes one drag event. Every drag event on the surface is
// swallowed so the host never opens the dropped file itself.
func (z *DropZone) Handle(ev DragEvent) Disposition {
	switch ev.Kind {
	case DragEnter, DragOver:
		if ev.HasFiles() {
			z.setHighlight(true)
		}
	case DragLeave:
		z.setHighlight(false)
	case Drop:
		z.setHighlight(false)
		z.picker.SetFiles(ev.Files)
		z.picker.Change()
	default:
		return Disposition{}
	}
	return Disposition{PreventDefault: true, StopPropagation: true}
}

func (z *DropZone) setHighlight(on bool) {
	z.mu.Lock()
	z.highlighted = on
	z.mu.Unlock()
}
