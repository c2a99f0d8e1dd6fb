package filesource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const DefaultSettle = 300 * time.Millisecond

// DropFolder treats a directory as a drop surface: a file appearing in it is
// dragged over the zone and dropped once its writes have settled.
type DropFolder struct {
	dir    string
	zone   *DropZone
	settle time.Duration
	log    *logrus.Entry

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewDropFolder(dir string, zone *DropZone, settle time.Duration) *DropFolder {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &DropFolder{
		dir:     dir,
		zone:    zone,
		settle:  settle,
		log:     logrus.WithFields(logrus.Fields{"component": "drop_folder", "dir": dir}),
		pending: make(map[string]*time.Timer),
	}
}

// Run watches the folder until ctx is done.
func (f *DropFolder) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return err
	}
	if err := watcher.Add(f.dir); err != nil {
		return err
	}
	f.log.Info("watching drop folder")

	for {
		select {
		case <-ctx.Done():
			f.cancelAll()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			f.handle(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.WithError(err).Warn("drop folder watcher error")
		}
	}
}

func (f *DropFolder) handle(ev fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
			return
		}
		f.zone.Handle(DragEvent{Kind: DragEnter, Carrying: true})
		f.schedule(ev.Name)
	case ev.Has(fsnotify.Write):
		if f.isPending(ev.Name) {
			f.zone.Handle(DragEvent{Kind: DragOver, Carrying: true})
			f.schedule(ev.Name)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if f.cancel(ev.Name) {
			f.zone.Handle(DragEvent{Kind: DragLeave})
		}
	}
}

func (f *DropFolder) schedule(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.pending[path]; ok {
		t.Reset(f.settle)
		return
	}
	f.pending[path] = time.AfterFunc(f.settle, func() { f.drop(path) })
}

func (f *DropFolder) drop(path string) {
	f.mu.Lock()
	_, ok := f.pending[path]
	delete(f.pending, path)
	f.mu.Unlock()
	if !ok {
		return
	}

	f.log.WithField("file", filepath.Base(path)).Info("file dropped")
	f.zone.Handle(DragEvent{Kind: Drop, Files: FilesFromPaths(path)})
}

func (f *DropFolder) isPending(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[path]
	return ok
}

func (f *DropFolder) cancel(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.pending[path]
	if ok {
		t.Stop()
		delete(f.pending, path)
	}
	return ok
}

func (f *DropFolder) cancelAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for path, t := range f.pending {
		t.Stop()
		delete(f.pending, path)
	}
}
