package entity

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// CandidateFile is the upload currently selected, prior to validation.
type CandidateFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk. Content is read lazily on Open.
func FileFromPath(path string) (*CandidateFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &CandidateFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func FileFromBytes(name string, data []byte) *CandidateFile {
	return &CandidateFile{
		Name: name,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file content.
func (f *CandidateFile) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, ErrNoFile
	}
	return f.open()
}

// Empty reports whether the candidate counts as "no file selected".
func (f *CandidateFile) Empty() bool {
	return f == nil || f.Size <= 0
}

type FileList []*CandidateFile

// First returns the candidate the pipeline works on, or nil.
func (l FileList) First() *CandidateFile {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Probe is what ImageProbe learns about a candidate file.
type Probe struct {
	Dimensions Dimensions `json:"dimensions"`
	MimeType   string     `json:"mime_type"`
	// Thumbnail is a PNG data URL, empty when the image was too large to preview.
	Thumbnail string `json:"thumbnail,omitempty"`
}
