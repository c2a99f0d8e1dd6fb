package transport

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/filesource"
	"github.com/gin-gonic/gin"
)

const formField = "file"

// Select is the file picker: an empty form means the user cleared the input.
func (h *UploadHandler) Select(c *gin.Context) {
	files, err := formFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Pick(files); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.service.State())
}

func (h *UploadHandler) Drop(c *gin.Context) {
	files, err := formFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.service.Drag(filesource.DragEvent{Kind: filesource.Drop, Files: files})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"disposition": d, "state": h.service.State()})
}

// Drag carries hover feedback only; ?files=false models dragging something
// that is not a file.
func (h *UploadHandler) Drag(c *gin.Context) {
	kind, err := filesource.ParseDragKind(c.Param("kind"))
	if err != nil || kind == filesource.Drop {
		c.JSON(http.StatusBadRequest, gin.H{"error": entity.ErrUnknownDragEvent.Error()})
		return
	}
	d, err := h.service.Drag(filesource.DragEvent{Kind: kind, Carrying: c.DefaultQuery("files", "true") != "false"})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disposition": d, "state": h.service.State()})
}

func (h *UploadHandler) Submit(c *gin.Context) {
	if err := h.service.Submit(); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.service.State())
}

func (h *UploadHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.State())
}

func (h *UploadHandler) abort(c *gin.Context, err error) {
	if errors.Is(err, entity.ErrNavigatedAway) {
		c.JSON(http.StatusGone, gin.H{"error": err.Error(), "state": h.service.State()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// formFiles copies every uploaded part into memory so the candidates outlive
// the request.
func formFiles(c *gin.Context) (entity.FileList, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files entity.FileList
	for _, fh := range form.File[formField] {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, entity.FileFromBytes(fh.Filename, data))
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
