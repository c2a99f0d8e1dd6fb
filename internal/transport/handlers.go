package transport

import (
	"github.com/ds124wfegd/mri-uploader/internal/service"
)

type UploadHandler struct {
	service service.UploadService
}

func NewUploadHandler(service service.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}
