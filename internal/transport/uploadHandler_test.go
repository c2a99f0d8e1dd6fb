package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ds124wfegd/mri-uploader/internal/controller"
	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/filesource"
	"github.com/ds124wfegd/mri-uploader/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	picked  []entity.FileList
	drags   []filesource.DragEvent
	submits int
	err     error
}

func (f *fakeService) Pick(files entity.FileList) error {
	f.picked = append(f.picked, files)
	return f.err
}

func (f *fakeService) PickPaths(...string) error { return f.err }

func (f *fakeService) Drag(ev filesource.DragEvent) (filesource.Disposition, error) {
	f.drags = append(f.drags, ev)
	return filesource.Disposition{PreventDefault: true, StopPropagation: true}, f.err
}

func (f *fakeService) Submit() error {
	f.submits++
	return f.err
}

func (f *fakeService) State() service.State {
	return service.State{Status: controller.Status{State: entity.StateIdle, Phase: entity.PhaseIdle}}
}

func (f *fakeService) Wait(context.Context, func(controller.Status) bool) (controller.Status, error) {
	return controller.Status{}, nil
}

func (f *fakeService) DropZone() *filesource.DropZone { return nil }

func setup() (*fakeService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{}
	return svc, InitRoutes(NewUploadHandler(svc))
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(formField, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	_, router := setup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSelectForwardsUploadedFile(t *testing.T) {
	svc, router := setup()
	body, contentType := multipartBody(t, "scan.png", []byte("pixels"))

	req := httptest.NewRequest(http.MethodPost, "/upload/select", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.picked, 1)
	require.Len(t, svc.picked[0], 1)
	assert.Equal(t, "scan.png", svc.picked[0][0].Name)
	assert.EqualValues(t, 6, svc.picked[0][0].Size)
}

func TestSelectWithoutFileClearsSelection(t *testing.T) {
	svc, router := setup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload/select", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.picked, 1)
	assert.Nil(t, svc.picked[0].First())
}

func TestDropIsADropEvent(t *testing.T) {
	svc, router := setup()
	body, contentType := multipartBody(t, "scan.png", []byte("pixels"))

	req := httptest.NewRequest(http.MethodPost, "/upload/drop", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.drags, 1)
	assert.Equal(t, filesource.Drop, svc.drags[0].Kind)
	assert.Len(t, svc.drags[0].Files, 1)

	var resp struct {
		Disposition filesource.Disposition `json:"disposition"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Disposition.PreventDefault)
}

func TestDragKinds(t *testing.T) {
	svc, router := setup()

	for _, tc := range []struct {
		path     string
		code     int
		kind     filesource.DragKind
		carrying bool
	}{
		{"/upload/drag/enter", http.StatusOK, filesource.DragEnter, true},
		{"/upload/drag/dragover?files=false", http.StatusOK, filesource.DragOver, false},
		{"/upload/drag/leave", http.StatusOK, filesource.DragLeave, true},
		{"/upload/drag/drop", http.StatusBadRequest, "", false},
		{"/upload/drag/wiggle", http.StatusBadRequest, "", false},
	} {
		before := len(svc.drags)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tc.path, nil))

		assert.Equal(t, tc.code, w.Code, tc.path)
		if tc.code != http.StatusOK {
			assert.Len(t, svc.drags, before, tc.path)
			continue
		}
		require.Len(t, svc.drags, before+1, tc.path)
		assert.Equal(t, tc.kind, svc.drags[before].Kind, tc.path)
		assert.Equal(t, tc.carrying, svc.drags[before].Carrying, tc.path)
	}
}

func TestSubmitAfterNavigationIsGone(t *testing.T) {
	svc, router := setup()
	svc.err = entity.ErrNavigatedAway

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload/submit", nil))

	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, 1, svc.submits)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestState(t *testing.T) {
	_, router := setup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var st service.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, entity.StateIdle, st.Status.State)
}

func TestCORSPreflight(t *testing.T) {
	_, router := setup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/upload/submit", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
