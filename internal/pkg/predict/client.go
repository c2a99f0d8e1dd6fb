package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPath      = "/predict"
	DefaultFieldName = "file"

	maxResponseBytes = 8 << 20
)

// RemoteError is an error reported by the prediction service in its JSON body.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error { return entity.ErrSubmission }

type Options struct {
	BaseURL   string
	Path      string
	FieldName string
	// Timeout of zero waits for the service indefinitely.
	Timeout time.Duration
}

// Client posts candidate files to the prediction endpoint.
type Client struct {
	endpoint   string
	field      string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.FieldName == "" {
		opts.FieldName = DefaultFieldName
	}
	return &Client{
		endpoint:   strings.TrimSuffix(opts.BaseURL, "/") + "/" + strings.TrimPrefix(opts.Path, "/"),
		field:      opts.FieldName,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// Predict uploads file as multipart form data and returns the JSON object the
// service answered with. Application errors come back as *RemoteError, every
// other failure wraps entity.ErrSubmission.
func (c *Client) Predict(ctx context.Context, file *entity.CandidateFile) (json.RawMessage, error) {
	body, contentType, err := c.encode(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", entity.ErrSubmission, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := logrus.WithFields(logrus.Fields{"request_id": requestID, "file": file.Name})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("prediction request failed")
		return nil, fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", entity.ErrSubmission, err)
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": time.Since(start)}).Info("prediction response received")

	return decodeResponse(resp.StatusCode, raw)
}

func (c *Client) encode(file *entity.CandidateFile) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(c.field, file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", entity.ErrSubmission, file.Name, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeResponse(status int, raw []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: status %d: response is not a JSON object", entity.ErrSubmission, status)
	}

	if msg, ok := fields["error"]; ok {
		var text string
		if err := json.Unmarshal(msg, &text); err == nil && text != "" {
			return nil, &RemoteError{Message: text}
		}
		return nil, fmt.Errorf("%w: status %d: malformed error field", entity.ErrSubmission, status)
	}

	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: status %d", entity.ErrSubmission, status)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSubmission, err)
	}
	return compact.Bytes(), nil
}

// Result folds a Predict outcome into the user facing submission result.
func Result(payload json.RawMessage, err error) entity.SubmissionResult {
	if err == nil {
		return entity.Success(payload)
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return entity.Failure(remote.Message)
	}
	return entity.Failure(entity.MsgSubmission)
}
