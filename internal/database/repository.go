package database

import (
	"context"
	"errors"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/google/uuid"
)

// ResultsKey is where a successful prediction is handed to the results view.
const ResultsKey = "predictionResults"

// SessionStorage is per-tab key/value storage with string values.
type SessionStorage interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

func NewTabID() string {
	return uuid.NewString()
}

// TakeResults reads and clears the handed-off prediction payload.
func TakeResults(ctx context.Context, s SessionStorage) (string, error) {
	value, err := s.Get(ctx, ResultsKey)
	if err != nil {
		return "", err
	}
	if err := s.Delete(ctx, ResultsKey); err != nil && !errors.Is(err, entity.ErrSessionKeyAbsent) {
		return "", err
	}
	return value, nil
}
