// Package navigation moves the uploader from the upload page to the results view.
package navigation

import (
	"context"
	"strings"
	"time"

	"github.com/ds124wfegd/mri-uploader/internal/database"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

const ResultPath = "/result"

type Navigator interface {
	Navigate(ctx context.Context, location string) error
}

// Event announces that a tab left for the results view.
type Event struct {
	TabID      string    `json:"tab_id"`
	Location   string    `json:"location"`
	URL        string    `json:"url"`
	SessionKey string    `json:"session_key"`
	At         time.Time `json:"at"`
}

type logNavigator struct {
	baseURL string
	log     *logrus.Entry
}

// NewLogNavigator reports navigation in the log, for hosts without a results view.
func NewLogNavigator(baseURL string) Navigator {
	return &logNavigator{baseURL: baseURL, log: logrus.WithField("component", "navigator")}
}

func (n *logNavigator) Navigate(_ context.Context, location string) error {
	n.log.WithField("url", join(n.baseURL, location)).Info("navigate")
	return nil
}

type publishNavigator struct {
	producer kafka.Producer
	tabID    string
	baseURL  string
}

// NewPublishNavigator publishes an Event so an external results view can take over the tab.
func NewPublishNavigator(producer kafka.Producer, tabID, baseURL string) Navigator {
	return &publishNavigator{producer: producer, tabID: tabID, baseURL: baseURL}
}

func (n *publishNavigator) Navigate(ctx context.Context, location string) error {
	return n.producer.Publish(ctx, n.tabID, Event{
		TabID:      n.tabID,
		Location:   location,
		URL:        join(n.baseURL, location),
		SessionKey: database.ResultsKey,
		At:         time.Now().UTC(),
	})
}

func join(base, location string) string {
	if base == "" {
		return location
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(location, "/")
}
