package uistate

import (
	"github.com/sirupsen/logrus"
)

// LogRenderer reports every render as a structured log line.
type LogRenderer struct {
	log *logrus.Entry
}

func NewLogRenderer(log *logrus.Entry) *LogRenderer {
	return &LogRenderer{log: log.WithField("component", "ui")}
}

func (r *LogRenderer) RenderIdle() {
	r.log.Debug("idle")
}

func (r *LogRenderer) RenderPreview(p Preview) {
	r.log.WithFields(logrus.Fields{
		"file":   p.FileName,
		"width":  p.Dimensions.Width,
		"height": p.Dimensions.Height,
	}).Info(p.DimensionsText())
}

func (r *LogRenderer) RenderError(reason string) {
	r.log.WithField("reason", reason).Warn(reason)
}

func (r *LogRenderer) RenderLoading() {
	r.log.Info(LoadingCaption)
}

func (r *LogRenderer) RenderDone(location string) {
	r.log.WithField("location", location).Info("navigating to results")
}
