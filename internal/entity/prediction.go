package entity

import (
	"encoding/json"
	"sort"
)

// PredictionPayload is the shape returned by the classification service.
// Other keys are preserved in the raw payload handed to the results view.
type PredictionPayload struct {
	Predictions map[string]float64 `json:"predictions"`
	ImagePath   string             `json:"image_path"`
	Error       *string            `json:"error"`
}

// TopPrediction returns the most likely class of a success payload.
// ok is false when the payload carries no class probabilities.
func TopPrediction(raw json.RawMessage) (class string, confidence float64, ok bool) {
	var p PredictionPayload
	if err := json.Unmarshal(raw, &p); err != nil || len(p.Predictions) == 0 {
		return "", 0, false
	}

	classes := make([]string, 0, len(p.Predictions))
	for name := range p.Predictions {
		classes = append(classes, name)
	}
	sort.Strings(classes)

	for _, name := range classes {
		if !ok || p.Predictions[name] > confidence {
			class, confidence, ok = name, p.Predictions[name], true
		}
	}
	return class, confidence, ok
}
