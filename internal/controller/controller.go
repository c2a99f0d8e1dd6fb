// Package controller drives one upload from file selection to the results view.
//
// All flow state is owned by the goroutine running Run. Selections and submits
// are posted to it as events; probing and prediction run on their own
// goroutines and report back with the generation that started them, so a
// result belonging to a superseded selection is dropped instead of applied.
package controller

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ds124wfegd/mri-uploader/internal/database"
	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/navigation"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/predict"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/probe"
	"github.com/ds124wfegd/mri-uploader/internal/uistate"
	"github.com/ds124wfegd/mri-uploader/internal/validator"
	"github.com/sirupsen/logrus"
)

// Prober delivers exactly one result per Start on the returned channel.
type Prober interface {
	Start(ctx context.Context, file *entity.CandidateFile) <-chan probe.Result
}

type Predictor interface {
	Predict(ctx context.Context, file *entity.CandidateFile) (json.RawMessage, error)
}

type Deps struct {
	Prober    Prober
	Predictor Predictor
	Session   database.SessionStorage
	Navigator navigation.Navigator
	Renderer  uistate.Renderer
	Log       *logrus.Entry
	// ResultPath defaults to navigation.ResultPath.
	ResultPath string
}

// Status is a read-only copy of the controller's position.
type Status struct {
	State      entity.State       `json:"state"`
	Phase      entity.Phase       `json:"phase"`
	FileName   string             `json:"file_name,omitempty"`
	Dimensions *entity.Dimensions `json:"dimensions,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	Generation uint64             `json:"generation"`
}

type (
	selectEvent struct{ file *entity.CandidateFile }
	submitEvent struct{}
	probeDone   struct {
		generation uint64
		probe      entity.Probe
		err        error
	}
	predictDone struct {
		generation uint64
		payload    json.RawMessage
		err        error
	}
)

type envelope struct {
	ev interface{}
	// applied is closed once the event has been handled; nil for completions.
	applied chan struct{}
}

type Controller struct {
	deps   Deps
	log    *logrus.Entry
	events chan envelope
	done   chan struct{}

	// owned by the Run goroutine
	ctx        context.Context
	state      entity.State
	file       *entity.CandidateFile
	probe      *entity.Probe
	reason     string
	generation uint64
	cancel     context.CancelFunc

	statusMu sync.RWMutex
	status   Status
	changed  chan struct{}
}

func New(deps Deps) *Controller {
	if deps.ResultPath == "" {
		deps.ResultPath = navigation.ResultPath
	}
	if deps.Log == nil {
		deps.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Controller{
		deps:    deps,
		log:     deps.Log.WithField("component", "controller"),
		events:  make(chan envelope, 32),
		done:    make(chan struct{}),
		state:   entity.StateIdle,
		changed: make(chan struct{}),
	}
	c.publish()
	return c
}

// Select reports a change of the picked file. A nil or empty file is the
// "nothing selected" case. It returns once the selection is applied; probing
// continues in the background. Run must be running.
func (c *Controller) Select(file *entity.CandidateFile) error {
	return c.apply(selectEvent{file: file})
}

// Submit is the user pressing the analyze control. Like Select it does not
// wait for the upload itself.
func (c *Controller) Submit() error {
	return c.apply(submitEvent{})
}

func (c *Controller) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// Settled reports whether s is waiting on the user rather than on work in flight.
func Settled(s Status) bool {
	switch s.State {
	case entity.StateSelecting, entity.StateProbing, entity.StateSubmitting:
		return false
	}
	return true
}

// Wait blocks until cond holds for the current status, the controller stops
// or ctx ends.
func (c *Controller) Wait(ctx context.Context, cond func(Status) bool) (Status, error) {
	for {
		c.statusMu.RLock()
		s, changed := c.status, c.changed
		c.statusMu.RUnlock()

		if cond(s) {
			return s, nil
		}
		select {
		case <-changed:
		case <-c.done:
			// the final status may be the one the caller waits for
			last := c.Status()
			if cond(last) {
				return last, nil
			}
			return last, entity.ErrNavigatedAway
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Done is closed once the controller has handed off to the results view or
// its context ended.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run processes events until the flow navigates away (nil) or ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	c.ctx = ctx
	c.render()

	for {
		select {
		case <-ctx.Done():
			c.supersede()
			return ctx.Err()
		case env := <-c.events:
			c.handle(env.ev)
			if env.applied != nil {
				close(env.applied)
			}
			if c.state == entity.StateRedirecting {
				return nil
			}
		}
	}
}

func (c *Controller) apply(ev interface{}) error {
	applied := make(chan struct{})
	if err := c.send(envelope{ev: ev, applied: applied}); err != nil {
		return err
	}
	select {
	case <-applied:
		return nil
	case <-c.done:
		// the event that ended the flow is still applied before done closes
		select {
		case <-applied:
			return nil
		default:
			return entity.ErrNavigatedAway
		}
	}
}

func (c *Controller) post(ev interface{}) error {
	return c.send(envelope{ev: ev})
}

func (c *Controller) send(env envelope) error {
	select {
	case <-c.done:
		return entity.ErrNavigatedAway
	default:
	}
	select {
	case c.events <- env:
		return nil
	case <-c.done:
		return entity.ErrNavigatedAway
	}
}

func (c *Controller) handle(ev interface{}) {
	switch ev := ev.(type) {
	case selectEvent:
		c.onSelect(ev.file)
	case submitEvent:
		c.onSubmit()
	case probeDone:
		c.onProbeDone(ev)
	case predictDone:
		c.onPredictDone(ev)
	}
	c.publish()
}

func (c *Controller) onSelect(file *entity.CandidateFile) {
	c.supersede()
	c.file, c.probe, c.reason = nil, nil, ""
	c.transition(entity.StateSelecting)

	if file.Empty() {
		c.fail(entity.StateInvalid, entity.MsgNoFile)
		return
	}
	c.file = file
	c.startProbe()
}

func (c *Controller) onSubmit() {
	switch c.state {
	case entity.StateProbing, entity.StateSubmitting:
		c.log.WithField("state", c.state).Debug("submit ignored while busy")
		return
	}

	if c.file.Empty() {
		c.transition(entity.StateSelecting)
		c.fail(entity.StateInvalid, entity.MsgNoFile)
		return
	}

	if c.state == entity.StateInvalid || c.probe == nil {
		// Selection-time validation did not pass; run it again instead of uploading.
		c.supersede()
		c.transition(entity.StateSelecting)
		c.startProbe()
		return
	}

	if outcome := validator.ValidateDimensions(c.probe.Dimensions); !outcome.OK() {
		c.fail(entity.StateInvalid, outcome.Reason())
		return
	}
	c.startPredict()
}

func (c *Controller) startProbe() {
	c.transition(entity.StateProbing)
	ctx, gen, file := c.async(), c.generation, c.file

	results := c.deps.Prober.Start(ctx, file)
	go func() {
		r := <-results
		c.post(probeDone{generation: gen, probe: r.Probe, err: r.Err})
	}()
}

func (c *Controller) onProbeDone(ev probeDone) {
	if c.stale(ev.generation, "probe") {
		return
	}
	c.release()

	if ev.err != nil {
		c.log.WithError(ev.err).WithField("file", c.file.Name).Warn("image probe failed")
		c.fail(entity.StateInvalid, entity.UserMessage(ev.err))
		return
	}

	outcome := validator.ValidateDimensions(ev.probe.Dimensions)
	if !outcome.OK() {
		c.fail(entity.StateInvalid, outcome.Reason())
		return
	}

	p := ev.probe
	c.probe = &p
	c.reason = ""
	c.transition(entity.StateValid)
	c.render()
}

func (c *Controller) startPredict() {
	c.reason = ""
	c.transition(entity.StateSubmitting)
	c.render()
	ctx, gen, file := c.async(), c.generation, c.file

	go func() {
		payload, err := c.deps.Predictor.Predict(ctx, file)
		c.post(predictDone{generation: gen, payload: payload, err: err})
	}()
}

func (c *Controller) onPredictDone(ev predictDone) {
	if c.stale(ev.generation, "prediction") {
		return
	}
	c.release()

	result := predict.Result(ev.payload, ev.err)
	if !result.OK() {
		c.log.WithError(ev.err).Warn("prediction failed")
		c.fail(entity.StateSubmissionFailed, result.Message)
		return
	}

	if err := c.handoff(result.Payload); err != nil {
		c.log.WithError(err).Error("results handoff failed")
		c.fail(entity.StateSubmissionFailed, entity.MsgSubmission)
		return
	}

	c.transition(entity.StateRedirecting)
	c.render()
}

func (c *Controller) handoff(payload json.RawMessage) error {
	fields := logrus.Fields{"file": c.file.Name}
	if class, confidence, ok := entity.TopPrediction(payload); ok {
		fields["class"], fields["confidence"] = class, confidence
	}
	c.log.WithFields(fields).Info("prediction received")

	if err := c.deps.Session.Set(c.ctx, database.ResultsKey, string(payload)); err != nil {
		return err
	}
	return c.deps.Navigator.Navigate(c.ctx, c.deps.ResultPath)
}

func (c *Controller) fail(to entity.State, reason string) {
	c.reason = reason
	c.transition(to)
	c.render()
}

// render draws the current settled state. Transient states are never drawn.
func (c *Controller) render() {
	s := uistate.Snapshot{
		Phase:    c.state.Phase(),
		Reason:   c.reason,
		Location: c.deps.ResultPath,
	}
	if c.file != nil {
		s.Preview.FileName = c.file.Name
	}
	if c.probe != nil {
		s.Preview.Dimensions = c.probe.Dimensions
		s.Preview.Thumbnail = c.probe.Thumbnail
	}
	uistate.Render(c.deps.Renderer, s)
}

func (c *Controller) transition(to entity.State) {
	if err := entity.ValidateTransition(c.state, to); err != nil {
		c.log.WithError(err).Error("unexpected state change")
	}
	c.log.WithFields(logrus.Fields{"from": c.state, "to": to, "generation": c.generation}).Debug("state change")
	c.state = to
}

// supersede invalidates every in-flight operation.
func (c *Controller) supersede() {
	c.generation++
	c.release()
}

func (c *Controller) async() context.Context {
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	return ctx
}

func (c *Controller) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) stale(gen uint64, what string) bool {
	if gen == c.generation {
		return false
	}
	c.log.WithFields(logrus.Fields{"generation": gen, "current": c.generation}).Debugf("discarding stale %s result", what)
	return true
}

func (c *Controller) publish() {
	s := Status{
		State:      c.state,
		Phase:      c.state.Phase(),
		Reason:     c.reason,
		Generation: c.generation,
	}
	if c.file != nil {
		s.FileName = c.file.Name
	}
	if c.probe != nil {
		d := c.probe.Dimensions
		s.Dimensions = &d
	}
	c.statusMu.Lock()
	c.status = s
	close(c.changed)
	c.changed = make(chan struct{})
	c.statusMu.Unlock()
}
