package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-retail-ws/internal/repository"
	"go-retail-ws/internal/ws"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/logger"
	"go-retail-ws/pkg/metrics"
)

// Actor is the authenticated staff member a change is attributed to.
type Actor struct {
	ID   string
	Name string
}

func (a Actor) label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return "system"
}

// Hooks bundles the side channels every service reports to. Any field may
// be nil.
type Hooks struct {
	Events  ws.Publisher
	Metrics *metrics.Recorder
	Log     *logger.Logger
}

func (h Hooks) publish(event ws.Event) {
	if h.Events == nil {
		return
	}
	h.Events.Publish(event)
}

// track starts timing op. Defer the returned func with the address of the
// caller's named error result.
func (h Hooks) track(ctx context.Context, op string) func(*error) {
	started := time.Now()
	return func(errp *error) {
		h.done(ctx, op, started, *errp)
	}
}

// done records the outcome of an operation. Internal errors are logged here
// so callers only need to return them.
func (h Hooks) done(ctx context.Context, op string, started time.Time, err error) {
	h.Metrics.Observe(op, started, err)
	if err != nil && apperror.CodeOf(err) == apperror.CodeInternal {
		h.Log.Error(h.Log.WithField(ctx, "operation", op), "operation failed", err)
	}
}

// lookupErr maps a repository miss to NOT_FOUND and anything else to an
// internal error.
func lookupErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(what + " not found")
	}
	return internalErr(err, "load "+what)
}

// internalErr passes typed errors through and wraps the rest.
func internalErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if apperror.As(err) != nil {
		return err
	}
	return apperror.Internal(err, msg)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}

// filterErr turns an invalid filter column or operator into a validation error.
func filterErr(err error) error {
	if err == nil {
		return nil
	}
	return apperror.Wrap(apperror.CodeValidation, err, "invalid filter")
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.Validation(fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field))
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
