package engine

import (
	"errors"
	"fmt"

	"github.com/tartampluch/hivoyage/internal/config"
)

// Sentinel errors returned by the Editor. Callers match them with errors.Is.
var (
	ErrValidation    = errors.New(config.ErrValidation)
	ErrBusy          = errors.New(config.ErrBusy)
	ErrNotFound      = errors.New(config.ErrNotFound)
	ErrDuplicateItem = errors.New(config.ErrDuplicateItem)

	// ErrInvalidTime and ErrEmptyItemName refine ErrValidation.
	ErrInvalidTime   = fmt.Errorf("%w: %s", ErrValidation, config.ErrTimeFormat)
	ErrEmptyItemName = fmt.Errorf("%w: %s", ErrValidation, config.ErrItemNameEmpty)
)

// APIError is a non-2xx answer of the trip server.
// Body carries the server's error text, truncated to config.MaxErrorBodySize.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %d", config.ErrServerStatus, e.Status)
	}
	return fmt.Sprintf("%s: %d: %s", config.ErrServerStatus, e.Status, e.Body)
}

// Stage names one step of the edit round-trip of a stop.
type Stage string

const (
	StageDelete Stage = "delete"
	StageCreate Stage = "create"
)

// StageError reports which step of a stop save failed.
// A StageCreate failure after a successful delete means the server no
// longer holds the stop; the model then marks it unsaved.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	msg := config.ErrStageCreate
	if e.Stage == StageDelete {
		msg = config.ErrStageDelete
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
