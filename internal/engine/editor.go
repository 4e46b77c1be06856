package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tartampluch/hivoyage/internal/config"
)

// Editor owns the trip model and mirrors every mutation to the server.
//
// The model is guarded by a mutex. Network calls are made outside the lock,
// so a slow request never blocks readers. A stop or packing item with a
// request in flight is busy and refuses further mutations with ErrBusy.
type Editor struct {
	api  TripAPI
	log  *slog.Logger
	trip *Trip

	mu       sync.Mutex
	expanded int
}

// NewEditor wraps a loaded trip. The trip must not be mutated by the caller afterwards.
func NewEditor(api TripAPI, trip *Trip) *Editor {
	e := &Editor{
		api:  api,
		trip: trip,
		log: slog.With(
			slog.String(config.LogKeyComponent, config.CompEditor),
			slog.String(config.LogKeyTrip, trip.ID),
		),
	}
	trip.renumber()
	for _, d := range trip.Itinerary.Days {
		SortStops(d.Stops)
	}
	return e
}

// Snapshot returns a deep copy of the current model for rendering.
func (e *Editor) Snapshot() *Trip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trip.Clone()
}

// -----------------------------------------------------------------------------
// Days
// -----------------------------------------------------------------------------

// AddDay appends the next day locally. The server has no add-day endpoint;
// the day exists there once a stop is saved into it.
func (e *Editor) AddDay() Day {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.trip.Itinerary.Days) + 1
	d := &Day{Number: n, Date: e.trip.DayDate(n)}
	e.trip.Itinerary.Days = append(e.trip.Itinerary.Days, d)

	e.log.Info(config.MsgDayAdded, slog.Int(config.LogKeyDay, n))
	return *d
}

// DeleteDay removes a day on the server and, on success, renumbers every later day.
func (e *Editor) DeleteDay(ctx context.Context, number int) error {
	e.mu.Lock()
	day := e.trip.Itinerary.Day(number)
	if day == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: day %d", ErrNotFound, number)
	}
	for _, s := range day.Stops {
		if s.busy {
			e.mu.Unlock()
			return ErrBusy
		}
	}
	tripID := e.trip.ID
	e.mu.Unlock()

	if err := e.api.DeleteDay(ctx, tripID, number-1); err != nil {
		e.log.Warn(config.MsgRequestFailed,
			slog.String(config.LogKeyAction, config.ActionDeleteDay),
			slog.Int(config.LogKeyDay, number),
			slog.Any(config.LogKeyError, err))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	days := e.trip.Itinerary.Days
	for i, d := range days {
		if d == day {
			e.trip.Itinerary.Days = append(days[:i:i], days[i+1:]...)
			break
		}
	}
	e.trip.renumber()

	switch {
	case e.expanded == number:
		e.expanded = 0
	case e.expanded > number:
		e.expanded--
	}

	e.log.Info(config.MsgDayDeleted, slog.Int(config.LogKeyDay, number))
	return nil
}

// ToggleDay expands the given day and collapses every other one.
// Toggling the expanded day collapses it. The result is the expanded day
// number, or 0 when none is expanded.
func (e *Editor) ToggleDay(number int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.trip.Itinerary.Day(number) == nil {
		return e.expanded
	}
	if e.expanded == number {
		e.expanded = 0
	} else {
		e.expanded = number
	}
	return e.expanded
}

// Expanded returns the currently expanded day number, or 0.
func (e *Editor) Expanded() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded
}

// -----------------------------------------------------------------------------
// Stops
// -----------------------------------------------------------------------------

// AddStop appends an unsaved stop in edit mode to the given day.
func (e *Editor) AddStop(number int) (Stop, error) {
	stops, err := e.AddDraftStops(number, []StopFields{{}})
	if err != nil {
		return Stop{}, err
	}
	return stops[0], nil
}

// AddDraftStops appends prefilled unsaved stops to a day, for example from
// imported place cards. Nothing is sent until each stop is saved.
func (e *Editor) AddDraftStops(number int, fields []StopFields) ([]Stop, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	day := e.trip.Itinerary.Day(number)
	if day == nil {
		return nil, fmt.Errorf("%w: day %d", ErrNotFound, number)
	}

	out := make([]Stop, 0, len(fields))
	for _, f := range fields {
		s := newStop(f.Normalize(), false)
		day.Stops = append(day.Stops, s)
		out = append(out, *s)
	}
	return out, nil
}

// EditStop switches a saved stop to edit mode and records its original fields.
func (e *Editor) EditStop(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, stop, err := e.findStop(id)
	if err != nil {
		return err
	}
	if stop.busy {
		return ErrBusy
	}
	if stop.Editing {
		return nil
	}
	orig := stop.StopFields
	stop.Original = &orig
	stop.Editing = true
	return nil
}

// UpdateDraft records the typed input of a stop in edit mode, so the
// row shows it again after any re-render or a failed save.
func (e *Editor) UpdateDraft(id uuid.UUID, fields StopFields) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, stop, err := e.findStop(id)
	if err != nil {
		return err
	}
	if !stop.Editing {
		return nil
	}
	stop.Pending = &fields
	return nil
}

// CancelEdit leaves edit mode. A saved stop keeps its committed fields;
// a draft that never reached the server is dropped.
func (e *Editor) CancelEdit(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	day, stop, err := e.findStop(id)
	if err != nil {
		return err
	}
	if stop.busy {
		return ErrBusy
	}
	if !stop.Saved {
		day.Stops = removeStop(day.Stops, stop)
		return nil
	}
	stop.Editing = false
	stop.Original = nil
	stop.Pending = nil
	return nil
}

// SaveStop validates and saves a stop.
//
// A stop already held by the server is replaced by deleting its original
// tuple and then creating the new one. The create is never sent when the
// delete fails. When the create fails after a successful delete, the stop is
// marked unsaved so a retry only creates it. Failures are *StageError values.
func (e *Editor) SaveStop(ctx context.Context, id uuid.UUID, fields StopFields) error {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	day, stop, err := e.findStop(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if stop.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	stop.busy = true

	var original *StopFields
	if stop.Saved {
		o := stop.StopFields
		if stop.Original != nil {
			o = *stop.Original
		}
		original = &o
	}
	tripID, dayIndex := e.trip.ID, day.Number-1
	e.mu.Unlock()

	log := e.log.With(
		slog.String(config.LogKeyStop, id.String()),
		slog.Int(config.LogKeyDay, dayIndex+1),
	)

	if original != nil {
		if err := e.api.DeleteStop(ctx, tripID, dayIndex, *original); err != nil {
			e.release(stop)
			log.Warn(config.MsgRequestFailed,
				slog.String(config.LogKeyStage, string(StageDelete)),
				slog.Any(config.LogKeyError, err))
			return &StageError{Stage: StageDelete, Err: err}
		}
	}

	if err := e.api.SaveStop(ctx, tripID, dayIndex, fields); err != nil {
		e.mu.Lock()
		stop.busy = false
		if original != nil {
			stop.Saved = false
			stop.Editing = true
			stop.Original = nil
			log.Warn(config.MsgStopOrphaned, slog.Any(config.LogKeyError, err))
		}
		e.mu.Unlock()
		return &StageError{Stage: StageCreate, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	stop.StopFields = fields
	stop.Saved = true
	stop.Editing = false
	stop.Original = nil
	stop.Pending = nil
	stop.busy = false
	SortStops(day.Stops)

	log.Info(config.MsgStopSaved)
	return nil
}

// RemoveStop deletes a stop. A draft is dropped without a network call.
// A saved stop is removed from the model only once the server confirms.
func (e *Editor) RemoveStop(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	day, stop, err := e.findStop(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if stop.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	if !stop.Saved {
		day.Stops = removeStop(day.Stops, stop)
		e.mu.Unlock()
		return nil
	}
	tuple := stop.StopFields
	if stop.Original != nil {
		tuple = *stop.Original
	}
	stop.busy = true
	tripID, dayIndex := e.trip.ID, day.Number-1
	e.mu.Unlock()

	if err := e.api.DeleteStop(ctx, tripID, dayIndex, tuple); err != nil {
		e.release(stop)
		e.log.Warn(config.MsgRequestFailed,
			slog.String(config.LogKeyAction, config.ActionDeleteItinerary),
			slog.Any(config.LogKeyError, err))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	day.Stops = removeStop(day.Stops, stop)
	e.log.Info(config.MsgStopRemoved, slog.String(config.LogKeyStop, id.String()))
	return nil
}

func (e *Editor) release(s *Stop) {
	e.mu.Lock()
	s.busy = false
	e.mu.Unlock()
}

// findStop must be called with the lock held.
func (e *Editor) findStop(id uuid.UUID) (*Day, *Stop, error) {
	for _, d := range e.trip.Itinerary.Days {
		for _, s := range d.Stops {
			if s.ID == id {
				return d, s, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: stop %s", ErrNotFound, id)
}

func removeStop(stops []*Stop, target *Stop) []*Stop {
	for i, s := range stops {
		if s == target {
			return append(stops[:i:i], stops[i+1:]...)
		}
	}
	return stops
}

// -----------------------------------------------------------------------------
// Packing list
// -----------------------------------------------------------------------------

// AddPackingDraft appends an unsaved item row. Only one draft row exists
// at a time: while it is open, the existing draft is returned.
func (e *Editor) AddPackingDraft() PackingItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	if d := e.packingDraft(); d != nil {
		return *d
	}
	p := newPackingItem("", false, false)
	e.trip.Packing = append(e.trip.Packing, p)
	return *p
}

// HasPackingDraft reports whether an unsaved item row is open.
func (e *Editor) HasPackingDraft() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.packingDraft() != nil
}

// packingDraft must be called with the lock held.
func (e *Editor) packingDraft() *PackingItem {
	for _, p := range e.trip.Packing {
		if !p.Saved {
			return p
		}
	}
	return nil
}

// UpdatePackingDraft records the typed name of an item in rename mode.
func (e *Editor) UpdatePackingDraft(id uuid.UUID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.findItem(id)
	if err != nil {
		return err
	}
	if !item.Editing {
		return nil
	}
	item.Pending = &name
	return nil
}

// EditPackingItem switches a saved item to rename mode.
func (e *Editor) EditPackingItem(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.findItem(id)
	if err != nil {
		return err
	}
	if item.busy {
		return ErrBusy
	}
	if item.Saved && !item.Editing {
		item.Original = item.Name
		item.Editing = true
	}
	return nil
}

// CancelPackingEdit leaves rename mode, dropping an unsaved draft.
func (e *Editor) CancelPackingEdit(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.findItem(id)
	if err != nil {
		return err
	}
	if item.busy {
		return ErrBusy
	}
	if !item.Saved {
		e.trip.Packing = removeItem(e.trip.Packing, item)
		return nil
	}
	item.Editing = false
	item.Original = ""
	item.Pending = nil
	return nil
}

// SavePackingItem creates a draft on the server, or renames a saved item
// with update-with-oldName. The model changes only on success.
func (e *Editor) SavePackingItem(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyItemName
	}

	e.mu.Lock()
	item, err := e.findItem(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if item.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	for _, other := range e.trip.Packing {
		if other != item && other.Saved && strings.EqualFold(other.Name, name) {
			e.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateItem, name)
		}
	}
	item.busy = true
	saved, checked, oldName := item.Saved, item.Checked, item.Name
	tripID := e.trip.ID
	e.mu.Unlock()

	if saved {
		err = e.api.UpdatePackingItem(ctx, tripID, name, checked, oldName)
	} else {
		checked = false
		err = e.api.SavePackingItem(ctx, tripID, name, checked)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	item.busy = false
	if err != nil {
		e.log.Warn(config.MsgRequestFailed,
			slog.String(config.LogKeyName, name),
			slog.Any(config.LogKeyError, err))
		return err
	}
	item.Name = name
	item.Checked = checked
	item.Saved = true
	item.Editing = false
	item.Original = ""
	item.Pending = nil

	e.log.Info(config.MsgPackingSaved, slog.String(config.LogKeyName, name))
	return nil
}

// DeletePackingItem removes an item. A draft is dropped without a network call.
func (e *Editor) DeletePackingItem(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	item, err := e.findItem(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if item.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	if !item.Saved {
		e.trip.Packing = removeItem(e.trip.Packing, item)
		e.mu.Unlock()
		return nil
	}
	item.busy = true
	name := item.Name
	if item.Original != "" {
		name = item.Original
	}
	tripID := e.trip.ID
	e.mu.Unlock()

	err = e.api.DeletePackingItem(ctx, tripID, name)

	e.mu.Lock()
	defer e.mu.Unlock()
	item.busy = false
	if err != nil {
		e.log.Warn(config.MsgRequestFailed,
			slog.String(config.LogKeyAction, config.ActionDeletePacking),
			slog.Any(config.LogKeyError, err))
		return err
	}
	e.trip.Packing = removeItem(e.trip.Packing, item)
	e.log.Info(config.MsgPackingDeleted, slog.String(config.LogKeyName, name))
	return nil
}

// SetPackingChecked applies a check-state change optimistically and
// reverts it if the server rejects it.
func (e *Editor) SetPackingChecked(ctx context.Context, id uuid.UUID, checked bool) error {
	e.mu.Lock()
	item, err := e.findItem(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if item.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	if !item.Saved {
		item.Checked = checked
		e.mu.Unlock()
		return nil
	}
	prev := item.Checked
	item.Checked = checked
	item.busy = true
	name, tripID := item.Name, e.trip.ID
	e.mu.Unlock()

	err = e.api.UpdatePackingItemStatus(ctx, tripID, name, checked)

	e.mu.Lock()
	defer e.mu.Unlock()
	item.busy = false
	if err != nil {
		item.Checked = prev
		e.log.Warn(config.MsgPackingReverted,
			slog.String(config.LogKeyName, name),
			slog.Bool(config.LogKeyChecked, checked),
			slog.Any(config.LogKeyError, err))
		return err
	}
	return nil
}

// findItem must be called with the lock held.
func (e *Editor) findItem(id uuid.UUID) (*PackingItem, error) {
	for _, p := range e.trip.Packing {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
}

func removeItem(items []*PackingItem, target *PackingItem) []*PackingItem {
	for i, p := range items {
		if p == target {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}

// -----------------------------------------------------------------------------
// Progress & Trip
// -----------------------------------------------------------------------------

// ItineraryProgress renders the day and stop counts of the current model.
func (e *Editor) ItineraryProgress() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ItineraryProgress(e.trip.Itinerary)
}

// PackingProgress renders the packed ratio of the current model.
func (e *Editor) PackingProgress() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return PackingProgress(e.trip.Packing)
}

// DeleteTrip deletes the whole trip on the server. The editor must not be used afterwards.
func (e *Editor) DeleteTrip(ctx context.Context) error {
	e.mu.Lock()
	tripID := e.trip.ID
	e.mu.Unlock()

	if err := e.api.DeleteTrip(ctx, tripID); err != nil {
		return err
	}
	e.log.Info(config.MsgTripDeleted)
	return nil
}
