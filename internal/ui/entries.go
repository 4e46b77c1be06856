package ui

import (
	"errors"
	"unicode/utf8"

	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
)

// FilteredEntry is an Entry that drops typed runes its filter rejects.
// Pasted text bypasses the filter; attach a Validator for that case.
type FilteredEntry struct {
	widget.Entry

	accept   func(r rune) bool
	maxLen   int
	keyboard mobile.KeyboardType
}

func newFilteredEntry(accept func(rune) bool, maxLen int, kb mobile.KeyboardType) *FilteredEntry {
	e := &FilteredEntry{accept: accept, maxLen: maxLen, keyboard: kb}
	e.ExtendBaseWidget(e)
	return e
}

// NewTimeEntry accepts a 24h "HH:MM" time.
func NewTimeEntry() *FilteredEntry {
	e := newFilteredEntry(func(r rune) bool {
		return (r >= '0' && r <= '9') || r == ':'
	}, len(config.TimeLayout), mobile.NumberKeyboard)
	e.PlaceHolder = config.TimeLayout
	e.Validator = func(s string) error {
		if s != "" && !engine.ValidTime(s) {
			return errors.New(config.ErrTimeFormat)
		}
		return nil
	}
	return e
}

// NewPortEntry accepts digits only.
func NewPortEntry() *FilteredEntry {
	return newFilteredEntry(func(r rune) bool {
		return r >= '0' && r <= '9'
	}, len("65535"), mobile.NumberKeyboard)
}

// TypedRune filters keystrokes and enforces the maximum length.
func (e *FilteredEntry) TypedRune(r rune) {
	if !e.accept(r) {
		return
	}
	if e.maxLen > 0 && utf8.RuneCountInString(e.Text) >= e.maxLen && e.SelectedText() == "" {
		return
	}
	e.Entry.TypedRune(r)
}

// Keyboard requests a numeric keypad on mobile devices.
func (e *FilteredEntry) Keyboard() mobile.KeyboardType {
	return e.keyboard
}
