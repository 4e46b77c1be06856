package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/hivoyage/internal/config"
)

// paramLabel is the RFC 6350 ADR parameter carrying the printable address.
const paramLabel = "LABEL"

// ExportPlaces writes stops as vCard 4.0 place cards (KIND:location).
// The card keeps the stop name in FN, the address in the ADR street
// component (with a LABEL copy) and the time in an extension property.
func ExportPlaces(w io.Writer, stops []StopFields) error {
	enc := vcard.NewEncoder(w)
	for _, s := range stops {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldVersion, config.VCardVersion4)
		card.SetKind(vcard.KindLocation)
		card.SetValue(vcard.FieldFormattedName, s.Name)
		card.AddAddress(&vcard.Address{
			Field: &vcard.Field{
				Params: vcard.Params{paramLabel: {s.Address}},
			},
			StreetAddress: s.Address,
		})
		if s.Time != "" {
			card.SetValue(config.VCardTimeProp, s.Time)
		}
		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
	}
	return nil
}

// ImportPlaces reads place cards back into stop fields.
// Malformed cards and cards without a name are skipped. Times that are not
// valid "HH:MM" values are dropped so the user fills them in before saving.
func ImportPlaces(ctx context.Context, r io.Reader) ([]StopFields, error) {
	log := slog.With(slog.String(config.LogKeyComponent, config.CompEngine))
	dec := vcard.NewDecoder(r)

	var out []StopFields
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Log error but continue to next card to maximize data recovery
			log.Warn(config.MsgSkippedCard, slog.Any(config.LogKeyError, err))
			continue
		}

		name := card.PreferredValue(vcard.FieldFormattedName)
		if name == "" {
			continue
		}
		f := StopFields{Name: name}
		if adr := card.Address(); adr != nil {
			f.Address = adr.StreetAddress
			if f.Address == "" && adr.Field != nil {
				f.Address = adr.Params.Get(paramLabel)
			}
		}
		if t := card.Value(config.VCardTimeProp); ValidTime(t) {
			f.Time = t
		}
		out = append(out, f.Normalize())
	}

	log.Info(config.MsgPlacesImported, slog.Int(config.LogKeyCount, len(out)))
	return out, nil
}
