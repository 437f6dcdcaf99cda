package history

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/shzx/internal/models"
)

// Decoder accumulates decoded records into a [models.DecodedHistory].
type Decoder struct {
	history   models.DecodedHistory
	fallbacks int
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{history: make(models.DecodedHistory)}
}

// Add decodes rec and stores it under its key.
func (d *Decoder) Add(rec models.RawRecord) {
	v := DecodeValue(rec.Value)
	if !v.IsStructured() {
		d.fallbacks++
	}
	d.history[DecodeKey(rec.Key)] = v
}

// History returns the decoded records collected so far.
func (d *Decoder) History() models.DecodedHistory { return d.history }

// Fallbacks returns how many values degraded to text.
func (d *Decoder) Fallbacks() int { return d.fallbacks }

// Decode decodes a batch of records.
func Decode(records []models.RawRecord) models.DecodedHistory {
	dec := NewDecoder()
	for _, rec := range records {
		dec.Add(rec)
	}
	return dec.History()
}

// DecodeValue parses b as JSON, falling back to its text with invalid UTF-8 dropped.
func DecodeValue(b []byte) models.DecodedValue {
	var doc any
	if err := json.Unmarshal(b, &doc); err == nil {
		return models.Structured(doc)
	}
	return models.Text(strings.ToValidUTF8(string(b), ""))
}

// DecodeKey renders a store key as a string.
//
// Keys that are not valid UTF-8 are hex encoded with a "0x" prefix so two distinct keys never collapse.
func DecodeKey(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}
