package history

import (
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/shzx/internal/models"
)

// SourceShape names a known layout of a history record.
type SourceShape int

const (
	// ShapeFlat is a single record: {"track": {"title": ..., "subtitle": artist}}.
	ShapeFlat SourceShape = iota
	// ShapeMetadata is a match record inside a batch: {"metadata": {"title": ..., "artist": ...}}.
	ShapeMetadata
	// ShapeAttributes is a match record inside a batch: {"attributes": {"title": ..., "primaryArtist": ...}}.
	ShapeAttributes
)

func (s SourceShape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeMetadata:
		return "metadata"
	case ShapeAttributes:
		return "attributes"
	default:
		return ""
	}
}

// ExtractStats counts what extraction saw, for logging.
type ExtractStats struct {
	Records int                 // records examined
	Text    int                 // records that were text fallbacks
	Dropped int                 // records that yielded no song
	Songs   int                 // songs before deduplication
	ByShape map[SourceShape]int // songs per shape before deduplication
}

type shapeParser struct {
	shape SourceShape
	parse func(map[string]any) (models.SongRef, bool)
}

// matchParsers are tried in order against each match record of a batch.
var matchParsers = []shapeParser{
	{shape: ShapeMetadata, parse: parseMetadata},
	{shape: ShapeAttributes, parse: parseAttributes},
}

// Extract walks every decoded record and returns the deduplicated songs they describe.
//
// Text fallbacks and records matching no known shape are skipped.
func Extract(h models.DecodedHistory) (*models.SongSet, ExtractStats) {
	stats := ExtractStats{ByShape: make(map[SourceShape]int)}
	var songs []models.SongRef

	for _, v := range h {
		stats.Records++
		if !v.IsStructured() {
			stats.Text++
			stats.Dropped++
			continue
		}

		found := extractRecord(v.Doc, &stats)
		if len(found) == 0 {
			stats.Dropped++
			continue
		}
		songs = append(songs, found...)
	}

	stats.Songs = len(songs)
	return models.NewSongSet(songs...), stats
}

// extractRecord resolves one record: the flat shape first, then the batched shapes.
func extractRecord(doc any, stats *ExtractStats) []models.SongRef {
	if obj, ok := doc.(map[string]any); ok {
		if song, ok := parseFlat(obj); ok {
			stats.ByShape[ShapeFlat]++
			return []models.SongRef{song}
		}
	}

	var songs []models.SongRef
	for _, rec := range matchRecords(doc) {
		for _, p := range matchParsers {
			if song, ok := p.parse(rec); ok {
				stats.ByShape[p.shape]++
				songs = append(songs, song)
				break
			}
		}
	}
	return songs
}

func parseFlat(obj map[string]any) (models.SongRef, bool) {
	track, ok := obj["track"].(map[string]any)
	if !ok {
		return models.SongRef{}, false
	}
	return songFrom(track, "title", "subtitle")
}

func parseMetadata(rec map[string]any) (models.SongRef, bool) {
	meta, ok := rec["metadata"].(map[string]any)
	if !ok {
		return models.SongRef{}, false
	}
	return songFrom(meta, "title", "artist")
}

func parseAttributes(rec map[string]any) (models.SongRef, bool) {
	attrs, ok := rec["attributes"].(map[string]any)
	if !ok {
		return models.SongRef{}, false
	}
	return songFrom(attrs, "title", "primaryArtist")
}

func songFrom(obj map[string]any, titleField, artistField string) (models.SongRef, bool) {
	title, _ := obj[titleField].(string)
	artist, _ := obj[artistField].(string)
	return models.NewSongRef(title, artist)
}

// matchRecords returns the match records of a batched value: the objects of a top-level array, or the
// objects (and objects inside arrays) held by a top-level object's fields.
func matchRecords(doc any) []map[string]any {
	switch v := doc.(type) {
	case []any:
		return objects(v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var out []map[string]any
		for _, k := range keys {
			switch c := v[k].(type) {
			case []any:
				out = append(out, objects(c)...)
			case map[string]any:
				out = append(out, c)
			}
		}
		return out
	default:
		return nil
	}
}

func objects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Summary renders the per-shape counts as "flat=3 metadata=1".
func (s ExtractStats) Summary() string {
	parts := make([]string, 0, len(s.ByShape))
	for _, shape := range []SourceShape{ShapeFlat, ShapeMetadata, ShapeAttributes} {
		if n := s.ByShape[shape]; n > 0 {
			parts = append(parts, shape.String()+"="+strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
