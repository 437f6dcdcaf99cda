package history

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/desertthunder/shzx/internal/models"
)

func decodeJSON(t *testing.T, s string) models.DecodedValue {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return models.Structured(doc)
}

func songStrings(set *models.SongSet) []string {
	var out []string
	for _, s := range set.Sorted() {
		out = append(out, s.String())
	}
	return out
}

func TestExtract(t *testing.T) {
	t.Run("flat record and text fallback", func(t *testing.T) {
		h := models.DecodedHistory{
			"k1": decodeJSON(t, `{"track":{"title":"A","subtitle":"B"}}`),
			"k2": models.Text("unparseable"),
		}

		set, stats := Extract(h)
		if set.Len() != 1 || !set.Contains(models.SongRef{Title: "A", Artist: "B"}) {
			t.Fatalf("expected {A - B}, got %v", songStrings(set))
		}
		if stats.Records != 2 || stats.Text != 1 || stats.Dropped != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
		if stats.ByShape[ShapeFlat] != 1 {
			t.Errorf("expected one flat song, got %d", stats.ByShape[ShapeFlat])
		}
	})

	t.Run("duplicates collapse across case and whitespace", func(t *testing.T) {
		h := models.DecodedHistory{
			"a": decodeJSON(t, `{"track":{"title":"Song","subtitle":"Artist"}}`),
			"b": decodeJSON(t, `{"track":{"title":" song ","subtitle":"ARTIST"}}`),
		}

		set, stats := Extract(h)
		if set.Len() != 1 {
			t.Fatalf("expected 1 song, got %v", songStrings(set))
		}
		if stats.Songs != 2 {
			t.Errorf("expected 2 songs before dedup, got %d", stats.Songs)
		}
	})

	t.Run("batched metadata records", func(t *testing.T) {
		h := models.DecodedHistory{
			"batch": decodeJSON(t, `[
				{"metadata":{"title":"One","artist":"X"}},
				{"metadata":{"title":"Two","artist":"Y"}},
				{"metadata":{"title":"Three"}},
				"noise"
			]`),
		}

		set, stats := Extract(h)
		got := songStrings(set)
		if len(got) != 2 || got[0] != "One - X" || got[1] != "Two - Y" {
			t.Errorf("unexpected songs: %v", got)
		}
		if stats.ByShape[ShapeMetadata] != 2 {
			t.Errorf("expected 2 metadata songs, got %d", stats.ByShape[ShapeMetadata])
		}
	})

	t.Run("batched attributes records under an object", func(t *testing.T) {
		h := models.DecodedHistory{
			"batch": decodeJSON(t, `{"matches":[
				{"attributes":{"title":"Four","primaryArtist":"Z"}},
				{"attributes":{"title":"","primaryArtist":"Z"}}
			]}`),
		}

		set, stats := Extract(h)
		got := songStrings(set)
		if len(got) != 1 || got[0] != "Four - Z" {
			t.Errorf("unexpected songs: %v", got)
		}
		if stats.ByShape[ShapeAttributes] != 1 {
			t.Errorf("expected 1 attributes song, got %d", stats.ByShape[ShapeAttributes])
		}
	})

	t.Run("unknown shapes yield nothing", func(t *testing.T) {
		h := models.DecodedHistory{
			"n": decodeJSON(t, `42`),
			"s": decodeJSON(t, `"text"`),
			"o": decodeJSON(t, `{"track":{"title":"No artist"}}`),
			"e": decodeJSON(t, `{}`),
		}

		set, stats := Extract(h)
		if set.Len() != 0 {
			t.Errorf("expected no songs, got %v", songStrings(set))
		}
		if stats.Dropped != 4 {
			t.Errorf("expected 4 dropped, got %d", stats.Dropped)
		}
		if stats.Summary() != "none" {
			t.Errorf("Summary() = %q", stats.Summary())
		}
	})

	t.Run("idempotent and order independent", func(t *testing.T) {
		h := models.DecodedHistory{
			"a": decodeJSON(t, `{"track":{"title":"Song","subtitle":"artist"}}`),
			"b": decodeJSON(t, `{"track":{"title":"song","subtitle":"Artist"}}`),
			"c": decodeJSON(t, `[{"metadata":{"title":"Other","artist":"Q"}}]`),
		}
		reordered := models.DecodedHistory{"z": h["c"], "y": h["b"], "x": h["a"]}

		first, _ := Extract(h)
		second, _ := Extract(h)
		third, _ := Extract(reordered)

		want := songStrings(first)
		for _, got := range [][]string{songStrings(second), songStrings(third)} {
			if len(got) != len(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("expected %v, got %v", want, got)
				}
			}
		}
	})

	t.Run("empty history", func(t *testing.T) {
		set, stats := Extract(nil)
		if set.Len() != 0 || stats.Records != 0 {
			t.Errorf("expected empty result, got %d songs %+v", set.Len(), stats)
		}
	})
}

func TestReadAllExtract(t *testing.T) {
	path := writeStore(t, map[string][]byte{
		"k1": []byte(`{"track":{"title":"A","subtitle":"B"}}`),
		"k2": []byte("unparseable"),
	})

	h, err := ReadAll(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	set, _ := Extract(h)
	got := songStrings(set)
	if len(got) != 1 || got[0] != "A - B" {
		t.Errorf("expected [A - B], got %v", got)
	}
}
