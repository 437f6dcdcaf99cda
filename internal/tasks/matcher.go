package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
)

// MatchCache remembers resolved catalog matches across runs.
//
// Lookup returns (nil, nil) on a miss.
type MatchCache interface {
	Lookup(ctx context.Context, song models.SongRef) (*models.MatchResult, error)
	Store(ctx context.Context, song models.SongRef, match models.MatchResult) error
}

// Matcher resolves an extracted song to the catalog's top search candidate.
type Matcher struct {
	catalog services.Catalog
	cache   MatchCache
	logger  *log.Logger
}

// NewMatcher creates a Matcher. cache and logger may be nil.
func NewMatcher(catalog services.Catalog, cache MatchCache, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Matcher{catalog: catalog, cache: cache, logger: logger}
}

// Match issues one search for "{title} - {artist}" and resolves the first candidate.
//
// Every failure, including a search error, is returned wrapped in [shared.ErrNoMatch] with a nil result.
func (m *Matcher) Match(ctx context.Context, song models.SongRef) (*models.MatchResult, error) {
	if m.cache != nil {
		cached, err := m.cache.Lookup(ctx, song)
		if err != nil {
			m.logger.Warn("match cache lookup failed", "song", song.String(), "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	query := song.String()
	results, err := m.catalog.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", shared.ErrNoMatch, query, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", shared.ErrNoMatch, query)
	}

	match, err := resolveCandidate(results[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", shared.ErrNoMatch, query, err)
	}

	if m.cache != nil {
		if err := m.cache.Store(ctx, song, *match); err != nil {
			m.logger.Warn("match cache store failed", "song", song.String(), "error", err)
		}
	}
	return match, nil
}

func resolveCandidate(c models.SearchResult) (*models.MatchResult, error) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return nil, fmt.Errorf("top candidate has no title")
	}
	if len(c.Artists) == 0 {
		return nil, fmt.Errorf("top candidate has no artists")
	}
	artist := strings.TrimSpace(c.Artists[0].Name)
	if artist == "" {
		return nil, fmt.Errorf("top candidate has a blank artist")
	}
	if c.VideoID == "" {
		return nil, fmt.Errorf("top candidate has no video id")
	}
	return &models.MatchResult{Title: title, Artist: artist, VideoID: c.VideoID}, nil
}
