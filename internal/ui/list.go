package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shzx/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps [models.SongRef] to implement [list.Item].
type songItem struct {
	song models.SongRef
}

func (i songItem) FilterValue() string { return i.song.String() }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string { return i.song.Artist }

func songItems(set *models.SongSet) []list.Item {
	sorted := set.Sorted()
	items := make([]list.Item, len(sorted))
	for i, s := range sorted {
		items[i] = songItem{song: s}
	}
	return items
}
