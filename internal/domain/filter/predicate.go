package filter

import (
	"strings"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
)

// Matches reports whether an album passes all three filter dimensions.
// The dimensions are independent and combined by conjunction; none of them
// depends on evaluation order.
func Matches(album catalog.Album, snap Snapshot) bool {
	categoryMatch := snap.Category == catalog.CategoryAll || album.Category == snap.Category
	genreMatch := snap.Genre == "" || album.HasGenre(snap.Genre)
	searchMatch := snap.SearchTerm == "" ||
		containsFold(album.Album, snap.SearchTerm) ||
		containsFold(album.Artist, snap.SearchTerm)
	return categoryMatch && genreMatch && searchMatch
}

// Visible filters the catalog against the snapshot, preserving catalog
// order. The filter is stable; the result is never re-sorted.
func Visible(albums []catalog.Album, snap Snapshot) []catalog.Album {
	visible := make([]catalog.Album, 0, len(albums))
	for _, a := range albums {
		if Matches(a, snap) {
			visible = append(visible, a)
		}
	}
	return visible
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
