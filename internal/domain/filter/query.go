package filter

import (
	"net/url"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
)

// Query parameter names. "artist" is a legacy read-only alias for "search"
// kept so old shared links keep working.
const (
	paramCategory    = "category"
	paramGenre       = "genre"
	paramSearch      = "search"
	paramSearchAlias = "artist"
)

// ApplyQuery applies query parameters as initial overrides on mount. A field
// is only applied when present and not default-equivalent, and the category
// is applied first so it cannot clobber a genre carried in the same URL.
func (s *State) ApplyQuery(values url.Values) {
	if c := values.Get(paramCategory); c != "" && c != catalog.CategoryAll {
		s.SetCategory(c)
	}
	if g := values.Get(paramGenre); g != "" {
		s.SetGenre(g)
	}
	term := values.Get(paramSearch)
	if term == "" {
		term = values.Get(paramSearchAlias)
	}
	if term != "" {
		s.SetSearchTerm(term)
	}
}

// Query serializes the non-transient fields, omitting defaults. Clients
// apply the result as a replace-style navigation so keystrokes do not pile
// up history entries.
func (snap Snapshot) Query() url.Values {
	values := url.Values{}
	if snap.Category != catalog.CategoryAll {
		values.Set(paramCategory, snap.Category)
	}
	if snap.Genre != "" {
		values.Set(paramGenre, snap.Genre)
	}
	if snap.SearchTerm != "" {
		values.Set(paramSearch, snap.SearchTerm)
	}
	return values
}

// QueryString returns the encoded query string for address-bar sync.
func (snap Snapshot) QueryString() string {
	return snap.Query().Encode()
}
