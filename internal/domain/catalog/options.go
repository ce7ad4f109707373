package catalog

import "sort"

// CategoryAll is the unfiltered category selector.
const CategoryAll = "all"

// Categories returns the deduplicated union of category values in
// first-seen order.
func Categories(albums []Album) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, a := range albums {
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		categories = append(categories, a.Category)
	}
	return categories
}

// GenresFor returns the sorted, deduplicated genre tags available within the
// selected category. CategoryAll means the whole catalog. Genre options are
// category-scoped: callers must re-derive them whenever the category changes.
func GenresFor(albums []Album, selectedCategory string) []string {
	seen := make(map[string]struct{})
	genres := make([]string, 0)
	for _, a := range albums {
		if selectedCategory != CategoryAll && a.Category != selectedCategory {
			continue
		}
		for _, g := range a.Genres() {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			genres = append(genres, g)
		}
	}
	sort.Strings(genres)
	return genres
}
