package exports

import "slices"

// Page is the set of tables rendered on one page.
type Page struct {
	Tables []ExportTable `json:"tables"`
}

// Paginate packs tables onto pages of at most rowsPerPage body rows. Tables
// longer than a page are split and repeat their header. A rowsPerPage of zero
// or less puts everything on one page.
func Paginate(data ExportData, rowsPerPage int) []Page {
	if rowsPerPage <= 0 {
		return []Page{{Tables: slices.Clone(data.Tables)}}
	}

	var pages []Page
	current := Page{}
	used := 0

	flush := func() {
		if len(current.Tables) > 0 {
			pages = append(pages, current)
		}
		current = Page{}
		used = 0
	}

	for _, table := range data.Tables {
		body := table.Body
		if len(body) == 0 {
			continue
		}
		for len(body) > 0 {
			free := rowsPerPage - used
			if free <= 0 {
				flush()
				free = rowsPerPage
			}
			n := min(free, len(body))
			current.Tables = append(current.Tables, ExportTable{
				Title:  table.Title,
				Header: table.Header,
				Body:   body[:n],
			})
			used += n
			body = body[n:]
		}
	}
	flush()

	if len(pages) == 0 {
		return []Page{{Tables: []ExportTable{}}}
	}
	return pages
}
