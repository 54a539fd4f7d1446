package report

import "github.com/hearthchat/hearth/domain/partner"

// DashboardPageSize is the fixed page size for dashboard tables.
const DashboardPageSize = 10

// Page describes one clamped page over an in-memory result set.
type Page struct {
	Page  int // Current page, 1-based, clamped to [1, Pages]
	Pages int // Total pages, at least 1
	Total int // Total items
	Start int // Slice start index
	End   int // Slice end index (exclusive)
}

// Paginate computes the page bounds for a result set of total items.
// A page below 1 clamps to 1; a page beyond the last clamps to the last
// valid page. An empty set yields a single empty page.
//
// This is a PURE function.
func Paginate(total, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DashboardPageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}
	return Page{
		Page:  page,
		Pages: pages,
		Total: total,
		Start: start,
		End:   end,
	}
}

// DisplayCode maps a partner code to its dashboard label.
// Unattributed traffic shows as "General"; any other code passes through.
func DisplayCode(code string) string {
	if code == "" || code == partner.CodeDirect {
		return "General"
	}
	return code
}

// DisplayAccess maps an access type to its dashboard label.
func DisplayAccess(access string) string {
	switch access {
	case "direct":
		return "General"
	case "partner":
		return "Partner"
	default:
		return access
	}
}
