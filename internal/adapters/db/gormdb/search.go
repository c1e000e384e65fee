package gormdb

import (
	"strings"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"gorm.io/gorm"
)

// '!' is used instead of a backslash because MySQL treats backslashes in
// string literals as escapes of their own.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Both sides are folded by the store's LOWER so a token always matches its own
// text, whatever the store's notion of case.
const tokenPredicate = "(LOWER(model_name) LIKE LOWER(?) ESCAPE '!'" +
	" OR LOWER(serial_number) LIKE LOWER(?) ESCAPE '!'" +
	" OR LOWER(content) LIKE LOWER(?) ESCAPE '!')"

// applySearch narrows q to rows matching the category exactly and every query
// token as a substring of at least one text column, newest date first with
// undated rows last.
func applySearch(q *gorm.DB, query domain.SearchQuery) *gorm.DB {
	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}
	for _, token := range query.Tokens() {
		pattern := "%" + likeEscaper.Replace(token) + "%"
		q = q.Where(tokenPredicate, pattern, pattern, pattern)
	}
	return q.Order("date IS NULL").Order("date DESC").Order("id DESC")
}
