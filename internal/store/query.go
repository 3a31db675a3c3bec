package store

import (
	"fmt"
	"strings"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// filterBuilder accumulates WHERE conditions with numbered placeholders.
type filterBuilder struct {
	conditions []string
	args       []any
}

// add appends a condition whose single %d is replaced by the next placeholder index.
func (b *filterBuilder) add(condition string, arg any) {
	b.args = append(b.args, arg)
	b.conditions = append(b.conditions, fmt.Sprintf(condition, len(b.args)))
}

func (b *filterBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause.
func (b *filterBuilder) page(offset, limit int) string {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}
	b.args = append(b.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(b.args)-1, len(b.args))
}
