package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// quote validates and quotes an identifier. Table and column names come from
// resource descriptors, never from clients, so an invalid one is a bug.
func quote(name string) string {
	if !identPattern.MatchString(name) {
		panic(fmt.Sprintf("database: invalid identifier %q", name))
	}
	return `"` + name + `"`
}

// sortedColumns returns the keys of values in a stable order so statements
// are deterministic.
func sortedColumns(values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func insertQuery(table string, values map[string]any) (string, []any) {
	cols := sortedColumns(values)
	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quote(col)
		args[i] = values[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		quote(table), strings.Join(quoted, ", "), placeholders(len(cols)))
	return query, args
}

func updateQuery(table string, id int64, values map[string]any) (string, []any) {
	cols := sortedColumns(values)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = quote(col) + " = ?"
		args = append(args, values[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? RETURNING *", quote(table), strings.Join(sets, ", "))
	return query, args
}

func upsertQuery(table string, id int64, values map[string]any) (string, []any) {
	cols := sortedColumns(values)
	quoted := make([]string, 0, len(cols)+1)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)

	quoted = append(quoted, "id")
	args = append(args, id)
	for _, col := range cols {
		quoted = append(quoted, quote(col))
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", quote(col), quote(col)))
		args = append(args, values[col])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s RETURNING *",
		quote(table), strings.Join(quoted, ", "), placeholders(len(quoted)), strings.Join(sets, ", "))
	return query, args
}

func listQuery(table string, q ListQuery) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", quote(table))

	cols := sortedColumns(q.Filters)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(quote(col) + " = ?")
		args = append(args, q.Filters[col])
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "id DESC"
	}
	b.WriteString(" ORDER BY " + orderBy)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	}
	return b.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
