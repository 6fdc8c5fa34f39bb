package alarm

import (
	"fmt"
	"strings"
)

// Column references used by the compiled predicate. The aggregate query must
// expose the case row as "c" and the latest matching history timestamp as
// "h.last_entered_at".
const (
	ColumnStatus       = "c.status"
	ColumnPriority     = "c.priority"
	ColumnCreatedAt    = "c.created_at"
	ColumnLastEntered  = "h.last_entered_at"
	predicateFirstSlot = 3
)

// Predicate is the rule table compiled to SQL.
//
// Placeholders $1 (evaluation time, timestamptz) and $2 (time zone name) are
// reserved for the caller; rule values start at $3 and are listed in Args.
type Predicate struct {
	SQL  string
	Args []any
}

// QueryArgs prepends the evaluation time and zone to the rule arguments.
func (p Predicate) QueryArgs(now any, zone string) []any {
	args := make([]any, 0, len(p.Args)+2)
	args = append(args, now, zone)
	return append(args, p.Args...)
}

// CompilePredicate renders rules as one SQL boolean expression that is true for
// cases in alarm. Business days are counted like timeutil.BusinessDaysBetween:
// dates after the reference date up to and including today, ISO weekday 1-5.
func CompilePredicate(rules []Rule) Predicate {
	if len(rules) == 0 {
		return Predicate{SQL: "FALSE"}
	}

	var (
		clauses []string
		args    []any
	)
	slot := predicateFirstSlot
	next := func(v any) string {
		args = append(args, v)
		p := fmt.Sprintf("$%d", slot)
		slot++
		return p
	}

	for _, r := range rules {
		conds := []string{fmt.Sprintf("%s = %s", ColumnStatus, next(string(r.Status)))}
		if r.Priority != "" {
			conds = append(conds, fmt.Sprintf("%s = %s", ColumnPriority, next(string(r.Priority))))
		}

		ref := fmt.Sprintf("COALESCE(%s, %s)", ColumnLastEntered, ColumnCreatedAt)
		if r.FromCreation {
			ref = ColumnCreatedAt
		}
		conds = append(conds, fmt.Sprintf("%s > %s", businessDaysSQL(ref), next(r.MaxBusinessDays)))

		clauses = append(clauses, "("+strings.Join(conds, " AND ")+")")
	}

	return Predicate{
		SQL:  "(" + strings.Join(clauses, "\n   OR ") + ")",
		Args: args,
	}
}

// businessDaysSQL counts weekdays in (date(ref), date($1)] in zone $2.
func businessDaysSQL(ref string) string {
	return fmt.Sprintf(`(SELECT COUNT(*) FROM generate_series(
        ((%s AT TIME ZONE $2)::date + 1)::timestamp,
        ($1::timestamptz AT TIME ZONE $2)::date::timestamp,
        INTERVAL '1 day') AS d
     WHERE EXTRACT(ISODOW FROM d) < 6)`, ref)
}
