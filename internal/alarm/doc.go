// Package alarm decides whether a repair case has overstayed the service level
// of its current status.
//
// The rule table (Rules) is defined once. It is consumed in-process by the
// Evaluator and compiled into a SQL predicate by CompilePredicate for the
// aggregate query, so both fetch strategies share the same thresholds.
// Elapsed time is measured in business days (see timeutil.BusinessDaysBetween).
package alarm
