// Package repository implements the billing store interfaces on PostgreSQL
// with pgx. Every call is bounded by the configured query timeout.
//
// Run counters are mutated with a single UPDATE ... SET col = col + 1, so
// concurrent increments never lose updates. Column names come from a closed
// map keyed by tab and are never taken from input.
package repository
