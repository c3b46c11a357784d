// Package memstore is a mutex-guarded in-memory implementation of every
// store interface of the billing core. It backs tests and local runs without
// Postgres; nothing is persisted.
package memstore
