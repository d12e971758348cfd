// Package store defines conversation and turn persistence: the Store
// interface, a SQLite implementation, and an in-memory mock for tests.
package store
