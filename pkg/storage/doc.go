// Package storage provides the PostgreSQL-backed notification record store.
// FindForUpdate takes a SELECT ... FOR UPDATE row lock, making the database
// the cross-process mutex for "who owns this message id right now".
package storage
