package context

import "errors"

var (
	// ErrUnboundOperation is returned by DbSet operations on a set that was
	// never bound or whose DbContext has been closed.
	ErrUnboundOperation = errors.New("model is not bound to a database")
	// ErrBindViolation is returned when an entity of another type is passed
	// to a DbSet.
	ErrBindViolation = errors.New("entity does not match the bound model")
	// ErrUnboundDelete is returned when deleting an entity that has no
	// primary key value.
	ErrUnboundDelete = errors.New("cannot delete an entity without a primary key value")
)
