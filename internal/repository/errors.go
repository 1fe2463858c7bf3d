package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyClaimed is returned when a courier loses the race to claim
	// a delivery.
	ErrAlreadyClaimed = errors.New("delivery already claimed")
	// ErrStaleStatus is returned when a conditional status update matched
	// no row, meaning the entity moved on since it was read.
	ErrStaleStatus = errors.New("status changed concurrently")
)
