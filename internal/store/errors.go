package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientStock is returned when a checkout would drive a
// product's stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")
