package dynamo

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist or is expired (has TTL <= now).
	ErrNotFound = errors.New("barrel: item not found")

	// ErrUnprocessed is returned when a batch write leaves items unprocessed after retries.
	ErrUnprocessed = errors.New("barrel: batch write left unprocessed items")

	// ErrInvalidItem is returned when a stored item lacks the expected attributes.
	ErrInvalidItem = errors.New("barrel: invalid item")
)
