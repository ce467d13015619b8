package domain

import "context"

// Transactor groups store writes. Stores without transactions run fn directly.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
