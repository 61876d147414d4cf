package handlers

import (
	"context"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/dispatch"
)

// Lifecycle is the part of dispatch.Controller the handlers drive.
type Lifecycle interface {
	Submit(ctx context.Context, d booking.Details) (dispatch.Snapshot, error)
	Cancel(ctx context.Context, gate dispatch.Confirmer) (bool, error)
	Snapshot() dispatch.Snapshot
	History() []booking.PastBooking
	Subscribe(buffer int) (<-chan dispatch.Snapshot, func())
}

var _ Lifecycle = (*dispatch.Controller)(nil)
