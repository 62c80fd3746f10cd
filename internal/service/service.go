// Package service holds the business rules of the API.  Services run every
// write inside one repository transaction, translate repository sentinels
// into apperr values and publish a domain event once the write committed.
package service

import (
	"context"
	"errors"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/queue"
	"github.com/iliyamo/stores-rest-api/internal/repository"
)

type actorKey struct{}

// WithActor returns a context carrying the authenticated user id.  Events
// published under that context are attributed to the user.
func WithActor(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id stored by WithActor, or 0.
func ActorFrom(ctx context.Context) uint64 {
	id, _ := ctx.Value(actorKey{}).(uint64)
	return id
}

// events publishes after commit.  A failed publish is logged and never
// reaches the caller.
type events struct {
	pub queue.Publisher
	log *logger.Logger
}

func (e events) publish(ctx context.Context, ev queue.Event) {
	if e.pub == nil {
		return
	}
	if ev.UserID == 0 {
		ev.UserID = ActorFrom(ctx)
	}
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("event publish failed", "type", ev.Type, "id", ev.ID, "error", err)
	}
}

// translate maps repository sentinels onto API errors.  Anything unknown is
// wrapped as an internal error so the cause is logged but never rendered.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound("User not found.")
	case errors.Is(err, repository.ErrStoreNotFound):
		return apperr.NotFound("Store not found.")
	case errors.Is(err, repository.ErrItemNotFound):
		return apperr.NotFound("Item not found.")
	case errors.Is(err, repository.ErrTagNotFound):
		return apperr.NotFound("Tag not found.")
	case errors.Is(err, repository.ErrLinkNotFound):
		return apperr.Conflict("Item is not linked to tag.")
	}
	return apperr.Internal("An error occurred while accessing the database.", err)
}
