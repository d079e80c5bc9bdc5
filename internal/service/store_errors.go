package service

import (
	"context"
	"errors"

	"github.com/spec-kit/counselor-presence/internal/events"
	"github.com/spec-kit/counselor-presence/internal/repository"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

// storeError maps repository failures onto API errors. Missing rows become
// NOT_FOUND for resource; anything else that is not already a DomainError is
// treated as the backing store being unavailable.
func storeError(err error, resource string, details map[string]any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstreamUnavailable(err)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return apperrors.NewUpstreamUnavailable(err)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	return dispatcher.Publish(ctx, event)
}
