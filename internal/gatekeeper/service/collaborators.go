package service

import "context"

// Notifier delivers user-facing transition messages and operator audit
// lines. The pipeline decides what to say and when; rendering (embeds,
// formatting) belongs to the implementation.
type Notifier interface {
	// NotifyUser sends a direct message to the applicant.
	NotifyUser(ctx context.Context, userID, content string) error

	// NotifyOperator posts to the staff audit channel.
	NotifyOperator(ctx context.Context, content string) error
}

// Authorizer answers whether a reviewer may decide applications.
type Authorizer interface {
	CanReview(ctx context.Context, reviewerID string) (bool, error)
}
