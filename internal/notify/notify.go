// Package notify delivers moderation notices and reviewer reports.
package notify

import (
	"context"
	"errors"

	errs "github.com/iamwavecut/tarabot/internal/errors"
)

// Notifier sends a message to a Telegram user id. A nil error means delivered;
// failures match errs.ErrRecipientUnreachable or errs.ErrDeliveryFailed.
type Notifier interface {
	SendDirect(ctx context.Context, userID int64, text string, parseMode string) error
	SendTo(ctx context.Context, recipientID int64, text string, parseMode string) error
}

type Outcome int

const (
	Delivered Outcome = iota
	RecipientUnreachable
	OtherError
)

func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Delivered
	case errors.Is(err, errs.ErrRecipientUnreachable):
		return RecipientUnreachable
	default:
		return OtherError
	}
}

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case RecipientUnreachable:
		return "recipient_unreachable"
	default:
		return "other_error"
	}
}
