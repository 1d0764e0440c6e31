package notify

import (
	"context"
	"errors"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	errs "github.com/iamwavecut/tarabot/internal/errors"
)

type senderStub struct {
	err  error
	sent []api.MessageConfig
}

func (s *senderStub) Send(c api.Chattable) (api.Message, error) {
	if msg, ok := c.(api.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return api.Message{}, s.err
}

func TestTelegramSendClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "delivered", err: nil, want: Delivered},
		{name: "api forbidden", err: &api.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, want: RecipientUnreachable},
		{name: "never started", err: errors.New("Forbidden: bot can't initiate conversation with a user"), want: RecipientUnreachable},
		{name: "chat not found", err: errors.New("Bad Request: chat not found"), want: RecipientUnreachable},
		{name: "flood", err: &api.Error{Code: 429, Message: "Too Many Requests: retry after 5"}, want: OtherError},
		{name: "network", err: errors.New("dial tcp: i/o timeout"), want: OtherError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &senderStub{err: tt.err}
			err := NewTelegram(stub).SendDirect(context.Background(), 42, "hi", api.ModeMarkdownV2)
			if got := Classify(err); got != tt.want {
				t.Fatalf("Classify() = %v, want %v (err=%v)", got, tt.want, err)
			}
			if tt.err != nil && !errors.Is(err, errs.ErrDelivery) {
				t.Fatalf("failure must match ErrDelivery: %v", err)
			}
			if len(stub.sent) != 1 {
				t.Fatalf("expected one send, got %d", len(stub.sent))
			}
			if stub.sent[0].ChatID != 42 || stub.sent[0].ParseMode != api.ModeMarkdownV2 {
				t.Fatalf("unexpected message: %#v", stub.sent[0])
			}
		})
	}
}

func TestTelegramSendRespectsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &senderStub{}
	err := NewTelegram(stub).SendTo(ctx, 555, "report", "")
	if !errors.Is(err, errs.ErrDeliveryFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled delivery failure, got %v", err)
	}
	if len(stub.sent) != 0 {
		t.Fatalf("nothing should be sent on a cancelled context")
	}
}
