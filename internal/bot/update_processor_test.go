package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
)

type handlerStub struct {
	name    string
	proceed bool
	err     error
	calls   *[]string
	panics  bool
}

func (h *handlerStub) Handle(_ context.Context, _ *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if h.panics {
		panic("handler exploded")
	}
	*h.calls = append(*h.calls, h.name)
	return h.proceed, h.err
}

func messageUpdate(date time.Time) *api.Update {
	return &api.Update{
		UpdateID: 1,
		Message: &api.Message{
			MessageID: 10,
			Date:      int(date.Unix()),
			Chat:      api.Chat{ID: -100, Type: "supergroup"},
			From:      &api.User{ID: 42},
			Text:      "hello",
		},
	}
}

func TestProcessStopsChainWhenHandlerDeclines(t *testing.T) {
	t.Parallel()

	var calls []string
	up := newUpdateProcessor(
		&handlerStub{name: "admin", proceed: false, calls: &calls},
		&handlerStub{name: "moderator", proceed: true, calls: &calls},
	)
	if err := up.Process(context.Background(), messageUpdate(time.Now())); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 1 || calls[0] != "admin" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestProcessWrapsHandlerError(t *testing.T) {
	t.Parallel()

	var calls []string
	want := errors.New("store down")
	up := newUpdateProcessor(&handlerStub{name: "moderator", err: want, calls: &calls})
	err := up.Process(context.Background(), messageUpdate(time.Now()))
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
}

func TestProcessSkipsOutdatedUpdates(t *testing.T) {
	t.Parallel()

	var calls []string
	up := newUpdateProcessor(&handlerStub{name: "moderator", proceed: true, calls: &calls})
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	up.now = func() time.Time { return now }

	if err := up.Process(context.Background(), messageUpdate(now.Add(-UpdateTimeout-time.Second))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("outdated update must be skipped, got %v", calls)
	}
	if err := up.Process(context.Background(), messageUpdate(now.Add(-time.Minute))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("fresh update must be handled, got %v", calls)
	}
}

func TestProcessNilUpdate(t *testing.T) {
	t.Parallel()

	if err := newUpdateProcessor().Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil update")
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *api.Message
		want string
	}{
		{name: "nil", msg: nil, want: ""},
		{name: "text", msg: &api.Message{Text: " hi "}, want: "hi"},
		{name: "caption only", msg: &api.Message{Caption: "photo caption"}, want: "photo caption"},
		{name: "text and caption", msg: &api.Message{Text: "a", Caption: "b"}, want: "a b"},
		{name: "poll", msg: &api.Message{Poll: &api.Poll{Question: "q?"}}, want: "q?"},
	}
	for _, tt := range tests {
		if got := ExtractText(tt.msg); got != tt.want {
			t.Fatalf("%s: ExtractText() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

type requesterStub struct {
	chattables []api.Chattable
	err        error
}

func (r *requesterStub) Request(c api.Chattable) (*api.APIResponse, error) {
	r.chattables = append(r.chattables, c)
	return &api.APIResponse{Ok: r.err == nil}, r.err
}

func TestDeleteChatMessage(t *testing.T) {
	t.Parallel()

	r := &requesterStub{}
	if err := DeleteChatMessage(context.Background(), r, -100, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cfg, ok := r.chattables[0].(api.DeleteMessageConfig)
	if !ok || cfg.MessageID != 7 || cfg.ChatID != -100 {
		t.Fatalf("unexpected request: %#v", r.chattables[0])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := DeleteChatMessage(ctx, r, -100, 8); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(r.chattables) != 1 {
		t.Fatalf("cancelled delete must not reach the API")
	}
}

type sourceStub struct {
	mu      sync.Mutex
	batches [][]api.Update
	offsets []int
}

func (s *sourceStub) GetUpdates(config api.UpdateConfig) ([]api.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, config.Offset)
	if len(s.batches) == 0 {
		return nil, errors.New("no more updates")
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func TestPollerProcessesUpdatesAndReportsPollErrors(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fresh := func(id int) api.Update {
		u := messageUpdate(now)
		u.UpdateID = id
		return *u
	}
	source := &sourceStub{batches: [][]api.Update{
		{fresh(5), fresh(6)},
		{fresh(6), fresh(7)},
	}}

	var (
		mu    sync.Mutex
		calls []string
	)
	recorder := handlerFunc(func(u *api.Update) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, "update")
	})
	poller := NewPoller(source, newUpdateProcessor(recorder), 10)

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case err := <-poller.Errors():
		if err == nil {
			t.Fatalf("expected polling error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not report the polling error")
	}
	if err := poller.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 3 {
		t.Fatalf("expected updates 5, 6 and 7 once each, got %d", len(calls))
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	if source.offsets[1] != 7 || source.offsets[2] != 8 {
		t.Fatalf("unexpected offsets: %v", source.offsets)
	}
}

func TestPollerSurvivesPanickingHandler(t *testing.T) {
	t.Parallel()

	u := messageUpdate(time.Now())
	poller := NewPoller(&sourceStub{}, newUpdateProcessor(&handlerStub{name: "boom", panics: true}), 1)
	poller.process(context.Background(), u)
}

type handlerFunc func(u *api.Update)

func (f handlerFunc) Handle(_ context.Context, u *api.Update, _ *api.Chat, _ *api.User) (bool, error) {
	f(u)
	return true, nil
}
