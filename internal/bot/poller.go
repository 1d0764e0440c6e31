package bot

import (
	"context"
	"fmt"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tarabot/internal/infra"
)

const defaultPollTimeout = 60

// Poller feeds long-polled updates through an UpdateProcessor, one at a time.
// Polling failures are reported on Errors; a single failing or panicking update
// is logged and skipped.
type Poller struct {
	source    UpdatesSource
	processor *UpdateProcessor
	config    api.UpdateConfig
	buffer    int

	errs   chan error
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewPoller(source UpdatesSource, processor *UpdateProcessor, buffer int) *Poller {
	config := api.NewUpdate(0)
	config.Timeout = defaultPollTimeout
	return &Poller{
		source:    source,
		processor: processor,
		config:    config,
		buffer:    buffer,
		errs:      make(chan error, 1),
	}
}

// Errors delivers at most one fatal polling error.
func (p *Poller) Errors() <-chan error {
	return p.errs
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	updates, pollErrs := GetUpdatesChans(runCtx, p.source, p.config, p.buffer)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for update := range updates {
			p.process(runCtx, &update)
		}
		if err, ok := <-pollErrs; ok && runCtx.Err() == nil {
			p.errs <- fmt.Errorf("get updates: %w", err)
		}
	}()
	return nil
}

func (p *Poller) process(ctx context.Context, update *api.Update) {
	err := infra.Guard("process_update", func() error {
		return p.processor.Process(ctx, update)
	})
	if err != nil {
		log.WithField("object", "Poller").
			WithField("update_id", update.UpdateID).
			WithField("error", err.Error()).
			Error("cant process update")
	}
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
