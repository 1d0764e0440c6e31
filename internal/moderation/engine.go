// Package moderation decides what happens to a group message: whether it is a
// violation, how the sender's warning count moves, and who gets told about it.
package moderation

import (
	"context"
	"sync/atomic"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/tarabot/internal/db"
	"github.com/iamwavecut/tarabot/internal/notify"
	"github.com/iamwavecut/tarabot/internal/observability"
)

var tracer = otel.Tracer("github.com/iamwavecut/tarabot/internal/moderation")

const (
	defaultNotifyTimeout    = 10 * time.Second
	defaultMaxParallelSends = 8
)

type Config struct {
	NotifyTimeout    time.Duration
	MaxParallelSends int
}

// Message is a group message as seen by the engine.
type Message struct {
	GroupID   int64
	MessageID int
	Sender    db.UserIdentity
	Text      string
}

// Incident describes a handled violation after the ledger has committed it.
type Incident struct {
	ID             string
	UserID         int64
	GroupID        int64
	MessageID      int
	Count          int
	Reason         string
	At             time.Time
	Delivery       notify.Outcome
	DeliveryStatus string
	Reviewers      int
	Reported       int
}

type Engine struct {
	deps    Dependencies
	config  Config
	metrics *observability.Metrics
	now     func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(deps Dependencies, config Config, opts ...Option) *Engine {
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = defaultNotifyTimeout
	}
	if config.MaxParallelSends <= 0 {
		config.MaxParallelSends = defaultMaxParallelSends
	}
	e := &Engine{
		deps:   deps,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage processes one message from a group. It returns a nil incident
// for unmonitored groups and clean messages. Ledger failures abort before any
// notification is sent; delivery failures never surface as errors.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) (_ *Incident, err error) {
	done := e.metrics.StartMessageProcessing()
	status := "ignored"
	defer func() {
		if err != nil {
			status = "error"
		}
		done(status)
	}()

	ctx, span := tracer.Start(ctx, "moderation.HandleMessage")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("group_id", msg.GroupID),
		attribute.Int64("user_id", msg.Sender.ID),
	)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	entry := e.getLogEntry().WithFields(log.Fields{
		"group_id": msg.GroupID,
		"user_id":  msg.Sender.ID,
	})

	monitored, err := e.deps.Groups.IsGroupMonitored(ctx, msg.GroupID)
	if err != nil {
		return nil, errors.WithMessage(err, "check group")
	}
	if !monitored {
		return nil, nil
	}

	sender := msg.Sender
	if err := e.deps.Identities.UpsertUser(ctx, &sender); err != nil {
		entry.WithField("error", err.Error()).Error("failed to upsert identity")
	}

	if !IsViolation(msg.Text) {
		status = "clean"
		return nil, nil
	}

	count, err := e.deps.Ledger.Increment(ctx, msg.Sender.ID, msg.GroupID)
	if err != nil {
		entry.WithField("error", err.Error()).Error("failed to record warning")
		return nil, errors.WithMessage(err, "increment warnings")
	}
	status = "violation"
	e.metrics.RecordViolation(count)

	incident := &Incident{
		ID:        uuid.New(),
		UserID:    msg.Sender.ID,
		GroupID:   msg.GroupID,
		MessageID: msg.MessageID,
		Count:     count,
		Reason:    Tier(count),
		At:        e.now().UTC(),
	}
	span.SetAttributes(attribute.String("incident_id", incident.ID), attribute.Int("count", count))
	entry = entry.WithFields(log.Fields{
		"incident": incident.ID,
		"count":    count,
	})

	noticeErr := e.send(ctx, msg.Sender.ID, composeNotice(incident.Reason), true)
	incident.Delivery = notify.Classify(noticeErr)
	incident.DeliveryStatus = DeliveryStatus(noticeErr)
	e.metrics.RecordNotification("violator", incident.Delivery.String())
	if noticeErr != nil {
		entry.WithField("error", noticeErr.Error()).Warn("violator notice not delivered")
	}

	reviewers, err := e.deps.Reviewers.ReviewersFor(ctx, msg.GroupID)
	if err != nil {
		entry.WithField("error", err.Error()).Error("failed to look up reviewers")
		return incident, errors.WithMessage(err, "look up reviewers")
	}
	incident.Reviewers = len(reviewers)

	report := composeReport(reportData{
		User:     &sender,
		GroupID:  msg.GroupID,
		Count:    count,
		Reason:   incident.Reason,
		At:       incident.At,
		Delivery: incident.DeliveryStatus,
	})
	incident.Reported = e.fanOut(ctx, entry, reviewers, report)

	entry.WithFields(log.Fields{
		"reviewers": incident.Reviewers,
		"reported":  incident.Reported,
		"delivery":  incident.Delivery.String(),
	}).Info("violation handled")
	return incident, nil
}

// fanOut sends the report to every reviewer concurrently and returns how many
// sends succeeded. A failing recipient does not affect the others.
func (e *Engine) fanOut(ctx context.Context, entry *log.Entry, reviewers []int64, report string) int {
	var (
		g         errgroup.Group
		delivered atomic.Int64
	)
	g.SetLimit(e.config.MaxParallelSends)
	for _, reviewerID := range reviewers {
		g.Go(func() error {
			err := e.send(ctx, reviewerID, report, false)
			e.metrics.RecordNotification("reviewer", notify.Classify(err).String())
			if err != nil {
				entry.WithFields(log.Fields{
					"reviewer_id": reviewerID,
					"error":       err.Error(),
				}).Warn("report not delivered")
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(delivered.Load())
}

func (e *Engine) send(ctx context.Context, recipientID int64, text string, direct bool) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.NotifyTimeout)
	defer cancel()
	if direct {
		return e.deps.Notifier.SendDirect(ctx, recipientID, text, api.ModeMarkdownV2)
	}
	return e.deps.Notifier.SendTo(ctx, recipientID, text, api.ModeMarkdownV2)
}

func (e *Engine) getLogEntry() *log.Entry {
	return log.WithField("object", "Engine")
}
