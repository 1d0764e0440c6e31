package moderation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iamwavecut/tarabot/internal/db"
	errs "github.com/iamwavecut/tarabot/internal/errors"
)

func TestTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  string
	}{
		{count: 1, want: ReasonPrimary},
		{count: 2, want: ReasonSecond},
		{count: 3, want: ReasonEscalation},
		{count: 10, want: ReasonEscalation},
	}
	for _, tt := range tests {
		if got := Tier(tt.count); got != tt.want {
			t.Fatalf("Tier(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
	if Tier(3) != Tier(10) {
		t.Fatalf("tiers above 3 must share the escalation text")
	}
}

func TestDeliveryStatus(t *testing.T) {
	t.Parallel()

	if got := DeliveryStatus(nil); got != StatusDelivered {
		t.Fatalf("nil error: %q", got)
	}
	blocked := fmt.Errorf("%w: Forbidden: bot was blocked by the user", errs.ErrRecipientUnreachable)
	if got := DeliveryStatus(blocked); got != StatusNotStarted {
		t.Fatalf("unreachable: %q", got)
	}
	other := fmt.Errorf("%w: %w", errs.ErrDeliveryFailed, errors.New("timeout"))
	if got := DeliveryStatus(other); !strings.HasPrefix(got, "Not delivered: ") || !strings.Contains(got, "timeout") {
		t.Fatalf("other: %q", got)
	}
}

func TestComposeReportEscapesUserText(t *testing.T) {
	t.Parallel()

	plain := composeReport(reportData{
		User:     &db.UserIdentity{ID: 42, FirstName: "Ali"},
		GroupID:  100,
		Count:    1,
		Reason:   ReasonPrimary,
		At:       time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Delivery: StatusDelivered,
	})
	hostile := composeReport(reportData{
		User:     &db.UserIdentity{ID: 42, FirstName: "*bold_", LastName: "`tick`", UserName: "a_b*"},
		GroupID:  100,
		Count:    1,
		Reason:   ReasonPrimary,
		At:       time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Delivery: StatusDelivered,
	})

	if !strings.Contains(hostile, "Name: \\*bold\\_ \\`tick\\`\n") {
		t.Fatalf("name not escaped:\n%s", hostile)
	}
	if !strings.Contains(hostile, "Username: @a\\_b\\*\n") {
		t.Fatalf("handle not escaped:\n%s", hostile)
	}
	if got, want := strings.Count(hostile, "\n"), strings.Count(plain, "\n"); got != want {
		t.Fatalf("report structure changed: %d lines vs %d", got, want)
	}
	// Unescaped markup only comes from the template itself.
	if unescapedMarkup(hostile) != unescapedMarkup(plain) {
		t.Fatalf("user text introduced markup:\n%s", hostile)
	}
}

func TestComposeReportPlaceholders(t *testing.T) {
	t.Parallel()

	report := composeReport(reportData{
		User:     &db.UserIdentity{ID: 7},
		GroupID:  -100123,
		Count:    3,
		Reason:   ReasonEscalation,
		At:       time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Delivery: StatusNotStarted,
	})
	for _, want := range []string{
		"User ID: `7`",
		"Name: N/A",
		"Username: NoUsername",
		"Group: `-100123`",
		"Warnings: *3*",
		"Reason: Third warning\\.\\.\\. escalation notice",
		"Time: 2026\\-10\\-16 12:00:00 UTC",
		"User notice: Not delivered: user has not started a chat with the bot",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestComposeNotice(t *testing.T) {
	t.Parallel()

	notice := composeNotice(ReasonSecond)
	if !strings.HasPrefix(notice, "*Moderation notice*") {
		t.Fatalf("unexpected notice:\n%s", notice)
	}
	if !strings.Contains(notice, "Reason: *Second warning*") {
		t.Fatalf("notice missing reason:\n%s", notice)
	}
}

func TestEscapeBackslash(t *testing.T) {
	t.Parallel()

	if got := Escape(`a\b.`); got != `a\\b\.` {
		t.Fatalf("Escape() = %q", got)
	}
}

func unescapedMarkup(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '*' || s[i] == '_' || s[i] == '`' {
			n++
		}
	}
	return n
}
