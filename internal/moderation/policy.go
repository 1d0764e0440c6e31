package moderation

import (
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/tarabot/internal/db"
	"github.com/iamwavecut/tarabot/internal/notify"
	"github.com/iamwavecut/tarabot/internal/utils/text"
)

const (
	ReasonPrimary    = "Primary warning"
	ReasonSecond     = "Second warning"
	ReasonEscalation = "Third warning... escalation notice"
)

const (
	StatusDelivered   = "Delivered"
	StatusNotStarted  = "Not delivered: user has not started a chat with the bot"
	statusFailedLabel = "Not delivered: "
)

const noticeTemplate = `
*Moderation notice*
Messages in this group must be written in English\. Arabic script is not allowed here\.
Reason: *{{ .reason }}*
`

const reportTemplate = `
*Violation report*
User ID: ` + "`{{ .user_id }}`" + `
Name: {{ .name }}
Username: {{ .handle }}
Group: ` + "`{{ .group_id }}`" + `
Warnings: *{{ .count }}*
Reason: {{ .reason }}
Time: {{ .timestamp }} UTC
User notice: {{ .status }}
`

// IsViolation reports whether content breaks the language rule.
func IsViolation(content string) bool {
	return text.HasArabic(content)
}

// Tier maps a warning count to its reason text. Everything from 3 up is the same tier.
func Tier(count int) string {
	switch {
	case count <= 1:
		return ReasonPrimary
	case count == 2:
		return ReasonSecond
	default:
		return ReasonEscalation
	}
}

// DeliveryStatus renders the result of the violator notice for reviewer reports.
func DeliveryStatus(err error) string {
	switch notify.Classify(err) {
	case notify.Delivered:
		return StatusDelivered
	case notify.RecipientUnreachable:
		return StatusNotStarted
	default:
		return statusFailedLabel + err.Error()
	}
}

// Escape makes s safe for interpolation into a MarkdownV2 message.
func Escape(s string) string {
	return api.EscapeText(api.ModeMarkdownV2, strings.ReplaceAll(s, `\`, `\\`))
}

func composeNotice(reason string) string {
	return strings.TrimSpace(tool.ExecTemplate(noticeTemplate, map[string]any{
		"reason": Escape(reason),
	}))
}

type reportData struct {
	User     *db.UserIdentity
	GroupID  int64
	Count    int
	Reason   string
	At       time.Time
	Delivery string
}

func composeReport(r reportData) string {
	return strings.TrimSpace(tool.ExecTemplate(reportTemplate, map[string]any{
		"user_id":   r.User.ID,
		"name":      Escape(r.User.DisplayName()),
		"handle":    Escape(r.User.Handle()),
		"group_id":  r.GroupID,
		"count":     r.Count,
		"reason":    Escape(r.Reason),
		"timestamp": Escape(db.FormatTimestamp(r.At)),
		"status":    Escape(r.Delivery),
	}))
}
