package chat

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxReportReason      = 200
	maxReportDescription = 2000
)

// Report is a participant's complaint about a message, kept for moderation.
type Report struct {
	ID          string    `db:"id"`
	MessageID   string    `db:"message_id"`
	ChatID      string    `db:"conversation_id"`
	ReporterID  string    `db:"reporter_id"`
	Reason      string    `db:"reason"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewReport validates a report against msg. Membership is checked by the caller.
func NewReport(msg Message, reporterID, reason, description string, now time.Time) (Report, error) {
	reason = strings.TrimSpace(reason)
	description = strings.TrimSpace(description)
	switch {
	case reporterID == "":
		return Report{}, Invalid("reporter is required")
	case reason == "":
		return Report{}, Invalid("report reason is required")
	case utf8.RuneCountInString(reason) > maxReportReason:
		return Report{}, Invalid("report reason is longer than %d characters", maxReportReason)
	case utf8.RuneCountInString(description) > maxReportDescription:
		return Report{}, Invalid("description is longer than %d characters", maxReportDescription)
	}
	return Report{
		MessageID:   msg.ID,
		ChatID:      msg.ChatID,
		ReporterID:  reporterID,
		Reason:      reason,
		Description: description,
		CreatedAt:   now.UTC(),
	}, nil
}
