package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
)

const logColumns = "l.id, l.session_id, l.recipient_email, l.recipient_name, l.sent_by, l.email_type, l.language, l.sent_at"

type (
	logRepository struct {
		exec core.DBExecutor
	}

	logRow struct {
		ID             int         `db:"id"`
		SessionID      int         `db:"session_id"`
		RecipientEmail string      `db:"recipient_email"`
		RecipientName  null.String `db:"recipient_name"`
		SentBy         int         `db:"sent_by"`
		SentByName     null.String `db:"sent_by_name"`
		Kind           string      `db:"email_type"`
		Language       string      `db:"language"`
		SentAt         time.Time   `db:"sent_at"`
	}
)

var _ notification.LogRepository = (*logRepository)(nil) // interface compliance check

func NewLogRepository(exec core.DBExecutor) *logRepository {
	return &logRepository{exec: exec}
}

func (row logRow) entry() notification.LogEntry {
	return notification.LogEntry{
		ID:             row.ID,
		SessionID:      row.SessionID,
		RecipientEmail: row.RecipientEmail,
		RecipientName:  row.RecipientName.String,
		SentBy:         row.SentBy,
		SentByName:     row.SentByName.String,
		Kind:           notification.Kind(row.Kind),
		Language:       row.Language,
		SentAt:         row.SentAt.UTC(),
	}
}

func (repo logRepository) AppendLog(ctx context.Context, entry notification.LogEntry) (notification.LogEntry, error) {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	q := `INSERT INTO email_log (session_id, recipient_email, recipient_name, sent_by, email_type, language, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.exec.GetContext(ctx, &entry.ID, q,
		entry.SessionID,
		entry.RecipientEmail,
		null.NewString(entry.RecipientName, entry.RecipientName != ""),
		entry.SentBy,
		entry.Kind.String(),
		entry.Language,
		entry.SentAt.UTC(),
	)
	if err != nil {
		return notification.LogEntry{}, errors.Wrap(err, "inserting email log")
	}
	return entry, nil
}

func (repo logRepository) QueryLog(ctx context.Context, sessionID int) ([]notification.LogEntry, error) {
	var rows []logRow
	q := "SELECT " + logColumns + `, u.full_name AS sent_by_name
		FROM email_log l
		LEFT JOIN users u ON l.sent_by = u.id
		WHERE l.session_id = $1
		ORDER BY l.sent_at DESC, l.id DESC`
	if err := repo.exec.SelectContext(ctx, &rows, q, sessionID); err != nil {
		return nil, errors.Wrap(err, "querying email log")
	}
	entries := make([]notification.LogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}
