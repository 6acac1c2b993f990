package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
)

const (
	snapshotQuery = `SELECT
			es.id AS session_id,
			es.score,
			es.total_questions,
			es.correct_answers,
			es.status,
			es.email_sent,
			u.email,
			u.full_name,
			u.language_preference,
			e.title AS topic_name,
			ea.assignment_name,
			COALESCE(ea.passing_score, e.passing_score) AS passing_score,
			COALESCE(ea.show_results, e.show_results) AS show_results
		FROM exam_sessions es
		JOIN users u ON es.user_id = u.id
		LEFT JOIN exam_assignments ea ON es.assignment_id = ea.id
		LEFT JOIN exams e ON COALESCE(ea.exam_id, es.exam_id) = e.id
		WHERE es.id = $1`

	answeredCountQuery = `SELECT COUNT(*) FROM user_answers
		WHERE session_id = $1
		AND ((answer_text IS NOT NULL AND answer_text != '') OR selected_option_id IS NOT NULL)`

	ungradedCountQuery = `SELECT COUNT(*) FROM user_answers ua
		JOIN questions q ON ua.question_id = q.id
		WHERE ua.session_id = $1
		AND q.question_type IN ('essay', 'short_answer')
		AND ua.points_earned IS NULL
		AND ua.answer_text IS NOT NULL
		AND ua.answer_text != ''`
)

type (
	sessionRepository struct {
		exec core.DBExecutor
	}

	snapshotRow struct {
		SessionID      int          `db:"session_id"`
		Score          null.Float64 `db:"score"`
		TotalQuestions null.Int     `db:"total_questions"`
		CorrectAnswers null.Int     `db:"correct_answers"`
		Status         null.String  `db:"status"`
		EmailSent      bool         `db:"email_sent"`
		Email          string       `db:"email"`
		FullName       string       `db:"full_name"`
		Language       null.String  `db:"language_preference"`
		TopicName      null.String  `db:"topic_name"`
		AssignmentName null.String  `db:"assignment_name"`
		PassingScore   null.Float64 `db:"passing_score"`
		ShowResults    null.Bool    `db:"show_results"`
	}
)

var _ notification.SessionRepository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{exec: exec}
}

func (row snapshotRow) snapshot(answered int, hasUngraded bool) notification.Snapshot {
	snap := notification.Snapshot{
		SessionID:         row.SessionID,
		Email:             row.Email,
		FullName:          row.FullName,
		Language:          row.Language.String,
		ExamName:          notification.ExamDisplayName(row.AssignmentName.String, row.TopicName.String),
		TopicName:         row.TopicName.String,
		AssignmentName:    row.AssignmentName.String,
		PassingScore:      row.PassingScore.Ptr(),
		ShowResults:       row.ShowResults.Ptr(),
		Correct:           row.CorrectAnswers.Int,
		TotalQuestions:    row.TotalQuestions.Int,
		HasUngradedManual: hasUngraded,
		Status:            row.Status.String,
		EmailSent:         row.EmailSent,
	}
	if snap.Language == "" {
		snap.Language = "en"
	}
	if row.Score.Valid {
		score := notification.RoundScore(row.Score.Float64)
		snap.Score = &score
	}
	snap.Incorrect, snap.Unanswered = notification.DeriveCounts(snap.TotalQuestions, snap.Correct, answered)
	return snap
}

func (repo sessionRepository) FetchSnapshot(ctx context.Context, sessionID int) (notification.Snapshot, error) {
	var row snapshotRow
	if err := repo.exec.GetContext(ctx, &row, snapshotQuery, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return notification.Snapshot{}, notification.ErrSessionNotFound
		}
		return notification.Snapshot{}, errors.Wrap(err, "fetching session")
	}

	var answered, ungraded int
	if err := repo.exec.GetContext(ctx, &answered, answeredCountQuery, sessionID); err != nil {
		return notification.Snapshot{}, errors.Wrap(err, "counting answered questions")
	}
	if err := repo.exec.GetContext(ctx, &ungraded, ungradedCountQuery, sessionID); err != nil {
		return notification.Snapshot{}, errors.Wrap(err, "counting ungraded answers")
	}
	return row.snapshot(answered, ungraded > 0), nil
}

func (repo sessionRepository) MarkEmailSent(ctx context.Context, sessionID int) error {
	res, err := repo.exec.ExecContext(ctx, "UPDATE exam_sessions SET email_sent = true WHERE id = $1", sessionID)
	if err != nil {
		return errors.Wrap(err, "marking email sent")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "marking email sent")
	}
	if n == 0 {
		return notification.ErrSessionNotFound
	}
	return nil
}
