package notification

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Kind is the category of a result notification.
type Kind string

const (
	KindPassed  Kind = "passed"
	KindFailed  Kind = "failed"
	KindPending Kind = "pending"
)

// DefaultPassingScore applies when neither the assignment nor the exam sets one.
const DefaultPassingScore = 70.0

var kinds = []Kind{KindPassed, KindFailed, KindPending}

// Kinds returns every notification kind.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind maps a string such as "Passed" to its Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Errorf("unknown notification kind %q", s)
}

func (k Kind) String() string { return string(k) }

type (
	// Template is a stored (subject, body) pair for one kind and language.
	Template struct {
		ID        int       `json:"id"`
		Kind      Kind      `json:"kind"`
		Language  string    `json:"language"`
		Subject   string    `json:"subject"`
		Body      string    `json:"body"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// Snapshot is the read-only view of an exam session a notification is composed from.
	// Nil pointers mean the value is not stored anywhere.
	Snapshot struct {
		SessionID         int
		Email             string
		FullName          string
		Language          string
		ExamName          string
		TopicName         string
		AssignmentName    string
		Score             *float64
		PassingScore      *float64
		ShowResults       *bool
		Correct           int
		Incorrect         int
		Unanswered        int
		TotalQuestions    int
		HasUngradedManual bool
		Status            string
		EmailSent         bool
	}

	// Placeholders maps placeholder names to their rendered values.
	Placeholders map[string]string

	// LogEntry is one line of the append-only notification audit trail.
	LogEntry struct {
		ID             int       `json:"id"`
		SessionID      int       `json:"session_id"`
		RecipientEmail string    `json:"recipient_email"`
		RecipientName  string    `json:"recipient_name"`
		SentBy         int       `json:"sent_by"`
		SentByName     string    `json:"sent_by_name,omitempty"`
		Kind           Kind      `json:"kind"`
		Language       string    `json:"language"`
		SentAt         time.Time `json:"sent_at"` // UTC
	}

	// Notification is a composed, ready to deliver message.
	Notification struct {
		SessionID     int    `json:"session_id"`
		Recipient     string `json:"recipient"`
		RecipientName string `json:"recipient_name"`
		Kind          Kind   `json:"kind"`
		Language      string `json:"language"`
		Subject       string `json:"subject"`
		Body          string `json:"body"`
	}

	// SaveTemplate holds the fields an editor may set on a template.
	SaveTemplate struct {
		Kind     string `json:"kind" validate:"required,oneof=passed failed pending"`
		Language string `json:"language" validate:"required,min=2,max=8,alpha"`
		Subject  string `json:"subject" validate:"required"`
		Body     string `json:"body" validate:"required"`
	}

	// DraftRequest asks for a session's notification to be composed and delivered.
	DraftRequest struct {
		SessionID int      `json:"-"`
		Language  string   `json:"language" validate:"omitempty,min=2,max=8,alpha"`
		Override  string   `json:"override" validate:"omitempty,min=2,max=8,alpha"`
		SentBy    int      `json:"-"`
		Cc        []string `json:"cc" validate:"omitempty,recipient"`
		Bcc       []string `json:"bcc" validate:"omitempty,recipient"`
	}
)

// ScoreOrZero returns the session score, 0 when missing.
func (s Snapshot) ScoreOrZero() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// PassingScoreOrDefault returns the effective passing score, DefaultPassingScore when missing.
func (s Snapshot) PassingScoreOrDefault() float64 {
	if s.PassingScore == nil {
		return DefaultPassingScore
	}
	return *s.PassingScore
}

// ResultsVisible reports whether results may be shown; missing means visible.
func (s Snapshot) ResultsVisible() bool {
	return s.ShowResults == nil || *s.ShowResults
}

// DeriveCounts computes the incorrect and unanswered counts from the stored totals.
// Both are 0 when the session has no questions.
func DeriveCounts(total, correct, answered int) (incorrect, unanswered int) {
	if total <= 0 {
		return 0, 0
	}
	return total - correct, total - answered
}

// RoundScore rounds a stored score to one decimal, the precision results are reported with.
func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// ExamDisplayName prefers the assignment name, then the exam title, then "Exam".
func ExamDisplayName(assignmentName, topicName string) string {
	if assignmentName != "" {
		return assignmentName
	}
	if topicName != "" {
		return topicName
	}
	return "Exam"
}
