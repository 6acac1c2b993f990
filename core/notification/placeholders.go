package notification

import (
	"math"
	"strconv"
	"strings"
)

const (
	statusPassed    = "PASSED"
	statusNotPassed = "NOT PASSED"
)

type placeholderFunc func(s Snapshot) string

// placeholderNames is the documented order; every entry has a resolver in placeholderFuncs.
var (
	placeholderNames = []string{
		"full_name",
		"exam_name",
		"score",
		"passing_score",
		"status",
		"correct",
		"incorrect",
		"unanswered",
		"total_questions",
	}

	placeholderFuncs = map[string]placeholderFunc{
		"full_name": func(s Snapshot) string { return s.FullName },
		"exam_name": func(s Snapshot) string { return s.ExamName },
		"score": func(s Snapshot) string {
			if s.Score == nil {
				return "0"
			}
			return formatScore(math.Round(*s.Score*10) / 10)
		},
		"passing_score": func(s Snapshot) string {
			if s.PassingScore == nil {
				return strconv.Itoa(int(DefaultPassingScore))
			}
			return formatScore(*s.PassingScore)
		},
		// a plain score check, independent of Classify: pending sessions still get PASSED/NOT PASSED
		"status": func(s Snapshot) string {
			if s.ScoreOrZero() >= s.PassingScoreOrDefault() {
				return statusPassed
			}
			return statusNotPassed
		},
		"correct":         func(s Snapshot) string { return strconv.Itoa(s.Correct) },
		"incorrect":       func(s Snapshot) string { return strconv.Itoa(s.Incorrect) },
		"unanswered":      func(s Snapshot) string { return strconv.Itoa(s.Unanswered) },
		"total_questions": func(s Snapshot) string { return strconv.Itoa(s.TotalQuestions) },
	}
)

// PlaceholderNames returns the names templates may reference, in display order.
func PlaceholderNames() []string {
	out := make([]string, len(placeholderNames))
	copy(out, placeholderNames)
	return out
}

// BuildPlaceholders computes the value of every placeholder for a session.
func BuildPlaceholders(s Snapshot) Placeholders {
	p := make(Placeholders, len(placeholderNames))
	for _, name := range placeholderNames {
		p[name] = placeholderFuncs[name](s)
	}
	return p
}

// formatScore prints the shortest decimal form, always keeping one fractional digit (85 -> "85.0").
func formatScore(v float64) string {
	str := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return str
}
