package notification

// Classify picks the notification kind for a session.
// Outstanding manual grading wins over everything, then hidden results, then the score check.
func Classify(s Snapshot) Kind {
	if s.HasUngradedManual {
		return KindPending
	}
	if !s.ResultsVisible() {
		return KindPending
	}
	if s.ScoreOrZero() >= s.PassingScoreOrDefault() {
		return KindPassed
	}
	return KindFailed
}
