package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/quizadmin/core/notification"
)

type (
	templateRepository struct {
		db *templateTable
	}

	sessionRepository struct {
		db *sessionTable
	}

	logRepository struct {
		db    *logTable
		users *userTable
	}
)

var (
	// interface compliance checks
	_ notification.TemplateRepository = (*templateRepository)(nil)
	_ notification.SessionRepository  = (*sessionRepository)(nil)
	_ notification.LogRepository      = (*logRepository)(nil)
)

func NewTemplateRepository(db *DB) *templateRepository {
	return &templateRepository{db: db.template}
}

func (repo *templateRepository) GetTemplate(_ context.Context, kind notification.Kind, lang string) (notification.Template, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tmpl, ok := repo.db.table[notification.CacheKey(kind, lang)]; ok {
		return *tmpl, nil
	}
	return notification.Template{}, notification.ErrTemplateNotFound
}

func (repo *templateRepository) UpsertTemplate(_ context.Context, tmpl notification.Template) (notification.Template, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	key := notification.CacheKey(tmpl.Kind, tmpl.Language)
	if orig, ok := repo.db.table[key]; ok {
		tmpl.ID, tmpl.CreatedAt = orig.ID, orig.CreatedAt
	} else {
		repo.db.pk++
		tmpl.ID, tmpl.CreatedAt = repo.db.pk, now
	}
	tmpl.UpdatedAt = now
	repo.db.table[key] = &tmpl
	return tmpl, nil
}

func (repo *templateRepository) InsertTemplateIfMissing(_ context.Context, tmpl notification.Template) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := notification.CacheKey(tmpl.Kind, tmpl.Language)
	if _, ok := repo.db.table[key]; ok {
		return false, nil
	}
	repo.db.pk++
	now := time.Now().UTC()
	tmpl.ID, tmpl.CreatedAt, tmpl.UpdatedAt = repo.db.pk, now, now
	repo.db.table[key] = &tmpl
	return true, nil
}

func (repo *templateRepository) QueryTemplates(_ context.Context) ([]notification.Template, error) {
	repo.db.mutex.RLock()
	tmpls := make([]notification.Template, 0, len(repo.db.table))
	for _, tmpl := range repo.db.table {
		tmpls = append(tmpls, *tmpl)
	}
	repo.db.mutex.RUnlock()

	sort.Slice(tmpls, func(i, j int) bool {
		if tmpls[i].Kind != tmpls[j].Kind {
			return tmpls[i].Kind < tmpls[j].Kind
		}
		return tmpls[i].Language < tmpls[j].Language
	})
	return tmpls, nil
}

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session}
}

// Session is a stored exam session joined with its examinee and assignment, as the exam runner leaves it.
// Answered and UngradedManual count the session's answer rows.
type Session struct {
	ID             int
	Email          string
	FullName       string
	Language       string
	TopicName      string
	AssignmentName string
	Score          *float64
	PassingScore   *float64
	ShowResults    *bool
	TotalQuestions int
	Correct        int
	Answered       int
	UngradedManual int
	Status         string
	EmailSent      bool
}

func (s Session) snapshot() notification.Snapshot {
	snap := notification.Snapshot{
		SessionID:         s.ID,
		Email:             s.Email,
		FullName:          s.FullName,
		Language:          s.Language,
		ExamName:          notification.ExamDisplayName(s.AssignmentName, s.TopicName),
		TopicName:         s.TopicName,
		AssignmentName:    s.AssignmentName,
		PassingScore:      s.PassingScore,
		ShowResults:       s.ShowResults,
		Correct:           s.Correct,
		TotalQuestions:    s.TotalQuestions,
		HasUngradedManual: s.UngradedManual > 0,
		Status:            s.Status,
		EmailSent:         s.EmailSent,
	}
	if snap.Language == "" {
		snap.Language = "en"
	}
	if s.Score != nil {
		score := notification.RoundScore(*s.Score)
		snap.Score = &score
	}
	snap.Incorrect, snap.Unanswered = notification.DeriveCounts(s.TotalQuestions, s.Correct, s.Answered)
	return snap
}

// SaveSession inserts or replaces a session record.
func (repo *sessionRepository) SaveSession(s Session) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[s.ID] = &s
}

func (repo *sessionRepository) FetchSnapshot(_ context.Context, sessionID int) (notification.Snapshot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[sessionID]; ok {
		return s.snapshot(), nil
	}
	return notification.Snapshot{}, notification.ErrSessionNotFound
}

func (repo *sessionRepository) MarkEmailSent(_ context.Context, sessionID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.table[sessionID]
	if !ok {
		return notification.ErrSessionNotFound
	}
	s.EmailSent = true
	return nil
}

func NewLogRepository(db *DB) *logRepository {
	return &logRepository{db: db.log, users: db.user}
}

func (repo *logRepository) AppendLog(_ context.Context, entry notification.LogEntry) (notification.LogEntry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	entry.ID = len(repo.db.rows) + 1
	entry.SentByName = ""
	repo.db.rows = append(repo.db.rows, entry)
	return entry, nil
}

func (repo *logRepository) QueryLog(_ context.Context, sessionID int) ([]notification.LogEntry, error) {
	repo.db.mutex.RLock()
	entries := make([]notification.LogEntry, 0)
	for _, e := range repo.db.rows {
		if e.SessionID == sessionID {
			entries = append(entries, e)
		}
	}
	repo.db.mutex.RUnlock()

	repo.users.mutex.RLock()
	for i := range entries {
		if usr, ok := repo.users.table[entries[i].SentBy]; ok {
			entries[i].SentByName = usr.FullName
		}
	}
	repo.users.mutex.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].SentAt.Equal(entries[j].SentAt) {
			return entries[i].SentAt.After(entries[j].SentAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}
