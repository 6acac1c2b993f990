package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
)

func Test_templateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(Open())

	_, err := repo.GetTemplate(ctx, notification.KindPassed, "en")
	assert.Equal(t, notification.ErrTemplateNotFound, err)

	inserted, err := repo.InsertTemplateIfMissing(ctx, notification.Template{Kind: notification.KindPassed, Language: "en", Subject: "S1", Body: "B1"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertTemplateIfMissing(ctx, notification.Template{Kind: notification.KindPassed, Language: "en", Subject: "S2", Body: "B2"})
	require.NoError(t, err)
	assert.False(t, inserted)

	saved, err := repo.UpsertTemplate(ctx, notification.Template{Kind: notification.KindPassed, Language: "en", Subject: "S3", Body: "B3"})
	require.NoError(t, err)
	got, err := repo.GetTemplate(ctx, notification.KindPassed, "en")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, "S3", got.Subject)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = repo.UpsertTemplate(ctx, notification.Template{Kind: notification.KindFailed, Language: "az", Subject: "S", Body: "B"})
	require.NoError(t, err)
	tmpls, err := repo.QueryTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, tmpls, 2)
	assert.Equal(t, notification.KindFailed, tmpls[0].Kind)
}

func Test_sessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(Open())
	score := 84.96

	repo.SaveSession(Session{ID: 1, Email: "a@b.co", Score: &score, TopicName: "Go"})

	snap, err := repo.FetchSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "en", snap.Language)
	assert.Equal(t, "Go", snap.ExamName)
	assert.Equal(t, 85.0, *snap.Score)

	require.NoError(t, repo.MarkEmailSent(ctx, 1))
	snap, _ = repo.FetchSnapshot(ctx, 1)
	assert.True(t, snap.EmailSent)

	_, err = repo.FetchSnapshot(ctx, 2)
	assert.Equal(t, notification.ErrSessionNotFound, err)
	assert.Equal(t, notification.ErrSessionNotFound, repo.MarkEmailSent(ctx, 2))
}

func Test_sessionRepository_derivedCounts(t *testing.T) {
	tests := []struct {
		name           string
		session        Session
		wantIncorrect  int
		wantUnanswered int
		wantUngraded   bool
	}{
		{name: "all answered", session: Session{TotalQuestions: 20, Correct: 17, Answered: 20}, wantIncorrect: 3},
		{name: "some unanswered", session: Session{TotalQuestions: 20, Correct: 17, Answered: 18}, wantIncorrect: 3, wantUnanswered: 2},
		{name: "no questions", session: Session{Correct: 3, Answered: 3}},
		{name: "ungraded manual answers", session: Session{TotalQuestions: 10, Correct: 5, Answered: 10, UngradedManual: 2}, wantIncorrect: 5, wantUngraded: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewSessionRepository(Open())
			tt.session.ID = 7
			repo.SaveSession(tt.session)

			snap, err := repo.FetchSnapshot(context.Background(), 7)
			require.NoError(t, err)
			if snap.Incorrect != tt.wantIncorrect || snap.Unanswered != tt.wantUnanswered {
				t.Errorf("counts = (%d, %d); want (%d, %d)", snap.Incorrect, snap.Unanswered, tt.wantIncorrect, tt.wantUnanswered)
			}
			if snap.HasUngradedManual != tt.wantUngraded {
				t.Errorf("HasUngradedManual = %v; want %v", snap.HasUngradedManual, tt.wantUngraded)
			}
		})
	}
}

func Test_logRepository(t *testing.T) {
	ctx := context.Background()
	db := Open()
	admin, err := NewUserRepository(db).CreateUser(ctx, user.User{Username: "admin", FullName: "The Admin"})
	require.NoError(t, err)

	repo := NewLogRepository(db)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, kind := range []notification.Kind{notification.KindFailed, notification.KindPassed} {
		_, err = repo.AppendLog(ctx, notification.LogEntry{
			SessionID: 3, SentBy: admin.ID, Kind: kind, Language: "en", SentAt: t0.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err = repo.AppendLog(ctx, notification.LogEntry{SessionID: 4, SentBy: admin.ID, Kind: notification.KindPending})
	require.NoError(t, err)

	entries, err := repo.QueryLog(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, notification.KindPassed, entries[0].Kind)
	assert.Equal(t, "The Admin", entries[0].SentByName)

	entries, err = repo.QueryLog(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func Test_userRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(Open())
	now := time.Now().UTC()

	ann, _ := repo.CreateUser(ctx, user.User{Username: "ann", Email: "ann@test.co", FullName: "Ann", Role: user.RoleAdmin, IsActive: true, CreatedAt: now})
	bob, _ := repo.CreateUser(ctx, user.User{Username: "bob", Email: "bob@test.co", FullName: "Bob", Role: user.RoleExaminee, IsActive: false, CreatedAt: now.Add(time.Hour)})

	assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "ann", "x@test.co"))
	assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "x", "bob@test.co"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "ann", "ann@test.co", ann))

	active := true
	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []user.User
	}{
		{name: "all, newest first", want: []user.User{bob, ann}},
		{name: "search", filter: &user.QueryFilter{Search: "BO"}, want: []user.User{bob}},
		{name: "role", filter: &user.QueryFilter{Roles: []string{user.RoleAdmin}}, want: []user.User{ann}},
		{name: "active", filter: &user.QueryFilter{IsActive: &active}, want: []user.User{ann}},
		{name: "by username", ordering: []core.DBOrdering{{Field: "username", Ascending: true}}, want: []user.User{ann, bob}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "bob@test.co"})
	require.NoError(t, err)
	assert.Equal(t, bob, got)
	_, err = repo.GetUser(ctx, user.GetFilter{ID: 42})
	assert.Equal(t, user.ErrNotFound, err)

	bob.IsActive = true
	updated, err := repo.UpdateUser(ctx, bob)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	_, err = repo.UpdateUser(ctx, user.User{ID: 42})
	assert.Equal(t, user.ErrNotFound, err)
}
