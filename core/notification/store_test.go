package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/services/cache"
	"github.com/trezcool/quizadmin/storage/database/inmem"
	"github.com/trezcool/quizadmin/tests"
)

// countingRepo counts repository reads to observe the cache.
type countingRepo struct {
	notification.TemplateRepository

	mu    sync.Mutex
	gets  map[string]int
	fails error
}

func newCountingRepo(db *inmemdb.DB) *countingRepo {
	return &countingRepo{TemplateRepository: inmemdb.NewTemplateRepository(db), gets: make(map[string]int)}
}

func (r *countingRepo) GetTemplate(ctx context.Context, kind notification.Kind, lang string) (notification.Template, error) {
	r.mu.Lock()
	r.gets[notification.CacheKey(kind, lang)]++
	fails := r.fails
	r.mu.Unlock()
	if fails != nil {
		return notification.Template{}, fails
	}
	return r.TemplateRepository.GetTemplate(ctx, kind, lang)
}

func (r *countingRepo) count(kind notification.Kind, lang string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets[notification.CacheKey(kind, lang)]
}

func newStore(t *testing.T, repo notification.TemplateRepository, cache notification.TemplateCache) *notification.TemplateStore {
	validate, _ := testutil.NewValidator()
	return notification.NewTemplateStore(repo, cache, validate, testutil.NewConfig(), testutil.NewLogger(t))
}

func saveTemplate(t *testing.T, st *notification.TemplateStore, kind notification.Kind, lang, subj, body string) notification.Template {
	t.Helper()
	tmpl, err := st.Save(context.Background(), notification.SaveTemplate{Kind: kind.String(), Language: lang, Subject: subj, Body: body})
	require.NoError(t, err)
	return tmpl
}

func TestTemplateStore_roundTrip(t *testing.T) {
	for name, cache := range map[string]notification.TemplateCache{"cached": cachesvc.NewMemory(), "uncached": nil} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore(t, inmemdb.NewTemplateRepository(inmemdb.Open()), cache)

			saveTemplate(t, st, notification.KindPassed, "az", "Mövzu", "Salam {{full_name}}")
			got, err := st.Get(ctx, notification.KindPassed, "az")
			require.NoError(t, err)
			assert.Equal(t, "Mövzu", got.Subject)
			assert.Equal(t, "Salam {{full_name}}", got.Body)

			// update path replaces the pair and bumps updated_at
			saveTemplate(t, st, notification.KindPassed, "AZ ", "Yeni", "Yeni mətn")
			got, err = st.Get(ctx, notification.KindPassed, "az")
			require.NoError(t, err)
			assert.Equal(t, "Yeni", got.Subject)
			assert.Equal(t, "Yeni mətn", got.Body)
			assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

			all, err := st.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestTemplateStore_languageFallback(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, inmemdb.NewTemplateRepository(inmemdb.Open()), cachesvc.NewMemory())
	en := saveTemplate(t, st, notification.KindFailed, "en", "Results", "Body")

	tests := []struct {
		name    string
		kind    notification.Kind
		lang    string
		want    notification.Template
		wantErr error
	}{
		{name: "exact", kind: notification.KindFailed, lang: "en", want: en},
		{name: "falls back to default", kind: notification.KindFailed, lang: "az", want: en},
		{name: "empty language means default", kind: notification.KindFailed, lang: "", want: en},
		{name: "nothing in any language", kind: notification.KindPending, lang: "az", wantErr: notification.ErrTemplateNotFound},
		{name: "nothing in default", kind: notification.KindPending, lang: "en", wantErr: notification.ErrTemplateNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.Get(ctx, tt.kind, tt.lang)
			if pkgerrors.Cause(err) != tt.wantErr {
				t.Fatalf("Get() err = %v; wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateStore_cache(t *testing.T) {
	ctx := context.Background()
	repo := newCountingRepo(inmemdb.Open())
	cache := cachesvc.NewMemory()
	st := newStore(t, repo, cache)
	saveTemplate(t, st, notification.KindPassed, "en", "P-en", "b")
	saveTemplate(t, st, notification.KindFailed, "en", "F-en", "b")

	for i := 0; i < 3; i++ {
		_, err := st.Get(ctx, notification.KindPassed, "en")
		require.NoError(t, err)
		_, err = st.Get(ctx, notification.KindFailed, "en")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.count(notification.KindPassed, "en"))
	assert.Equal(t, 1, repo.count(notification.KindFailed, "en"))

	// saving one pair only invalidates its own key
	saveTemplate(t, st, notification.KindPassed, "en", "P-en v2", "b")
	got, err := st.Get(ctx, notification.KindPassed, "en")
	require.NoError(t, err)
	assert.Equal(t, "P-en v2", got.Subject)
	assert.Equal(t, 2, repo.count(notification.KindPassed, "en"))
	_, err = st.Get(ctx, notification.KindFailed, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.count(notification.KindFailed, "en"))

	// a fallback result is not cached under the requested language
	for i := 0; i < 2; i++ {
		_, err = st.Get(ctx, notification.KindFailed, "az")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.count(notification.KindFailed, "az"))
	_, ok := cache.Get(ctx, notification.KindFailed, "az")
	assert.False(t, ok)

	// once the language gets its own template it is served right away
	saveTemplate(t, st, notification.KindFailed, "az", "F-az", "b")
	got, err = st.Get(ctx, notification.KindFailed, "az")
	require.NoError(t, err)
	assert.Equal(t, "F-az", got.Subject)

	st.ClearCache(ctx)
	assert.Equal(t, 0, cache.Len())
}

func TestTemplateStore_storageError(t *testing.T) {
	repo := newCountingRepo(inmemdb.Open())
	repo.fails = errors.New("connection refused")
	st := newStore(t, repo, nil)

	_, err := st.Get(context.Background(), notification.KindPassed, "az")
	require.Error(t, err)
	assert.NotEqual(t, notification.ErrTemplateNotFound, pkgerrors.Cause(err))
	assert.Equal(t, 1, repo.count(notification.KindPassed, "az"), "no fallback on storage errors")
}

func TestTemplateStore_Save_validation(t *testing.T) {
	st := newStore(t, inmemdb.NewTemplateRepository(inmemdb.Open()), nil)

	tests := []struct {
		name string
		data notification.SaveTemplate
	}{
		{name: "unknown kind", data: notification.SaveTemplate{Kind: "graded", Language: "en", Subject: "s", Body: "b"}},
		{name: "missing language", data: notification.SaveTemplate{Kind: "passed", Subject: "s", Body: "b"}},
		{name: "bad language", data: notification.SaveTemplate{Kind: "passed", Language: "e1", Subject: "s", Body: "b"}},
		{name: "missing subject", data: notification.SaveTemplate{Kind: "passed", Language: "en", Body: "b"}},
		{name: "missing body", data: notification.SaveTemplate{Kind: "passed", Language: "en", Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := st.Save(context.Background(), tt.data); err == nil {
				t.Errorf("Save(%+v) succeeded; want a validation error", tt.data)
			}
		})
	}
}

func TestTemplateStore_SeedDefaultsAndReset(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, inmemdb.NewTemplateRepository(inmemdb.Open()), cachesvc.NewMemory())
	saveTemplate(t, st, notification.KindPassed, "en", "Custom", "Custom body")

	added, err := st.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	got, err := st.Get(ctx, notification.KindPassed, "en")
	require.NoError(t, err)
	assert.Equal(t, "Custom", got.Subject, "seeding keeps edited templates")

	added, err = st.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	reset, err := st.Reset(ctx, notification.KindPassed, "en")
	require.NoError(t, err)
	def, _ := notification.DefaultTemplate(notification.KindPassed, "en")
	assert.Equal(t, def.Subject, reset.Subject)
	got, err = st.Get(ctx, notification.KindPassed, "en")
	require.NoError(t, err)
	assert.Equal(t, def.Body, got.Body)

	_, err = st.Reset(ctx, notification.KindPassed, "fr")
	assert.Equal(t, notification.ErrTemplateNotFound, pkgerrors.Cause(err))
}

func TestTemplateStore_concurrentReaders(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, inmemdb.NewTemplateRepository(inmemdb.Open()), cachesvc.NewMemory())
	saveTemplate(t, st, notification.KindPassed, "en", "v0", "v0")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tmpl, err := st.Get(ctx, notification.KindPassed, "en")
				if err != nil {
					t.Errorf("Get() err = %v", err)
					return
				}
				if tmpl.Subject != tmpl.Body {
					t.Errorf("torn read: subject %q, body %q", tmpl.Subject, tmpl.Body)
					return
				}
			}
		}()
	}
	for _, v := range []string{"v1", "v2", "v3"} {
		saveTemplate(t, st, notification.KindPassed, "en", v, v)
	}
	wg.Wait()
}

// pausingRepo blocks the first GetTemplate after it has read the row, until released.
type pausingRepo struct {
	notification.TemplateRepository

	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) GetTemplate(ctx context.Context, kind notification.Kind, lang string) (notification.Template, error) {
	tmpl, err := r.TemplateRepository.GetTemplate(ctx, kind, lang)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return tmpl, err
}

func TestTemplateStore_fillDoesNotOutliveSave(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	saveTemplate(t, newStore(t, inmemdb.NewTemplateRepository(db), nil), notification.KindPassed, "en", "old", "old")

	repo := &pausingRepo{
		TemplateRepository: inmemdb.NewTemplateRepository(db),
		read:               make(chan struct{}),
		release:            make(chan struct{}),
	}
	st := newStore(t, repo, cachesvc.NewMemory())

	getDone := make(chan struct{})
	go func() {
		defer close(getDone)
		if _, err := st.Get(ctx, notification.KindPassed, "en"); err != nil {
			t.Errorf("Get() err = %v", err)
		}
	}()
	<-repo.read // the reader holds the old row and has not filled the cache yet

	saveDone := make(chan struct{})
	go func() {
		defer close(saveDone)
		if _, err := st.Save(ctx, notification.SaveTemplate{Kind: "passed", Language: "en", Subject: "new", Body: "new"}); err != nil {
			t.Errorf("Save() err = %v", err)
		}
	}()

	// give an unordered Save the chance to finish first
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	<-getDone
	<-saveDone

	got, err := st.Get(ctx, notification.KindPassed, "en")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Subject)
	assert.Equal(t, "new", got.Body)
}
