package cachesvc

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
	logsvc "github.com/trezcool/quizadmin/services/logger"
)

func testLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger
}

func newTemplate(kind notification.Kind, lang, subject string) notification.Template {
	return notification.Template{Kind: kind, Language: lang, Subject: subject, Body: "Dear {{full_name}}"}
}

// exercise runs the same contract checks against any TemplateCache.
func exercise(t *testing.T, cache notification.TemplateCache) {
	ctx := context.Background()

	_, ok := cache.Get(ctx, notification.KindPassed, "en")
	assert.False(t, ok, "empty cache hit")

	cache.Set(ctx, newTemplate(notification.KindPassed, "en", "passed en"))
	cache.Set(ctx, newTemplate(notification.KindPassed, "az", "passed az"))
	cache.Set(ctx, newTemplate(notification.KindFailed, "en", "failed en"))

	tmpl, ok := cache.Get(ctx, notification.KindPassed, "az")
	require.True(t, ok)
	assert.Equal(t, "passed az", tmpl.Subject)

	// invalidation only touches its own key
	cache.Delete(ctx, notification.KindPassed, "en")
	_, ok = cache.Get(ctx, notification.KindPassed, "en")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, notification.KindPassed, "az")
	assert.True(t, ok)
	_, ok = cache.Get(ctx, notification.KindFailed, "en")
	assert.True(t, ok)

	cache.Clear(ctx)
	_, ok = cache.Get(ctx, notification.KindPassed, "az")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, notification.KindFailed, "en")
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemory_InstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := NewMemory(), NewMemory()
	a.Set(ctx, newTemplate(notification.KindPending, "en", "pending"))

	_, ok := b.Get(ctx, notification.KindPending, "en")
	assert.False(t, ok)
	assert.Equal(t, 1, a.Len())
}

func TestMemory_ConcurrentReadersSeeWholeEntries(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()
	cache.Set(ctx, newTemplate(notification.KindPassed, "en", "v0"))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				subj := fmt.Sprintf("v%d-%d", w, i)
				cache.Set(ctx, notification.Template{Kind: notification.KindPassed, Language: "en", Subject: subj, Body: subj})
				if i%10 == 0 {
					cache.Delete(ctx, notification.KindPassed, "en")
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if tmpl, ok := cache.Get(ctx, notification.KindPassed, "en"); ok && tmpl.Subject != "v0" {
					assert.Equal(t, tmpl.Subject, tmpl.Body, "torn entry")
				}
			}
		}()
	}
	wg.Wait()
}

func newRedisCache(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ttl, "test:", testLogger()), mr
}

func TestRedis(t *testing.T) {
	cache, _ := newRedisCache(t, time.Hour)
	exercise(t, cache)
}

func TestRedis_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t, time.Minute)
	require.NoError(t, mr.Set("other:key", "keep"))

	cache.Set(ctx, newTemplate(notification.KindFailed, "az", "failed az"))
	assert.True(t, mr.Exists("test:failed_az"))

	cache.Clear(ctx)
	assert.False(t, mr.Exists("test:failed_az"))
	assert.True(t, mr.Exists("other:key"), "clear must stay inside the prefix")

	cache.Set(ctx, newTemplate(notification.KindFailed, "az", "failed az"))
	mr.FastForward(2 * time.Minute)
	_, ok := cache.Get(ctx, notification.KindFailed, "az")
	assert.False(t, ok, "entry should have expired")
}

func TestRedis_FailuresAreMisses(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t, time.Hour)
	cache.Set(ctx, newTemplate(notification.KindPassed, "en", "passed"))

	mr.Close()
	_, ok := cache.Get(ctx, notification.KindPassed, "en")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		cache.Set(ctx, newTemplate(notification.KindPassed, "en", "passed"))
		cache.Delete(ctx, notification.KindPassed, "en")
		cache.Clear(ctx)
	})
}

func TestNewTemplateCache(t *testing.T) {
	conf := &core.Config{}

	conf.TemplateCache.Backend = "memory"
	cache, err := NewTemplateCache(conf, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, cache)

	conf.TemplateCache.Backend = "none"
	cache, err = NewTemplateCache(conf, testLogger())
	require.NoError(t, err)
	assert.Nil(t, cache)

	conf.TemplateCache.Backend = "memcached"
	_, err = NewTemplateCache(conf, testLogger())
	assert.Error(t, err)
}
