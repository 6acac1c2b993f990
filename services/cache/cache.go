package cachesvc

import (
	"github.com/pkg/errors"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
)

const redisKeyPrefix = "quizadmin:email_template:"

// NewTemplateCache returns the cache selected by conf.TemplateCache.Backend; "none" disables caching.
func NewTemplateCache(conf *core.Config, logger core.Logger) (notification.TemplateCache, error) {
	switch conf.TemplateCache.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(NewRedisClient(conf), conf.TemplateCache.TTL, redisKeyPrefix, logger), nil
	case "none":
		return nil, nil
	}
	return nil, errors.Errorf("unknown template cache backend %q", conf.TemplateCache.Backend)
}
