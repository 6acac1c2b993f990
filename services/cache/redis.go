package cachesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
)

const scanBatch = 100

// Redis shares cached templates between API instances.
// Every Redis failure is logged and treated as a miss.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger core.Logger
}

var _ notification.TemplateCache = (*Redis)(nil)

// NewRedisClient opens a client from the redis configuration.
func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Address,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewRedis(client *redis.Client, ttl time.Duration, prefix string, logger core.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *Redis) key(kind notification.Kind, lang string) string {
	return c.prefix + notification.CacheKey(kind, lang)
}

func (c *Redis) Get(ctx context.Context, kind notification.Kind, lang string) (notification.Template, bool) {
	raw, err := c.client.Get(ctx, c.key(kind, lang)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(fmt.Sprintf("template cache get: %v", err), err)
		}
		return notification.Template{}, false
	}
	var tmpl notification.Template
	if err = json.Unmarshal(raw, &tmpl); err != nil {
		c.logger.Warn(fmt.Sprintf("template cache decode: %v", err), err)
		return notification.Template{}, false
	}
	return tmpl, true
}

func (c *Redis) Set(ctx context.Context, tmpl notification.Template) {
	raw, err := json.Marshal(tmpl)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("template cache encode: %v", err), err)
		return
	}
	if err = c.client.Set(ctx, c.key(tmpl.Kind, tmpl.Language), raw, c.ttl).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("template cache set: %v", err), err)
	}
}

func (c *Redis) Delete(ctx context.Context, kind notification.Kind, lang string) {
	if err := c.client.Del(ctx, c.key(kind, lang)).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("template cache delete: %v", err), err)
	}
}

func (c *Redis) Clear(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			c.logger.Warn(fmt.Sprintf("template cache scan: %v", err), err)
			return
		}
		if len(keys) > 0 {
			if err = c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn(fmt.Sprintf("template cache clear: %v", err), err)
				return
			}
		}
		if cursor = next; cursor == 0 {
			return
		}
	}
}
