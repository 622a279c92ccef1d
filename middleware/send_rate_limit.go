package middleware

import (
	"context"
	"time"

	"wanotify/config"
	"wanotify/models"
	"wanotify/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SendRateLimiter rate limits the outbound send endpoints (run-sequence and
// send-now) per user and workshop, so a stuck dashboard cannot flood groups.
func SendRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AppConfig.RateLimitSend,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			user := c.Locals("user").(*models.User)
			workshopID := c.Params("id")
			return utils.GenerateRateLimitKey(user.ID, workshopID, c.Path())
		},
		LimitReached: func(c *fiber.Ctx) error {
			user := c.Locals("user").(*models.User)
			utils.LogEvent("rate_limit_hit", map[string]interface{}{
				"user_id":  user.ID,
				"endpoint": c.Path(),
				"ip":       c.IP(),
			})

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many send requests. Please wait before sending again.",
				"retry_after": "1 minute",
			})
		},
		Storage: createRateLimitStorage(),
	})
}

// createRateLimitStorage creates a persistent storage for rate limiting
func createRateLimitStorage() fiber.Storage {
	if config.AppConfig.Redis.Enabled {
		return NewRedisStorage(config.AppConfig.Redis)
	}
	return nil
}

// RedisStorage implements fiber.Storage for Redis
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(config config.RedisConfig) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{
			Addr:     config.Address,
			Password: config.Password,
			DB:       config.DB,
		}),
	}
}

func (r *RedisStorage) Get(key string) ([]byte, error) {
	return r.client.Get(context.Background(), key).Bytes()
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	return r.client.Set(context.Background(), key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

func (r *RedisStorage) Reset() error {
	return r.client.FlushDB(context.Background()).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
