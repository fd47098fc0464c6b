// api/db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/taskhub/api/logging"
	"github.com/dev-mohitbeniwal/taskhub/api/model"
)

var RedisClient *redis.Client

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

// RedisCache stores policy sets and users in Redis. Policy sets are encrypted
// with AES-GCM since they describe who may do what.
type RedisCache struct {
	client        *redis.Client
	encryptionKey []byte
	ttl           time.Duration
}

func NewRedisCache(client *redis.Client, encryptionKey []byte, ttl time.Duration) (*RedisCache, error) {
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}
	return &RedisCache{client: client, encryptionKey: encryptionKey, ttl: ttl}, nil
}

func (rc *RedisCache) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(rc.encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (rc *RedisCache) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(rc.encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Cached entries are keyed by a per-entry generation. Invalidation bumps the
// generation, so a fill computed before the bump is written under a key no
// reader asks for again.
func policySetGenKey(resource, action string) string {
	return fmt.Sprintf("policies:gen:%s:%s", action, resource)
}

func policySetKey(resource, action string, gen int64) string {
	return fmt.Sprintf("policies:%s:%s#%d", action, resource, gen)
}

func userGenKey(userID model.ID) string {
	return fmt.Sprintf("user:gen:%s", userID)
}

func userKey(userID model.ID, gen int64) string {
	return fmt.Sprintf("user:%s#%d", userID, gen)
}

// generation returns the current generation stored at key, 0 when unset.
func (rc *RedisCache) generation(ctx context.Context, key string) (int64, error) {
	gen, err := rc.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// CachePolicySet stores every policy bound to resource/action, including an
// empty set, under gen as returned by the GetCachedPolicySet miss that
// preceded the store read.
func (rc *RedisCache) CachePolicySet(ctx context.Context, resource, action string, gen int64, policies []*model.Policy) error {
	if policies == nil {
		policies = []*model.Policy{}
	}
	policiesJSON, err := json.Marshal(policies)
	if err != nil {
		return fmt.Errorf("failed to marshal policy set: %w", err)
	}

	encrypted, err := rc.encrypt(policiesJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt policy set: %w", err)
	}

	key := policySetKey(resource, action, gen)
	if err := rc.client.Set(ctx, key, base64.StdEncoding.EncodeToString(encrypted), rc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache policy set: %w", err)
	}

	logger.Debug("Policy set cached successfully", zap.String("key", key), zap.Int("count", len(policies)))
	return nil
}

// GetCachedPolicySet reports found=false on a cache miss. gen is the
// generation a subsequent CachePolicySet must be tagged with.
func (rc *RedisCache) GetCachedPolicySet(ctx context.Context, resource, action string) (policies []*model.Policy, gen int64, found bool, err error) {
	gen, err = rc.generation(ctx, policySetGenKey(resource, action))
	if err != nil {
		return nil, 0, false, err
	}

	key := policySetKey(resource, action, gen)
	encoded, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Policy set not found in cache", zap.String("key", key))
		return nil, gen, false, nil
	} else if err != nil {
		return nil, 0, false, fmt.Errorf("failed to get policy set from cache: %w", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to decode policy set: %w", err)
	}

	policiesJSON, err := rc.decrypt(encrypted)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to decrypt policy set: %w", err)
	}

	if err := json.Unmarshal(policiesJSON, &policies); err != nil {
		return nil, 0, false, fmt.Errorf("failed to unmarshal policy set: %w", err)
	}

	logger.Debug("Policy set retrieved from cache", zap.String("key", key), zap.Int("count", len(policies)))
	return policies, gen, true, nil
}

// InvalidatePolicySet retires every cached copy of the resource/action set,
// including fills still in flight.
func (rc *RedisCache) InvalidatePolicySet(ctx context.Context, resource, action string) error {
	key := policySetGenKey(resource, action)
	if err := rc.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached policy set: %w", err)
	}
	logger.Debug("Policy set invalidated", zap.String("key", key))
	return nil
}

// CacheUser stores user under gen as returned by the GetCachedUser miss that
// preceded the store read.
func (rc *RedisCache) CacheUser(ctx context.Context, gen int64, user *model.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := rc.client.Set(ctx, userKey(user.ID, gen), userJSON, rc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	logger.Debug("User cached successfully", zap.String("userID", string(user.ID)))
	return nil
}

// GetCachedUser returns a nil user on a miss.
func (rc *RedisCache) GetCachedUser(ctx context.Context, userID model.ID) (*model.User, int64, error) {
	gen, err := rc.generation(ctx, userGenKey(userID))
	if err != nil {
		return nil, 0, err
	}

	userJSON, err := rc.client.Get(ctx, userKey(userID, gen)).Result()
	if err == redis.Nil {
		logger.Debug("User not found in cache", zap.String("userID", string(userID)))
		return nil, gen, nil
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to get user from cache: %w", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	logger.Debug("User retrieved from cache", zap.String("userID", string(userID)))
	return &user, gen, nil
}

func (rc *RedisCache) InvalidateUser(ctx context.Context, userID model.ID) error {
	if err := rc.client.Incr(ctx, userGenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}
	logger.Debug("User invalidated in cache", zap.String("userID", string(userID)))
	return nil
}

// RateLimit records a hit for key and reports whether it is within limit
// hits per sliding window.
func (rc *RedisCache) RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := rc.client.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-per.Nanoseconds()))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := card.Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}
