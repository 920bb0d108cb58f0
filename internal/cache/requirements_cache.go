package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/battery-scm/backend-go/internal/config"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
)

const (
	requirementsKeyPrefix     = "mrp:requirements"
	requirementsScanBatchSize = 100
	defaultRequirementsTTL    = 30 * time.Second
)

// RequirementsCache holds filtered MRP reports until the next stock or
// production write invalidates them.
type RequirementsCache interface {
	GetReport(ctx context.Context, filter domain.RequirementsFilter) (*domain.RequirementsReport, bool, error)
	SetReport(ctx context.Context, filter domain.RequirementsFilter, report *domain.RequirementsReport) error
	InvalidateAll(ctx context.Context) error
}

type redisRequirementsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRequirementsCache struct{}

func NewRequirementsCache(cfg config.CacheConfig) (RequirementsCache, error) {
	if !cfg.Enabled {
		return &noopRequirementsCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("requirements cache unreachable: %w", err)
	}

	return NewRedisRequirementsCache(client, requirementsTTL(cfg)), nil
}

// redisOptions prefers REDIS_URL and falls back to host, port and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func requirementsTTL(cfg config.CacheConfig) time.Duration {
	if ttl := time.Duration(cfg.RequirementsTTLSeconds) * time.Second; ttl > 0 {
		return ttl
	}
	return defaultRequirementsTTL
}

// NewRedisRequirementsCache uses an existing client.
func NewRedisRequirementsCache(client *redis.Client, ttl time.Duration) RequirementsCache {
	if ttl <= 0 {
		ttl = defaultRequirementsTTL
	}
	return &redisRequirementsCache{client: client, ttl: ttl}
}

func NewNoopRequirementsCache() RequirementsCache {
	return &noopRequirementsCache{}
}

func (c *redisRequirementsCache) GetReport(ctx context.Context, filter domain.RequirementsFilter) (*domain.RequirementsReport, bool, error) {
	payload, err := c.client.Get(ctx, buildRequirementsKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.RequirementsReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode requirements cache: %w", err)
	}
	return &report, true, nil
}

func (c *redisRequirementsCache) SetReport(ctx context.Context, filter domain.RequirementsFilter, report *domain.RequirementsReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode requirements cache: %w", err)
	}
	if err := c.client.Set(ctx, buildRequirementsKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached report, one SCAN page at a time.
func (c *redisRequirementsCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, requirementsKeyPrefix+":*", requirementsScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("scan requirements keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete requirements keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (n *noopRequirementsCache) GetReport(ctx context.Context, filter domain.RequirementsFilter) (*domain.RequirementsReport, bool, error) {
	return nil, false, nil
}

func (n *noopRequirementsCache) SetReport(ctx context.Context, filter domain.RequirementsFilter, report *domain.RequirementsReport) error {
	return nil
}

func (n *noopRequirementsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRequirementsKey(filter domain.RequirementsFilter) string {
	return fmt.Sprintf("%s:%s", requirementsKeyPrefix, requirementsFilterHash(filter))
}

func requirementsFilterHash(filter domain.RequirementsFilter) string {
	parts := []string{}

	if filter.ShortageOnly {
		parts = append(parts, "shortage_only=true")
	}
	if codes := normalizeCodes(filter.MaterialCodes); codes != "" {
		parts = append(parts, "materials="+codes)
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func normalizeCodes(values []string) string {
	c := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			c = append(c, v)
		}
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
