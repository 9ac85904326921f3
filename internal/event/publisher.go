package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event 对外广播的状态变更消息
type Event struct {
	Name       string    `json:"name"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RedisPublisher 通过 Redis Pub/Sub 广播业务事件。
// 发布是尽力而为：失败只记日志，不影响已提交的业务事务。
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, event string, payload any) {
	body, err := json.Marshal(Event{
		Name:       event,
		Payload:    payload,
		OccurredAt: time.Now(),
	})
	if err != nil {
		p.logger.Warn("event marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, body).Err(); err != nil {
		p.logger.Warn("event publish failed", zap.String("event", event), zap.Error(err))
	}
}

// NoopPublisher 不依赖 Redis 的空实现，测试与单机部署用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event string, payload any) {}
