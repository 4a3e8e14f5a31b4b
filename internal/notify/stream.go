package notify

import (
	"context"
	"fmt"

	rediscommon "farmacia-data/internal/common/redis"
)

// StreamPublisher 将流水事件写入 Redis Stream（XADD，近似 MAXLEN 裁剪）
type StreamPublisher struct {
	client *rediscommon.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *rediscommon.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) PublishMovement(ctx context.Context, ev MovementEvent) error {
	if _, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, ev); err != nil {
		return fmt.Errorf("publish movement %s: %w", ev.Movement.ID, err)
	}
	return nil
}
