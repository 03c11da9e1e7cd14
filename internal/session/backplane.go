package session

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"resumegen/internal/models"
)

const backplaneChannelPrefix = "resume:"

// backplaneEnvelope wraps a frame with the id of the hub that published it,
// so a hub can drop its own publications instead of re-delivering them.
type backplaneEnvelope struct {
	HubID    string         `json:"hubId"`
	ResumeID string         `json:"resumeId"`
	Frame    models.WSFrame `json:"frame"`
}

// RedisBackplane relays group broadcasts between hub processes over Redis
// pub/sub, one channel per resume id.
type RedisBackplane struct {
	rdb   *redis.Client
	hubID string
	log   *zap.Logger
}

func NewRedisBackplane(rdb *redis.Client, hubID string, log *zap.Logger) *RedisBackplane {
	return &RedisBackplane{rdb: rdb, hubID: hubID, log: log}
}

func (b *RedisBackplane) Publish(ctx context.Context, resumeID string, frame models.WSFrame) error {
	payload, err := json.Marshal(backplaneEnvelope{HubID: b.hubID, ResumeID: resumeID, Frame: frame})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, backplaneChannelPrefix+resumeID, payload).Err()
}

// Run subscribes to every resume channel and hands remote frames to deliver.
// Blocks until ctx is done or the subscription drops.
func (b *RedisBackplane) Run(ctx context.Context, deliver func(resumeID string, frame models.WSFrame)) {
	sub := b.rdb.PSubscribe(ctx, backplaneChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env backplaneEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("backplane payload unreadable", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if env.HubID == b.hubID {
				continue
			}
			deliver(env.ResumeID, env.Frame)
		}
	}
}
