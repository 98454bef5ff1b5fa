package telephony

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue tracks per-agent hold-queue occupancy in Redis. Join and
// Leave are atomic Lua scripts; a TTL on the counter prevents leaked
// slots if a process crashes between join and leave.

type RedisQueue struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, ttl: 30 * time.Minute}
}

var queueJoinScript = redis.NewScript(`
-- KEYS[1] = queue counter key
-- ARGV[1] = max size (0 = unbounded)
-- ARGV[2] = ttl_ms
--
-- Returns the 1-based position, or 0 when the queue is full.
local pos = redis.call('INCR', KEYS[1])
if pos == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end

local max = tonumber(ARGV[1])
if max > 0 and pos > max then
  redis.call('DECR', KEYS[1])
  return 0
end
return pos
`)

var queueLeaveScript = redis.NewScript(`
-- KEYS[1] = queue counter key
local current = redis.call('DECR', KEYS[1])
if current <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

func queueKey(agentID string) string {
	return "callqueue:" + agentID
}

// Join reserves a slot. ok=false means the queue is at capacity.
func (q *RedisQueue) Join(ctx context.Context, agentID string, maxSize int) (int, bool, error) {
	if q.rdb == nil {
		return 0, false, fmt.Errorf("telephony: redis client is nil")
	}
	if agentID == "" {
		return 0, false, fmt.Errorf("telephony: agent id is required")
	}
	pos, err := queueJoinScript.Run(ctx, q.rdb, []string{queueKey(agentID)}, maxSize, q.ttl.Milliseconds()).Int()
	if err != nil {
		return 0, false, err
	}
	if pos == 0 {
		return 0, false, nil
	}
	return pos, true, nil
}

// Leave releases a slot, e.g. on a terminal status callback for a queued
// call.
func (q *RedisQueue) Leave(ctx context.Context, agentID string) error {
	if q.rdb == nil {
		return fmt.Errorf("telephony: redis client is nil")
	}
	if agentID == "" {
		return fmt.Errorf("telephony: agent id is required")
	}
	_, err := queueLeaveScript.Run(ctx, q.rdb, []string{queueKey(agentID)}).Result()
	return err
}
