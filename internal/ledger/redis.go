package ledger

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/example/concierge-orchestrator/internal/models"
)

type RedisConfig struct {
    Address  string
    Password string
    DB       int
    Prefix   string
    TTL      time.Duration
}

// RedisLedger stores one hash per call id, expiring after TTL.
type RedisLedger struct {
    client *redis.Client
    prefix string
    ttl    time.Duration
}

func NewRedisLedger(ctx context.Context, cfg RedisConfig) (*RedisLedger, error) {
    if cfg.Address == "" {
        return nil, errors.New("redis address is empty")
    }
    prefix := cfg.Prefix
    if prefix == "" { prefix = "concierge:call:" }
    ttl := cfg.TTL
    if ttl <= 0 { ttl = 7 * 24 * time.Hour }
    client := redis.NewClient(&redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB})
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("connect redis: %w", err)
    }
    return &RedisLedger{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *RedisLedger) key(callID string) string { return r.prefix + callID }

func (r *RedisLedger) RecordDispatch(ctx context.Context, task models.CallTask, instruction string) error {
    e := dispatchEntry(task, instruction, time.Now())
    return r.write(ctx, e.CallID, dispatchFields(e))
}

func (r *RedisLedger) RecordOutcome(ctx context.Context, callID string, res models.CorrelationResult) error {
    var e Entry
    e.applyOutcome(res, time.Now())
    return r.write(ctx, callID, outcomeFields(e))
}

func (r *RedisLedger) write(ctx context.Context, callID string, fields map[string]any) error {
    key := r.key(callID)
    fields["call_id"] = callID
    pipe := r.client.TxPipeline()
    pipe.HSet(ctx, key, fields)
    pipe.Expire(ctx, key, r.ttl)
    if _, err := pipe.Exec(ctx); err != nil {
        return fmt.Errorf("ledger write %s: %w", callID, err)
    }
    return nil
}

func (r *RedisLedger) Get(ctx context.Context, callID string) (*Entry, error) {
    m, err := r.client.HGetAll(ctx, r.key(callID)).Result()
    if err != nil { return nil, fmt.Errorf("ledger read %s: %w", callID, err) }
    if len(m) == 0 { return nil, ErrNotFound }
    e := entryFromFields(m)
    return &e, nil
}

func (r *RedisLedger) Close() error {
    if r == nil || r.client == nil { return nil }
    return r.client.Close()
}

func dispatchFields(e Entry) map[string]any {
    return map[string]any{
        "agent_id":      e.AgentID,
        "to_number":     e.ToNumber,
        "status":        e.Status,
        "instruction":   e.Instruction,
        "dispatched_at": e.DispatchedAt.UTC().Format(time.RFC3339Nano),
    }
}

func outcomeFields(e Entry) map[string]any {
    return map[string]any{
        "outcome":       e.Outcome,
        "event_id":      e.EventID,
        "reason":        e.Reason,
        "error":         e.Error,
        "correlated_at": e.CorrelatedAt.UTC().Format(time.RFC3339Nano),
    }
}

func entryFromFields(m map[string]string) Entry {
    e := Entry{
        CallID:      m["call_id"],
        AgentID:     m["agent_id"],
        ToNumber:    m["to_number"],
        Status:      m["status"],
        Instruction: m["instruction"],
        Outcome:     m["outcome"],
        EventID:     m["event_id"],
        Reason:      m["reason"],
        Error:       m["error"],
    }
    e.DispatchedAt, _ = time.Parse(time.RFC3339Nano, m["dispatched_at"])
    e.CorrelatedAt, _ = time.Parse(time.RFC3339Nano, m["correlated_at"])
    return e
}
