package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"telemon/internal/alert"
	"telemon/internal/sink"
	"telemon/internal/telemetry"
)

const (
	stateKey         = "vehicle:telemetry:state"
	stateTTL         = 30 * time.Second
	telemetryChannel = "vehicle:telemetry"
	alertsChannel    = "vehicle:alerts"
)

// RedisMirror keeps the latest snapshot in Redis for dashboards and fans
// alerts out over pub/sub. It mirrors live state only; history stays out.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror connects to Redis and verifies the connection.
func NewRedisMirror(ctx context.Context, addr, password string, db int) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMirror{client: client}, nil
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}

func (m *RedisMirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// MirrorSnapshot writes the latest snapshot under a TTL and publishes it for
// live subscribers. Called once per scheduler tick.
func (m *RedisMirror) MirrorSnapshot(ctx context.Context, snap telemetry.Snapshot) error {
	stateData := map[string]interface{}{
		"speed_kmh":         snap.SpeedKmh,
		"battery_soc":       snap.BatterySoC,
		"tire_pressure_psi": snap.TirePressurePsi,
		"taken_at":          snap.TakenAt.Unix(),
	}

	pubPayload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := m.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.Publish(ctx, telemetryChannel, pubPayload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Dispatch publishes each alert event over pub/sub, satisfying sink.Sink.
func (m *RedisMirror) Dispatch(ctx context.Context, alerts []alert.Alert) error {
	for _, a := range alerts {
		payload, err := json.Marshal(sink.NewEvent(a))
		if err != nil {
			return fmt.Errorf("failed to marshal alert event: %w", err)
		}
		if err := m.client.Publish(ctx, alertsChannel, payload).Err(); err != nil {
			return fmt.Errorf("redis publish failed: %w", err)
		}
	}
	return nil
}
