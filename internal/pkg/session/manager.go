// Package session is the Redis-backed session store: login tokens with
// a TTL keyed by buyer id, plus the gateway-routing entries the push
// gateway keeps per connected user. It replaces the process-global
// logged-in map the previous system carried.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"shopbank/internal/pkg/redis"
)

var ErrSessionNotFound = errors.New("session not found or expired")

const (
	tokenKeyPrefix   = "session:token:"
	gatewayKeyPrefix = "gateway:user:"
)

type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewManager(client *redis.Client, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{client: client, ttl: ttl}
}

// Create issues a fresh token for buyerID.
func (m *Manager) Create(ctx context.Context, buyerID string) (string, error) {
	token := uuid.NewString()
	err := m.client.GetClient().Set(ctx, tokenKeyPrefix+token, buyerID, m.ttl).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the buyer id behind token and slides its expiry.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	key := tokenKeyPrefix + token
	buyerID, err := m.client.GetClient().Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	_ = m.client.GetClient().Expire(ctx, key, m.ttl).Err()
	return buyerID, nil
}

// Delete ends a session; deleting an unknown token is a no-op.
func (m *Manager) Delete(ctx context.Context, token string) error {
	return m.client.GetClient().Del(ctx, tokenKeyPrefix+token).Err()
}

// SetUserGateway records which gateway node a user is connected to.
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.client.GetClient().Set(ctx, gatewayKeyPrefix+userID, nodeID, m.ttl).Err()
}

func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.client.GetClient().Get(ctx, gatewayKeyPrefix+userID).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrSessionNotFound
	}
	return nodeID, err
}

func (m *Manager) ClearUserGateway(ctx context.Context, userID string) error {
	return m.client.GetClient().Del(ctx, gatewayKeyPrefix+userID).Err()
}
