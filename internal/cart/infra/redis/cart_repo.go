package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

const (
	keyPrefix = "cart:"
	cartField = "cart"
)

type Config struct {
	Addr string
	// TTL expires idle carts; zero keeps them forever.
	TTL time.Duration
}

// CartRepo stores each session's cart as a JSON document in a redis hash.
type CartRepo struct {
	client *goredis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewCartRepo(cfg Config, log *slog.Logger) *CartRepo {
	opts, err := goredis.ParseURL(cfg.Addr)
	if err != nil {
		opts = &goredis.Options{
			Addr:         cfg.Addr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}
	return NewCartRepoWithClient(goredis.NewClient(opts), cfg.TTL, log)
}

func NewCartRepoWithClient(client *goredis.Client, ttl time.Duration, log *slog.Logger) *CartRepo {
	if log == nil {
		log = slog.Default()
	}
	return &CartRepo{client: client, ttl: ttl, log: log}
}

// Initialize waits for redis to answer a ping, backing off exponentially up
// to attempts times.
func (r *CartRepo) Initialize(ctx context.Context, attempts int) error {
	for i := 0; i < attempts; i++ {
		if r.Ping(ctx) {
			r.log.Info("redis cart store ready", slog.Int("attempt", i+1))
			return nil
		}

		backoff := time.Duration(1<<uint(i)) * 250 * time.Millisecond
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
		r.log.Warn("redis not ready", slog.Int("attempt", i+1), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis not reachable after %d attempts", attempts)
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *CartRepo) Get(ctx context.Context, sessionID string) (domain.CartState, error) {
	val, err := r.client.HGet(ctx, key(sessionID), cartField).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.CartState{SessionID: sessionID}, nil
	}
	if err != nil {
		return domain.CartState{}, fmt.Errorf("redis hget: %w", err)
	}
	return decodeState(sessionID, val)
}

func (r *CartRepo) Save(ctx context.Context, state domain.CartState) error {
	bin, err := encodeState(state)
	if err != nil {
		return err
	}

	k := key(state.SessionID)
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, k, cartField, bin)
		if r.ttl > 0 {
			p.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *CartRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *CartRepo) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.Debug("redis ping failed", slog.Any("err", err))
		return false
	}
	return true
}

func (r *CartRepo) Close() error {
	return r.client.Close()
}

func encodeState(state domain.CartState) ([]byte, error) {
	bin, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return bin, nil
}

func decodeState(sessionID string, bin []byte) (domain.CartState, error) {
	var state domain.CartState
	if err := json.Unmarshal(bin, &state); err != nil {
		return domain.CartState{}, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	state.SessionID = sessionID
	return state, nil
}
