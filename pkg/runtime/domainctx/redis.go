package domainctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"paygrid/pkg/domain"
	"paygrid/pkg/platform/sentinel"
)

const (
	contextKeyPrefix = "paygrid:ctx:"
	domainKeyPrefix  = "paygrid:ctx:domain:"
)

// Redis is the Store used when several gateway replicas must share request
// contexts. Entries carry an optional safety TTL so a replica that dies
// mid-request cannot leak contexts forever; within the TTL the semantics
// match InMemory.
type Redis struct {
	client *redis.Client
	// ttl of 0 means no expiry, matching the caller-managed base contract.
	ttl time.Duration
}

// NewRedis creates a redis-backed store.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func contextKey(id domain.RequestID) string {
	return contextKeyPrefix + id.String()
}

func domainKey(d domain.Name) string {
	return domainKeyPrefix + d.String()
}

// Put stores or replaces the context and indexes it by domain.
func (s *Redis) Put(ctx context.Context, rc Context) error {
	if rc.RequestID.IsNil() {
		return fmt.Errorf("put context: empty request id: %w", sentinel.ErrInvalidState)
	}

	// A replace may move the request to another domain; drop the old index
	// entry first so ByDomain never reports it twice.
	if old, err := s.Get(ctx, rc.RequestID); err == nil && old.Domain != rc.Domain {
		if err := s.client.SRem(ctx, domainKey(old.Domain), rc.RequestID.String()).Err(); err != nil {
			return fmt.Errorf("unindex context %q: %w", rc.RequestID, sentinel.ErrUnavailable)
		}
	}

	payload, err := json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("encode context %q: %w", rc.RequestID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, contextKey(rc.RequestID), payload, s.ttl)
	pipe.SAdd(ctx, domainKey(rc.Domain), rc.RequestID.String())
	if s.ttl > 0 {
		pipe.Expire(ctx, domainKey(rc.Domain), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put context %q: %v: %w", rc.RequestID, err, sentinel.ErrUnavailable)
	}
	return nil
}

// Get returns the stored context for id.
func (s *Redis) Get(ctx context.Context, id domain.RequestID) (Context, error) {
	payload, err := s.client.Get(ctx, contextKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Context{}, fmt.Errorf("context for request %q: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Context{}, fmt.Errorf("get context %q: %v: %w", id, err, sentinel.ErrUnavailable)
	}

	var rc Context
	if err := json.Unmarshal(payload, &rc); err != nil {
		return Context{}, fmt.Errorf("decode context %q: %w", id, err)
	}
	return rc, nil
}

// Clear removes the context and its domain index entry.
func (s *Redis) Clear(ctx context.Context, id domain.RequestID) error {
	rc, err := s.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, contextKey(id))
	pipe.SRem(ctx, domainKey(rc.Domain), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear context %q: %v: %w", id, err, sentinel.ErrUnavailable)
	}
	return nil
}

// ByDomain returns a snapshot of the domain's live contexts, pruning index
// entries whose context expired.
func (s *Redis) ByDomain(ctx context.Context, d domain.Name) ([]Context, error) {
	ids, err := s.client.SMembers(ctx, domainKey(d)).Result()
	if err != nil {
		return nil, fmt.Errorf("list contexts for domain %q: %v: %w", d, err, sentinel.ErrUnavailable)
	}

	var matched []Context
	for _, id := range ids {
		rc, err := s.Get(ctx, domain.RequestID(id))
		if errors.Is(err, sentinel.ErrNotFound) {
			// TTL outlived by the index entry; prune it.
			s.client.SRem(ctx, domainKey(d), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		matched = append(matched, rc)
	}
	return matched, nil
}
