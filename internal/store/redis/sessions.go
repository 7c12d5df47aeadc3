package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

func wizardKey(id uuid.UUID) string {
	return "wizard:" + id.String()
}

// SaveWizard stores the session and refreshes its expiry.
func (s *Store) SaveWizard(ctx context.Context, state wizard.State, ttl time.Duration) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("redis.Store.SaveWizard: marshal: %w", err)
	}
	if err := s.client.Set(ctx, wizardKey(state.SessionID), buf, ttl).Err(); err != nil {
		return fmt.Errorf("redis.Store.SaveWizard: %w", err)
	}
	return nil
}

// LoadWizard returns domain.ErrNotFound for unknown or expired sessions.
func (s *Store) LoadWizard(ctx context.Context, id uuid.UUID) (wizard.State, error) {
	buf, err := s.client.Get(ctx, wizardKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.State{}, fmt.Errorf("redis.Store.LoadWizard: %w", domain.ErrNotFound)
	}
	if err != nil {
		return wizard.State{}, fmt.Errorf("redis.Store.LoadWizard: %w", err)
	}

	var state wizard.State
	if err := json.Unmarshal(buf, &state); err != nil {
		return wizard.State{}, fmt.Errorf("redis.Store.LoadWizard: unmarshal: %w", err)
	}
	if state.Configuration.Features == nil {
		state.Configuration.Features = map[string]bool{}
	}
	return state, nil
}

func (s *Store) DeleteWizard(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, wizardKey(id)).Err(); err != nil {
		return fmt.Errorf("redis.Store.DeleteWizard: %w", err)
	}
	return nil
}
