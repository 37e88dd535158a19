package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agrigenie/internal/clientstate"
	"agrigenie/internal/model"
	"agrigenie/internal/repository"

	"github.com/rs/zerolog"
)

type stateService struct {
	stateRepo repository.StateRepository
	logger    zerolog.Logger
}

// NewStateService creates a client state service.
func NewStateService(stateRepo repository.StateRepository, logger zerolog.Logger) StateService {
	return &stateService{
		stateRepo: stateRepo,
		logger:    logger.With().Str("service", "state").Logger(),
	}
}

func (s *stateService) Get(ctx context.Context, actor model.Actor, key string) (clientstate.Envelope, error) {
	k, err := s.prepare(actor, key)
	if err != nil {
		return clientstate.Envelope{}, err
	}
	return s.load(ctx, actor, k)
}

// Put replaces the stored document. The body may be an envelope or a bare
// legacy array.
func (s *stateService) Put(ctx context.Context, actor model.Actor, key string, body []byte) (clientstate.Envelope, error) {
	k, err := s.prepare(actor, key)
	if err != nil {
		return clientstate.Envelope{}, err
	}

	env, err := clientstate.Decode(body)
	if err != nil {
		return clientstate.Envelope{}, invalidState(err)
	}
	env = clientstate.Normalize(k, env)

	if err := s.save(ctx, actor, k, env); err != nil {
		return clientstate.Envelope{}, err
	}
	return env, nil
}

// Prepend adds item to the stored document under the repository's
// per-document lock, so concurrent prepends never drop an entry.
func (s *stateService) Prepend(ctx context.Context, actor model.Actor, key string, item json.RawMessage) (clientstate.Envelope, error) {
	k, err := s.prepare(actor, key)
	if err != nil {
		return clientstate.Envelope{}, err
	}

	var env clientstate.Envelope
	err = s.stateRepo.Modify(ctx, actor.ID, string(k), func(current []byte) ([]byte, error) {
		next, err := clientstate.Prepend(k, s.decode(actor, k, current), item)
		if err != nil {
			return nil, invalidState(err)
		}
		data, err := clientstate.Encode(next)
		if err != nil {
			return nil, fmt.Errorf("failed to encode client state: %w", err)
		}
		env = next
		return data, nil
	})
	if err != nil {
		var derr *model.DomainError
		if errors.As(err, &derr) {
			return clientstate.Envelope{}, err
		}
		return clientstate.Envelope{}, fmt.Errorf("failed to update client state: %w", err)
	}
	return env, nil
}

func (s *stateService) prepare(actor model.Actor, key string) (clientstate.Key, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	k, err := clientstate.ParseKey(key)
	if err != nil {
		return "", model.ErrInvalidStateKey
	}
	return k, nil
}

// load returns the stored envelope.
func (s *stateService) load(ctx context.Context, actor model.Actor, key clientstate.Key) (clientstate.Envelope, error) {
	raw, err := s.stateRepo.Get(ctx, actor.ID, string(key))
	if err != nil {
		return clientstate.Envelope{}, fmt.Errorf("failed to load client state: %w", err)
	}
	return s.decode(actor, key, raw), nil
}

// decode parses a stored document. Unreadable documents are logged and
// treated as empty so a client can overwrite them.
func (s *stateService) decode(actor model.Actor, key clientstate.Key, raw []byte) clientstate.Envelope {
	env, err := clientstate.Decode(raw)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("user_id", actor.ID.String()).
			Str("key", string(key)).
			Msg("discarding unreadable client state")
		return clientstate.Empty()
	}
	return clientstate.Normalize(key, env)
}

func (s *stateService) save(ctx context.Context, actor model.Actor, key clientstate.Key, env clientstate.Envelope) error {
	data, err := clientstate.Encode(env)
	if err != nil {
		return fmt.Errorf("failed to encode client state: %w", err)
	}
	if err := s.stateRepo.Put(ctx, actor.ID, string(key), data); err != nil {
		return fmt.Errorf("failed to save client state: %w", err)
	}
	return nil
}

func invalidState(err error) error {
	return model.NewDomainError(model.ErrCodeInvalidRequest, err.Error())
}
