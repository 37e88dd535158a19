package service

import (
	"context"
	"fmt"
	"time"

	"agrigenie/internal/model"
	"agrigenie/internal/repository"
	"agrigenie/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type paymentMethodService struct {
	repo   repository.PaymentMethodRepository
	logger zerolog.Logger
}

// NewPaymentMethodService creates a saved payment method service.
func NewPaymentMethodService(repo repository.PaymentMethodRepository, logger zerolog.Logger) PaymentMethodService {
	return &paymentMethodService{
		repo:   repo,
		logger: logger.With().Str("service", "payment_method").Logger(),
	}
}

func (s *paymentMethodService) List(ctx context.Context, actor model.Actor) ([]model.PaymentMethod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	methods, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

func (s *paymentMethodService) Create(ctx context.Context, actor model.Actor, input model.PaymentMethodInput) (*model.PaymentMethod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	valid, err := validation.ValidatePaymentMethod(input)
	if err != nil {
		return nil, err
	}

	method := &model.PaymentMethod{
		ID:        uuid.New(),
		UserID:    actor.ID,
		Type:      valid.Type,
		Details:   valid.Details,
		IsDefault: valid.IsDefault,
		CreatedAt: time.Now().UTC(),
	}
	if !method.IsDefault {
		current, err := s.repo.GetDefault(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create payment method: %w", err)
		}
		method.IsDefault = current == nil
	}

	if err := s.repo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}

	s.logger.Info().
		Str("user_id", actor.ID.String()).
		Str("payment_method_id", method.ID.String()).
		Str("type", string(method.Type)).
		Bool("default", method.IsDefault).
		Msg("payment method saved")
	return method, nil
}

func (s *paymentMethodService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	s.logger.Info().Str("payment_method_id", id.String()).Msg("payment method deleted")
	return nil
}

func (s *paymentMethodService) SetDefault(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	ok, err := s.repo.SetDefault(ctx, actor.ID, id)
	if err != nil {
		return fmt.Errorf("failed to set default payment method: %w", err)
	}
	if !ok {
		// deleted since the ownership check
		return model.ErrPaymentMethodNotFound
	}
	return nil
}

// owned loads a method and checks that actor owns it.
func (s *paymentMethodService) owned(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.PaymentMethod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	method, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	if method == nil {
		return nil, model.ErrPaymentMethodNotFound
	}
	if method.UserID != actor.ID {
		s.logger.Warn().
			Str("payment_method_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Msg("non-owner attempted to use payment method")
		return nil, model.ErrPaymentMethodAccessDenied
	}
	return method, nil
}
