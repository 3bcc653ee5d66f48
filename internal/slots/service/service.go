package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotserrors "creatorclub/internal/slots/errors"
	"creatorclub/internal/slots/store"
	"creatorclub/internal/slots/validator"
	"creatorclub/pkg/config"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/model"
	"creatorclub/pkg/sanitizer"
)

// SlotService reserves and books slots. Every operation is a single store transaction over
// exactly the keys it touches; no state is kept in process between calls.
type SlotService interface {
	Lock(ctx context.Context, req *model.LockRequest) (*model.LockResult, error)
	LockRange(ctx context.Context, req *model.LockRangeRequest) (*model.LockResult, error)
	Release(ctx context.Context, req *model.ReleaseRequest) error
	Confirm(ctx context.Context, req *model.ConfirmRequest) (*model.ConfirmResult, error)
	ConfirmRange(ctx context.Context, req *model.ConfirmRangeRequest) (*model.ConfirmResult, error)
	GetDay(ctx context.Context, resourceID, dateKey string, caller Caller) ([]model.SlotView, error)
}

// EventPublisher receives slots.booked notifications after a confirmation commits.
type EventPublisher interface {
	PublishSlotsBooked(ctx context.Context, event *model.SlotsBookedEvent) error
}

type Option func(*slotService)

// WithClock replaces time.Now. Tests use it to step past lock expiry.
func WithClock(now func() time.Time) Option {
	return func(s *slotService) {
		s.now = now
	}
}

func WithPublisher(publisher EventPublisher) Option {
	return func(s *slotService) {
		s.publisher = publisher
	}
}

func WithAuditor(auditor Auditor) Option {
	return func(s *slotService) {
		s.auditor = auditor
	}
}

type slotService struct {
	store     store.Store
	validator *validator.SlotValidator
	cfg       *config.Config
	now       func() time.Time
	publisher EventPublisher
	auditor   Auditor
}

func NewSlotService(
	store store.Store,
	validator *validator.SlotValidator,
	cfg *config.Config,
	opts ...Option,
) SlotService {
	s := &slotService{
		store:     store,
		validator: validator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auditor == nil {
		s.auditor = NewLogAuditor(cfg.Log)
	}
	return s
}

func requireHolder(holderID string) (string, error) {
	id := sanitizer.NormalizeIdentifier(holderID)
	if id == "" {
		return "", apperrors.Unauthenticated("Holder identity is required")
	}
	return id, nil
}

func (s *slotService) validate(req any, kind string) error {
	err := s.validator.Validate(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		s.cfg.Log.Warn(fmt.Sprintf("%s validation failed", kind), "error", err)
		return apperrors.InvalidArgumentWithDetails(fmt.Sprintf("Invalid %s request", kind), map[string]any{
			"errors": validationErrs,
		})
	}
	return apperrors.InvalidArgument(err.Error())
}

// holdDuration maps the requested hold to a duration. Zero selects the configured default.
func (s *slotService) holdDuration(minutes int) (time.Duration, error) {
	if minutes == 0 {
		minutes = s.cfg.DefaultHoldMinutes
	}
	if minutes <= 0 || minutes > s.cfg.MaxHoldMinutes {
		return 0, apperrors.InvalidArgument(fmt.Sprintf("hold_minutes must be between 1 and %d", s.cfg.MaxHoldMinutes))
	}
	return time.Duration(minutes) * time.Minute, nil
}

// normalizeIndices deduplicates and sorts indices, bounding the size of one transaction.
func (s *slotService) normalizeIndices(indices []int) ([]int, error) {
	normalized := sanitizer.NormalizeIndices(indices)
	if len(normalized) == 0 {
		return nil, apperrors.InvalidArgument("slot_indices must not be empty")
	}
	if len(normalized) > s.cfg.MaxRangeSize {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("at most %d slots can be handled at once, got %d", s.cfg.MaxRangeSize, len(normalized)))
	}
	return normalized, nil
}

func keysFor(resourceID, dateKey string, indices []int) []model.SlotKey {
	keys := make([]model.SlotKey, len(indices))
	for i, index := range indices {
		keys[i] = model.SlotKey{ResourceID: resourceID, DateKey: dateKey, Index: index}
	}
	return keys
}

// failure classifies an error coming out of a store transaction. Outcomes decided by the
// transaction function are AppErrors and pass through; anything else is a store fault.
func (s *slotService) failure(action string, err error, attrs ...any) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		s.cfg.Log.Warn(fmt.Sprintf("Failed to %s", action), append(attrs, "code", appErr.Code, "reason", appErr.Message)...)
		return appErr
	}

	if errors.Is(err, slotserrors.ErrInvalidKey) {
		s.cfg.Log.Warn(fmt.Sprintf("Failed to %s", action), append(attrs, "error", err)...)
		return apperrors.InvalidArgument(err.Error())
	}

	if errors.Is(err, slotserrors.ErrConflict) {
		s.cfg.Log.Error(fmt.Sprintf("Failed to %s: contention did not clear", action), append(attrs, "error", err)...)
	} else {
		s.cfg.Log.Error(fmt.Sprintf("Failed to %s", action), append(attrs, "error", err)...)
	}
	return apperrors.Internal(fmt.Sprintf("Failed to %s", action), err)
}
