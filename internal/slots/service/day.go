package service

import (
	"context"
	"errors"
	"fmt"

	"creatorclub/internal/slots/validator"
	apperrors "creatorclub/pkg/errors"
	"creatorclub/pkg/model"
	"creatorclub/pkg/sanitizer"
)

const (
	RoleSuperadmin = "superadmin"
	RoleModerator  = "moderator"

	actionGetDay = "getSlotsDay"
)

// Caller is the authenticated identity behind a privileged request.
type Caller struct {
	ID   string
	Role string
}

// dayViewRoles may read a full day of slots. superadmin is always allowed.
var dayViewRoles = []string{RoleModerator}

func requireRole(caller Caller, allowed []string) error {
	if sanitizer.NormalizeIdentifier(caller.ID) == "" {
		return apperrors.Unauthenticated("Sign in required")
	}
	if caller.Role == "" {
		return apperrors.Forbidden("Missing admin role")
	}
	if caller.Role == RoleSuperadmin {
		return nil
	}
	for _, role := range allowed {
		if caller.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("Insufficient role")
}

// GetDay lists every stored slot of a partition with expiry applied: lapsed locks read as free.
func (s *slotService) GetDay(ctx context.Context, resourceID, dateKey string, caller Caller) ([]model.SlotView, error) {
	if err := requireRole(caller, dayViewRoles); err != nil {
		s.cfg.Log.Warn("Day view denied", "admin_uid", caller.ID, "role", caller.Role)
		return nil, err
	}

	resourceID = sanitizer.NormalizeIdentifier(resourceID)
	dateKey = sanitizer.NormalizeIdentifier(dateKey)
	if err := s.validator.ValidatePartition(resourceID, dateKey); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, apperrors.InvalidArgumentWithDetails("Invalid day request", map[string]any{
				"errors": validationErrs,
			})
		}
		return nil, apperrors.InvalidArgument(err.Error())
	}

	records, err := s.store.ListDay(ctx, resourceID, dateKey)
	if err != nil {
		return nil, s.failure("list slots", err, "resource_id", resourceID, "date_key", dateKey)
	}

	now := s.now()
	views := make([]model.SlotView, 0, len(records))
	for _, rec := range records {
		views = append(views, toView(rec, now))
	}

	if err := s.auditor.Audit(ctx, AuditRecord{
		Action:   actionGetDay,
		AdminUID: caller.ID,
		Params:   map[string]any{"resource_id": resourceID, "date_key": dateKey},
		At:       now,
	}); err != nil {
		s.cfg.Log.Error(fmt.Sprintf("Failed to write audit record for %s", actionGetDay), "admin_uid", caller.ID, "error", err)
	}

	return views, nil
}
