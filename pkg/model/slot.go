package model

import (
	"fmt"
	"time"
)

type SlotStatus string

const (
	// SlotFree is never persisted; an absent record or an expired lock reads as free.
	SlotFree   SlotStatus = "free"
	SlotLocked SlotStatus = "locked"
	SlotBooked SlotStatus = "booked"
)

// SlotKey identifies one fixed-duration bucket of a resource within a date partition.
type SlotKey struct {
	ResourceID string `json:"resource_id"`
	DateKey    string `json:"date_key"`
	Index      int    `json:"slot_index"`
}

// ID is the flat document identifier used by key-value backends.
// ResourceID and DateKey are validated to never contain '/'.
func (k SlotKey) ID() string {
	return fmt.Sprintf("%s/%s/%d", k.ResourceID, k.DateKey, k.Index)
}

func (k SlotKey) String() string {
	return k.ID()
}

// SlotRecord is the persisted lock/booking state of a single slot.
type SlotRecord struct {
	ResourceID string     `json:"resource_id" bson:"resource_id"`
	DateKey    string     `json:"date_key" bson:"date_key"`
	SlotIndex  int        `json:"slot_index" bson:"slot_index"`
	Status     SlotStatus `json:"status" bson:"status"`
	LockedBy   string     `json:"locked_by,omitempty" bson:"locked_by,omitempty"`
	LockedAt   time.Time  `json:"locked_at" bson:"locked_at"`
	ExpiresAt  time.Time  `json:"expires_at" bson:"expires_at"`
	BookedAt   *time.Time `json:"booked_at,omitempty" bson:"booked_at,omitempty"`
}

func (r *SlotRecord) Key() SlotKey {
	return SlotKey{ResourceID: r.ResourceID, DateKey: r.DateKey, Index: r.SlotIndex}
}

// SlotView is a record as seen at a given instant, with expiry already applied.
type SlotView struct {
	SlotIndex int        `json:"slot_index"`
	Status    SlotStatus `json:"status"`
	LockedBy  string     `json:"locked_by,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	BookedAt  *time.Time `json:"booked_at,omitempty"`
}

type LockRequest struct {
	ResourceID  string `json:"resource_id" validate:"required,max=128,partition_key"`
	DateKey     string `json:"date_key" validate:"required,max=32,partition_key"`
	SlotIndex   *int   `json:"slot_index" validate:"required,min=0"`
	HoldMinutes int    `json:"hold_minutes,omitempty" validate:"omitempty,min=1"`
	HolderID    string `json:"-"`
}

type LockRangeRequest struct {
	ResourceID  string `json:"resource_id" validate:"required,max=128,partition_key"`
	DateKey     string `json:"date_key" validate:"required,max=32,partition_key"`
	SlotIndices []int  `json:"slot_indices" validate:"required,min=1,dive,min=0"`
	HoldMinutes int    `json:"hold_minutes,omitempty" validate:"omitempty,min=1"`
	HolderID    string `json:"-"`
}

type ReleaseRequest struct {
	ResourceID  string `json:"resource_id" validate:"required,max=128,partition_key"`
	DateKey     string `json:"date_key" validate:"required,max=32,partition_key"`
	SlotIndices []int  `json:"slot_indices" validate:"required,min=1,dive,min=0"`
	HolderID    string `json:"-"`
}

type ConfirmRequest struct {
	ResourceID string `json:"resource_id" validate:"required,max=128,partition_key"`
	DateKey    string `json:"date_key" validate:"required,max=32,partition_key"`
	SlotIndex  *int   `json:"slot_index" validate:"required,min=0"`
}

type ConfirmRangeRequest struct {
	ResourceID  string `json:"resource_id" validate:"required,max=128,partition_key"`
	DateKey     string `json:"date_key" validate:"required,max=32,partition_key"`
	SlotIndices []int  `json:"slot_indices" validate:"required,min=1,dive,min=0"`
}

type LockResult struct {
	OK        bool      `json:"ok"`
	ExpiresAt time.Time `json:"expires_at"`
	Slots     []int     `json:"slots,omitempty"`
}

type ConfirmResult struct {
	OK bool `json:"ok"`
}

// SlotsBookedEvent is published after a confirmation commits.
type SlotsBookedEvent struct {
	ResourceID  string    `json:"resource_id"`
	DateKey     string    `json:"date_key"`
	SlotIndices []int     `json:"slot_indices"`
	BookedAt    time.Time `json:"booked_at"`
}

// PaymentSucceededEvent is the metadata the payment collaborator hands over once a charge clears.
type PaymentSucceededEvent struct {
	PaymentID   string `json:"payment_id"`
	ResourceID  string `json:"resource_id"`
	DateKey     string `json:"date_key"`
	SlotIndices []int  `json:"slot_indices"`
	HolderID    string `json:"holder_id,omitempty"`
}
