package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type SlotsQueryParams struct {
	Date string `form:"date" binding:"required,viewingdate"`
}

type CreateReservationRequestBody struct {
	SlotID   uint   `json:"slot_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,min=10"`
	StaffReq bool   `json:"staff_req"`
}

type ReservationTokenURIParams struct {
	Token string `uri:"token" binding:"required"`
}

// FieldError is one entry of the structured validation response body.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
