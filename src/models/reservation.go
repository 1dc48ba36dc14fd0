package models

import (
	"naiken/src/types"
)

// Reservation commits one visitor against one slot. The token is the sole
// client-facing handle; possession of it is the only lookup credential.
type Reservation struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Token    string `gorm:"uniqueIndex;size:36" json:"token"`
	SlotID   uint   `json:"slot_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	StaffReq bool   `gorm:"default:false" json:"staff_req"`

	Slot *ViewingSlot `gorm:"foreignKey:slot_id" json:"slot,omitempty"`

	types.Timestamps
}
