package models

import (
	"time"

	"naiken/src/types"
)

// ViewingSlot is a one-hour bookable window for one property on one day.
// The (property_id, start_time) pair is unique so two concurrent
// first-requests for an empty day cannot both materialize it.
type ViewingSlot struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	PropertyID    uint      `gorm:"uniqueIndex:idx_slots_property_start" json:"property_id"`
	StartTime     time.Time `gorm:"uniqueIndex:idx_slots_property_start" json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Capacity      uint      `gorm:"default:1" json:"capacity"`
	ReservedCount uint      `gorm:"default:0" json:"reserved_count"`

	Property     *Property     `gorm:"foreignKey:property_id" json:"property,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:SlotID" json:"reservations,omitempty"`

	// Derived within the same read as ReservedCount, display only.
	Stats *SlotStats `gorm:"-" json:"stats,omitempty"`

	types.Timestamps
}

type SlotStats struct {
	Reserved uint `json:"reserved"`
	Free     uint `json:"free"`
}
