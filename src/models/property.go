package models

import (
	"naiken/src/types"
)

// Property is a rental listing open for viewings. The core only ever reads
// these rows; creation happens through seeding or an external admin tool.
type Property struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Name        string  `json:"name"`
	Slug        string  `gorm:"uniqueIndex" json:"slug,omitempty"`
	Address     string  `json:"address"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Rent        uint    `json:"rent"`
	Layout      string  `json:"layout,omitempty"`
	Size        float32 `json:"size,omitempty"`

	Slots []ViewingSlot `gorm:"foreignKey:PropertyID" json:"slots,omitempty"`

	types.Timestamps
}
