package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"naiken/src/config"
	"naiken/src/db"
	"naiken/src/lib"
	"naiken/src/models"
	"naiken/src/types"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotFull     = errors.New("slot is fully booked")
)

const propertiesCacheKey = "properties:all"

func ListProperties() ([]models.Property, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		cached, err := rd.Get(context.Background(), propertiesCacheKey).Result()
		if err == nil && cached != "" {
			var properties []models.Property
			if err := json.Unmarshal([]byte(cached), &properties); err == nil {
				return properties, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("Error reading from cache: %s\n", err.Error())
		}
	}
	var properties []models.Property
	db := db.GetDb()
	if err := db.
		Model(&models.Property{}).
		Order("created_at desc").
		Find(&properties).
		Error; err != nil {
		return nil, err
	}
	if rd != nil {
		if raw, err := json.Marshal(properties); err == nil {
			rd.SetEx(context.Background(), propertiesCacheKey, string(raw), time.Minute)
		}
	}
	return properties, nil
}

func GetProperty(id uint) (*models.Property, error) {
	var property models.Property
	db := db.GetDb()
	if err := db.
		Where(&models.Property{ID: id}).
		First(&property).
		Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// BuildDaySlots lays out the hourly viewing windows for one property on one
// day, local business hours, all free.
func BuildDaySlots(propertyID uint, dayStart time.Time) []models.ViewingSlot {
	slots := make([]models.ViewingSlot, 0, config.VIEWING_CLOSE_HOUR-config.VIEWING_OPEN_HOUR)
	for hour := config.VIEWING_OPEN_HOUR; hour < config.VIEWING_CLOSE_HOUR; hour++ {
		start := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), hour, 0, 0, 0, dayStart.Location())
		slots = append(slots, models.ViewingSlot{
			PropertyID:    propertyID,
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			Capacity:      config.VIEWING_SLOT_CAPACITY,
			ReservedCount: 0,
		})
	}
	return slots
}

// GetOrCreateSlots returns the ordered slots of a (property, day) pair,
// materializing the day on first access. Once a day exists it is returned
// as-is forever; a partial day is never topped up.
func GetOrCreateSlots(propertyID uint, date time.Time) ([]models.ViewingSlot, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	gdb := db.GetDb()

	slots, err := slotsForDay(gdb, propertyID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if len(slots) > 0 {
		return slots, nil
	}

	newSlots := BuildDaySlots(propertyID, dayStart)
	if err := gdb.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&newSlots).Error
	}); err != nil {
		// A concurrent first-request may have won the unique
		// (property_id, start_time) race; fall back to a plain re-read.
		log.Printf("Slot generation for property %d on %s failed: %s\n", propertyID, dayStart.Format(config.DATE_PARSE_FORMAT), err.Error())
		slots, rerr := slotsForDay(gdb, propertyID, dayStart, dayEnd)
		if rerr == nil && len(slots) > 0 {
			return slots, nil
		}
		return nil, err
	}
	return slotsForDay(gdb, propertyID, dayStart, dayEnd)
}

func slotsForDay(gdb *gorm.DB, propertyID uint, dayStart time.Time, dayEnd time.Time) ([]models.ViewingSlot, error) {
	var slots []models.ViewingSlot
	if err := gdb.
		Model(&models.ViewingSlot{}).
		Where(&models.ViewingSlot{PropertyID: propertyID}).
		Where("start_time >= ? AND start_time < ?", dayStart, dayEnd).
		Order("start_time asc").
		Find(&slots).
		Error; err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}
	if err := annotateSlotStats(gdb, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// annotateSlotStats attaches the derived reservation count to each slot in
// the same read as the authoritative reserved_count column.
func annotateSlotStats(gdb *gorm.DB, slots []models.ViewingSlot) error {
	ids := make([]uint, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}
	var rows []struct {
		SlotID uint
		Total  uint
	}
	if err := gdb.
		Model(&models.Reservation{}).
		Select("slot_id, COUNT(id) as total").
		Where("slot_id IN ?", ids).
		Group("slot_id").
		Scan(&rows).
		Error; err != nil {
		return err
	}
	counts := make(map[uint]uint, len(rows))
	for _, r := range rows {
		counts[r.SlotID] = r.Total
	}
	for i := range slots {
		reserved := counts[slots[i].ID]
		var free uint
		if slots[i].Capacity > reserved {
			free = slots[i].Capacity - reserved
		}
		slots[i].Stats = &models.SlotStats{
			Reserved: reserved,
			Free:     free,
		}
	}
	return nil
}

// CreateReservation runs the whole check-and-commit sequence as one
// transaction: slot lookup, conditional counter bump, reservation insert.
// Two concurrent attempts on a capacity-1 slot cannot both pass the guard;
// the loser gets ErrSlotFull and nothing of its attempt persists.
func CreateReservation(params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	gdb := db.GetDb()
	reservation := models.Reservation{
		Token:    uuid.NewString(),
		SlotID:   params.SlotID,
		Name:     params.Name,
		Email:    params.Email,
		Phone:    params.Phone,
		StaffReq: params.StaffReq,
	}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var slot models.ViewingSlot
		if err := tx.
			Where(&models.ViewingSlot{ID: params.SlotID}).
			First(&slot).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		res := tx.
			Model(&models.ViewingSlot{}).
			Where("id = ? AND reserved_count < capacity", params.SlotID).
			Update("reserved_count", gorm.Expr("reserved_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSlotFull
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("CreateReservation failed for slot %d: %s\n", params.SlotID, err.Error())
		return nil, err
	}
	return GetReservationByToken(reservation.Token)
}

func GetReservationByToken(token string) (*models.Reservation, error) {
	var reservation models.Reservation
	gdb := db.GetDb()
	if err := gdb.
		Model(&models.Reservation{}).
		Where(&models.Reservation{Token: token}).
		Preload("Slot").
		Preload("Slot.Property").
		First(&reservation).
		Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ReconcileSlotCounts audits reserved_count against the actual reservation
// rows. Mismatches are logged, never auto-corrected; the stored counter
// stays the source of truth for the commit path.
func ReconcileSlotCounts() error {
	gdb := db.GetDb()
	var slots []models.ViewingSlot
	if err := gdb.Find(&slots).Error; err != nil {
		return err
	}
	mismatches := 0
	for _, s := range slots {
		var total int64
		if err := gdb.
			Model(&models.Reservation{}).
			Where(&models.Reservation{SlotID: s.ID}).
			Count(&total).
			Error; err != nil {
			return err
		}
		if uint(total) != s.ReservedCount {
			mismatches++
			log.Printf("[reconcile] slot %d: reserved_count=%d but %d reservation rows\n", s.ID, s.ReservedCount, total)
		}
		if s.ReservedCount > s.Capacity {
			mismatches++
			log.Printf("[reconcile] slot %d: reserved_count=%d exceeds capacity=%d\n", s.ID, s.ReservedCount, s.Capacity)
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("found [%d] slot counter mismatches", mismatches)
	}
	return nil
}

// FormatValidationErrors flattens a binding failure into per-field entries
// the client can render next to its form inputs.
func FormatValidationErrors(err error) []types.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []types.FieldError{{Field: "body", Reason: err.Error()}}
	}
	fields := make([]types.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		fields = append(fields, types.FieldError{
			Field:  strings.ToLower(fe.Field()),
			Reason: fmt.Sprintf("failed on the '%s' rule", rule),
		})
	}
	return fields
}
