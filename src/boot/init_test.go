package boot

import (
	"testing"

	"naiken/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSeedSampleData(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:?_loc=auto"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(
		&models.Property{},
		&models.ViewingSlot{},
		&models.Reservation{},
	))

	require.NoError(t, SeedSampleData(gdb))

	var properties int64
	require.NoError(t, gdb.Model(&models.Property{}).Count(&properties).Error)
	assert.Equal(t, int64(3), properties)

	// A week of hourly slots for the first listing only.
	var slots int64
	require.NoError(t, gdb.Model(&models.ViewingSlot{}).Count(&slots).Error)
	assert.Equal(t, int64(56), slots)

	// Re-seeding a populated database is a no-op.
	require.NoError(t, SeedSampleData(gdb))
	require.NoError(t, gdb.Model(&models.Property{}).Count(&properties).Error)
	assert.Equal(t, int64(3), properties)
}
