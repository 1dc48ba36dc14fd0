package boot

import (
	"log"
	"os"
	"strconv"
	"time"

	"naiken/src/db"
	"naiken/src/lib"
	"naiken/src/models"
	"naiken/src/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Property{},
		&models.ViewingSlot{},
		&models.Reservation{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	if seed, _ := strconv.ParseBool(os.Getenv("SEED_DB")); seed {
		if err := SeedSampleData(db); err != nil {
			log.Printf("Error seeding sample data: %s\n", err.Error())
		}
	}

	return db
}

// SeedSampleData loads the demo listings plus a week of pre-generated slots
// for the first one. A non-empty properties table skips the seed.
func SeedSampleData(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.Property{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	properties := []models.Property{
		{
			Name:        "サンライズマンション 301号室",
			Address:     "東京都渋谷区神宮前1-2-3",
			Description: "駅徒歩5分、南向きで日当たり良好。リノベーション済みの綺麗なお部屋です。",
			ImageURL:    "https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=800",
			Rent:        120000,
			Layout:      "1LDK",
			Size:        45.5,
		},
		{
			Name:        "グリーンハイツ 205号室",
			Address:     "東京都世田谷区三宿2-10-5",
			Description: "閑静な住宅街、緑豊かな環境。ファミリー向けの広々とした間取りです。",
			ImageURL:    "https://images.unsplash.com/photo-1512917774080-9991f1c4c750?w=800",
			Rent:        180000,
			Layout:      "2LDK",
			Size:        65.0,
		},
		{
			Name:        "オーシャンビュー 1202号室",
			Address:     "神奈川県横浜市中区海岸通り4-5-6",
			Description: "海が見える高層マンション。眺望抜群、充実した共用施設。",
			ImageURL:    "https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=800",
			Rent:        250000,
			Layout:      "3LDK",
			Size:        85.0,
		},
	}
	for i := range properties {
		properties[i].Slug = slug.Make(properties[i].Name)
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&properties).Error; err != nil {
			return err
		}
		today := time.Now()
		for day := 0; day < 7; day++ {
			d := today.AddDate(0, 0, day)
			dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
			slots := utils.BuildDaySlots(properties[0].ID, dayStart)
			if err := tx.Create(&slots).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d properties\n", len(properties))
		return nil
	})
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			if err := utils.ReconcileSlotCounts(); err != nil {
				log.Printf("Slot counter audit: %s\n", err.Error())
			}
		}),
	)
	if err != nil {
		log.Printf("Error scheduling audit job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("Error shutting down Scheduler: %s\n", err.Error())
	}
}
