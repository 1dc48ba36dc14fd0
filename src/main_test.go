package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"naiken/src/db"
	"naiken/src/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB       *gorm.DB
	Router   *gin.Engine
	Property *models.Property
}

func (s *TestSuite) SetupSuite() {
	registerValidators()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?_loc=auto"), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a test database", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("Error accessing inner db instance: %s", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&models.Property{},
		&models.ViewingSlot{},
		&models.Reservation{},
	); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	db.NewDB(gdb)
	s.DB = gdb

	property := models.Property{
		Name:    "グリーンハイツ 205号室",
		Slug:    "green-heights-205",
		Address: "東京都世田谷区三宿2-10-5",
		Rent:    180000,
		Layout:  "2LDK",
		Size:    65.0,
	}
	if err := gdb.Create(&property).Error; err != nil {
		log.Fatalf("Could not create property due to error: %s\n", err.Error())
	}
	s.Property = &property

	router := setupRouter()
	apiv1 := apiv1Group(router)
	propertyHandlers(apiv1)
	reservationHandlers(apiv1)
	s.Router = router
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) jsonRequest(method string, url string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	w := s.jsonRequest("GET", "/", "")
	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestListProperties() {
	w := s.jsonRequest("GET", "/api/v1/properties", "")
	assert.Equal(s.T(), 200, w.Code)

	body := w.Body.String()
	assert.GreaterOrEqual(s.T(), gjson.Get(body, "count").Int(), int64(1))
	assert.Equal(s.T(), s.Property.Name, gjson.Get(body, "data.0.name").String())
}

func (s *TestSuite) TestGetProperty() {
	w := s.jsonRequest("GET", fmt.Sprintf("/api/v1/properties/%d", s.Property.ID), "")
	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), s.Property.Address, gjson.Get(w.Body.String(), "data.address").String())

	w = s.jsonRequest("GET", "/api/v1/properties/99999", "")
	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) TestSlotsRoute() {
	url := fmt.Sprintf("/api/v1/properties/%d/slots", s.Property.ID)

	s.Run("Should reject a missing date parameter", func() {
		w := s.jsonRequest("GET", url, "")
		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a malformed date parameter", func() {
		w := s.jsonRequest("GET", url+"?date=junk", "")
		assert.Equal(s.T(), 400, w.Code)
		assert.Equal(s.T(), "date", gjson.Get(w.Body.String(), "details.0.field").String())
	})

	s.Run("Should materialize a fresh day of slots", func() {
		w := s.jsonRequest("GET", url+"?date=2025-07-01", "")
		assert.Equal(s.T(), 200, w.Code)

		body := w.Body.String()
		assert.Equal(s.T(), int64(8), gjson.Get(body, "count").Int())
		assert.Equal(s.T(), int64(0), gjson.Get(body, "data.0.reserved_count").Int())

		again := s.jsonRequest("GET", url+"?date=2025-07-01", "")
		assert.Equal(s.T(), 200, again.Code)
		assert.Equal(s.T(), gjson.Get(body, "data.0.id").Int(), gjson.Get(again.Body.String(), "data.0.id").Int())
	})
}

func (s *TestSuite) TestReservationFlow() {
	url := fmt.Sprintf("/api/v1/properties/%d/slots?date=2025-08-01", s.Property.ID)
	w := s.jsonRequest("GET", url, "")
	assert.Equal(s.T(), 200, w.Code)
	slotId := gjson.Get(w.Body.String(), "data.2.id").Uint()
	assert.Greater(s.T(), slotId, uint64(0))

	s.Run("Should return field errors for an invalid body", func() {
		jbody := map[string]any{
			"slot_id": slotId,
			"name":    "",
			"email":   "not-an-email",
			"phone":   "12345",
		}
		sbody, _ := json.Marshal(&jbody)
		w := s.jsonRequest("POST", "/api/v1/reservations", string(sbody))
		assert.Equal(s.T(), 400, w.Code)

		body := w.Body.String()
		details := gjson.Get(body, "details").Array()
		assert.Len(s.T(), details, 3)
		fields := map[string]bool{}
		for _, d := range details {
			fields[d.Get("field").String()] = true
		}
		assert.True(s.T(), fields["name"])
		assert.True(s.T(), fields["email"])
		assert.True(s.T(), fields["phone"])
	})

	var token string
	s.Run("Should create a reservation and return its token", func() {
		jbody := map[string]any{
			"slot_id":   slotId,
			"name":      "Taro Yamada",
			"email":     "taro@example.com",
			"phone":     "0901234567",
			"staff_req": true,
		}
		sbody, _ := json.Marshal(&jbody)
		w := s.jsonRequest("POST", "/api/v1/reservations", string(sbody))
		assert.Equal(s.T(), 201, w.Code)

		body := w.Body.String()
		token = gjson.Get(body, "data.token").String()
		assert.NotEmpty(s.T(), token)
		assert.True(s.T(), gjson.Get(body, "data.staff_req").Bool())
		assert.Equal(s.T(), int64(s.Property.ID), gjson.Get(body, "data.slot.property.id").Int())
	})

	s.Run("Should fetch the reservation by token", func() {
		w := s.jsonRequest("GET", fmt.Sprintf("/api/v1/reservations/%s", token), "")
		assert.Equal(s.T(), 200, w.Code)

		body := w.Body.String()
		assert.Equal(s.T(), "Taro Yamada", gjson.Get(body, "data.name").String())
		assert.Equal(s.T(), "0901234567", gjson.Get(body, "data.phone").String())
		assert.Equal(s.T(), int64(slotId), gjson.Get(body, "data.slot.id").Int())
		assert.Equal(s.T(), s.Property.Name, gjson.Get(body, "data.slot.property.name").String())
	})

	s.Run("Should reject a second reservation for a full slot", func() {
		jbody := map[string]any{
			"slot_id": slotId,
			"name":    "Hanako Sato",
			"email":   "hanako@example.com",
			"phone":   "0807654321",
		}
		sbody, _ := json.Marshal(&jbody)
		w := s.jsonRequest("POST", "/api/v1/reservations", string(sbody))
		assert.Equal(s.T(), 400, w.Code)
		assert.Contains(s.T(), gjson.Get(w.Body.String(), "error").String(), "fully booked")
	})

	s.Run("Should return 404 for an unknown token", func() {
		w := s.jsonRequest("GET", "/api/v1/reservations/00000000-0000-0000-0000-000000000000", "")
		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("Should return a share link for the confirmation code", func() {
		w := s.jsonRequest("GET", fmt.Sprintf("/api/v1/reservations/%s/code?share_link=true", token), "")
		assert.Equal(s.T(), 200, w.Code)
		assert.Contains(s.T(), gjson.Get(w.Body.String(), "url").String(), token)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
