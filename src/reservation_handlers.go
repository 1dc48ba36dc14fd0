package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"naiken/src/lib"
	"naiken/src/types"
	"naiken/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{
					"error":   "invalid reservation request",
					"details": utils.FormatValidationErrors(err),
				})
				return
			}
			reservation, err := utils.CreateReservation(&body)
			if err != nil {
				if errors.Is(err, utils.ErrSlotNotFound) || errors.Is(err, utils.ErrSlotFull) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation})
		}).
		GET("/reservations/:token", func(ctx *gin.Context) {
			var params types.ReservationTokenURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			reservation, err := utils.GetReservationByToken(params.Token)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
					return
				}
				log.Printf("Error retrieving Reservation: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		GET("/reservations/:token/code", func(ctx *gin.Context) {
			var query struct {
				ShareLink bool `form:"share_link"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var params types.ReservationTokenURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			reservation, err := utils.GetReservationByToken(params.Token)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				log.Printf("Error retrieving Reservation: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			appHost := os.Getenv("APP_HOST")
			shareURL := fmt.Sprintf("%s/reservations/%s", appHost, reservation.Token)
			if query.ShareLink {
				ctx.JSON(http.StatusOK, gin.H{"url": shareURL})
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			if tempdir == "" {
				tempdir = os.TempDir()
			}
			filename := fmt.Sprintf("rsvcode_%s", reservation.Token)
			filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
			rd := lib.GetRedisClient()
			if rd != nil {
				if cached, err := rd.Get(context.Background(), filename).Result(); err == nil && cached != "" {
					if _, err := os.Stat(cached); err == nil {
						ctx.FileAttachment(cached, "viewing.jpeg")
						return
					}
				}
			}
			qrc, err := qrcode.New(shareURL)
			if err != nil {
				log.Printf("Error generating qrcode for Reservation [%d]: %s\n", reservation.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if rd != nil {
				rd.SetEx(context.Background(), filename, filepath, 2*time.Hour)
			}
			ctx.FileAttachment(filepath, "viewing.jpeg")
		})
	return g
}
