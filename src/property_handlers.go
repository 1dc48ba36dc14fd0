package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"naiken/src/config"
	"naiken/src/types"
	"naiken/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func propertyHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/properties", func(ctx *gin.Context) {
			properties, err := utils.ListProperties()
			if err != nil {
				log.Printf("Error retrieving Properties: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": properties, "count": len(properties)})
		}).
		GET("/properties/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			property, err := utils.GetProperty(params.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
					return
				}
				log.Printf("Error retrieving Property [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": property})
		}).
		GET("/properties/:id/slots", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var query types.SlotsQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{
					"error":   "a valid date parameter is required",
					"details": utils.FormatValidationErrors(err),
				})
				return
			}
			date, err := time.ParseInLocation(config.DATE_PARSE_FORMAT, query.Date, time.Local)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			slots, err := utils.GetOrCreateSlots(params.ID, date)
			if err != nil {
				log.Printf("Error fetching slots for Property [%d] on %s: %s\n", params.ID, query.Date, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": slots, "count": len(slots)})
		})
	return g
}
