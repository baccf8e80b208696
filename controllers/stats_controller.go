// Package controllers file: controllers/stats_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prayreps/config"
	"prayreps/logger"
	"prayreps/services"
)

// StatsController serves the statistics page and its JSON feeds.
type StatsController struct {
	cfg   *config.Config
	queue services.QueueServiceInterface
}

// NewStatsController wires the stats controller.
func NewStatsController(cfg *config.Config, queue services.QueueServiceInterface) *StatsController {
	return &StatsController{cfg: cfg, queue: queue}
}

// StatsPage renders the statistics page shell; the charts fetch their
// data from the JSON endpoints below.
func (sc *StatsController) StatsPage(c *gin.Context) {
	type tab struct {
		Code string
		Name string
	}
	tabs := []tab{{Code: "overall", Name: "Overall"}}
	for _, country := range sc.cfg.Countries {
		tabs = append(tabs, tab{Code: country.Code, Name: country.Name})
	}
	c.HTML(http.StatusOK, "statistics.html", gin.H{
		"Tabs": tabs,
	})
}

// StatsDataJSON returns prayed counts per party for a country, or a
// single overall total for country code "overall".
func (sc *StatsController) StatsDataJSON(c *gin.Context) {
	countryCode := c.Param("country")
	ctx := c.Request.Context()

	if countryCode == "overall" {
		total, err := sc.queue.OverallPrayedCount(ctx)
		if err != nil {
			logger.Error.Printf("StatsDataJSON: overall count failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"Overall": total})
		return
	}

	if _, ok := sc.cfg.Country(countryCode); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown country"})
		return
	}
	stats, err := sc.queue.PartyStats(ctx, countryCode)
	if err != nil {
		logger.Error.Printf("StatsDataJSON: party stats for %s failed: %v", countryCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}

	// the chart wants {party: count}; order comes from the timedata feed
	data := make(map[string]int, len(stats))
	for _, s := range stats {
		data[s.Party] = s.Count
	}
	c.JSON(http.StatusOK, data)
}

// StatsTimedataJSON returns the chronological prayer timeline for a
// country ("overall" aggregates all of them).
func (sc *StatsController) StatsTimedataJSON(c *gin.Context) {
	countryCode := c.Param("country")
	if countryCode != "overall" {
		if _, ok := sc.cfg.Country(countryCode); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown country"})
			return
		}
	}
	timeline, err := sc.queue.Timeline(c.Request.Context(), countryCode)
	if err != nil {
		logger.Error.Printf("StatsTimedataJSON: timeline for %s failed: %v", countryCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamps":   timeline.Timestamps,
		"values":       timeline.Values,
		"country_name": timeline.CountryName,
	})
}
