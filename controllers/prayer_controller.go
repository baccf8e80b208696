// Package controllers file: controllers/prayer_controller.go
package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prayreps/config"
	"prayreps/live"
	"prayreps/logger"
	"prayreps/models"
	"prayreps/services"
	"prayreps/store"
)

// PrayerController handles the state transitions: mark prayed and put
// back. HTMX requests get partial swaps (with out-of-band map and stats
// updates); plain form posts get redirects.
type PrayerController struct {
	cfg     *config.Config
	queue   services.QueueServiceInterface
	maps    *services.MapService
	metrics *services.Metrics
	hub     *live.Hub
	tmpl    *template.Template
}

// NewPrayerController wires the prayer controller. tmpl must contain the
// partial templates; gin's own HTML renderer can only emit one template
// per response, and the HTMX answers carry several.
func NewPrayerController(cfg *config.Config, queue services.QueueServiceInterface, maps *services.MapService, metrics *services.Metrics, hub *live.Hub, tmpl *template.Template) *PrayerController {
	return &PrayerController{cfg: cfg, queue: queue, maps: maps, metrics: metrics, hub: hub, tmpl: tmpl}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// ProcessItem marks one representative as prayed, refreshes the map for
// whatever country is in focus next, and answers with the next current
// item (HTMX) or a redirect home (form post).
func (pc *PrayerController) ProcessItem(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}

	rep, err := pc.queue.MarkPrayed(ctx, id)
	if err != nil {
		pc.transitionError(c, "ProcessItem", id, err)
		return
	}

	next, err := pc.queue.NextOverall(ctx)
	if err != nil {
		logger.Error.Printf("ProcessItem: next lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading queue")
		return
	}

	// the map follows the representative now in focus; when the queue
	// just drained, show the finished map of the last prayed country
	mapCountry := rep.CountryCode
	if next != nil {
		mapCountry = next.CountryCode
	}
	version := pc.refreshMap(c, mapCountry, next)

	remaining, _ := pc.queue.Remaining(ctx)
	queueSize, _ := pc.queue.QueueSize(ctx)

	pc.metrics.PublishPrayerRecorded(rep.CountryCode)
	pc.metrics.PublishQueueDepth(rep.CountryCode, queueSize)
	pc.hub.Broadcast(live.Event{
		Action:      "prayed",
		CountryCode: rep.CountryCode,
		PersonName:  rep.PersonName,
		Remaining:   remaining,
		MapVersion:  version,
	})

	if !isHTMX(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	totalPrayed, _ := pc.queue.OverallPrayedCount(ctx)
	pc.renderPartials(c,
		partial{"partial_current_item.html", gin.H{
			"Current": currentItemView(pc.cfg, next),
		}},
		partial{"partial_map_image.html", gin.H{
			"CountryCode": mapCountry,
			"MapVersion":  version,
			"OOB":         true,
		}},
		partial{"partial_stats_summary.html", gin.H{
			"Remaining":   remaining,
			"QueueSize":   queueSize,
			"TotalPrayed": totalPrayed,
			"OOB":         true,
		}},
	)
}

// PutBack returns a prayed representative to the queue. HTMX requests
// come from the prayed list page and get the refreshed list partial;
// form posts get redirected back to that page.
func (pc *PrayerController) PutBack(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}

	rep, err := pc.queue.PutBack(ctx, id)
	if err != nil {
		pc.transitionError(c, "PutBack", id, err)
		return
	}

	// listCountry is the page the user is looking at, which may be the
	// merged "overall" list rather than the representative's country
	listCountry := c.DefaultQuery("list", rep.CountryCode)

	head, err := pc.queue.NextInQueue(ctx, rep.CountryCode)
	if err != nil {
		logger.Error.Printf("PutBack: queue head lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading queue")
		return
	}
	version := pc.refreshMap(c, rep.CountryCode, head)

	remaining, _ := pc.queue.Remaining(ctx)
	pc.hub.Broadcast(live.Event{
		Action:      "putback",
		CountryCode: rep.CountryCode,
		PersonName:  rep.PersonName,
		Remaining:   remaining,
		MapVersion:  version,
	})

	if !isHTMX(c) {
		c.Redirect(http.StatusFound, "/prayed/"+listCountry)
		return
	}

	queryCountry := listCountry
	if listCountry == "overall" {
		queryCountry = ""
	}
	prayed, err := pc.queue.Prayed(ctx, queryCountry)
	if err != nil {
		logger.Error.Printf("PutBack: prayed lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading prayed list")
		return
	}
	pc.renderPartials(c, partial{"partial_prayed_list.html", gin.H{
		"PrayedForList": prayedListViews(pc.cfg, prayed),
		"CountryCode":   listCountry,
	}})
}

// refreshMap regenerates a country's published map image. Failures are
// logged, not fatal: the stale image keeps serving.
func (pc *PrayerController) refreshMap(c *gin.Context, countryCode string, head *models.Representative) string {
	prayed, err := pc.queue.Prayed(c.Request.Context(), countryCode)
	if err != nil {
		logger.Error.Printf("refreshMap: prayed lookup failed for %s: %v", countryCode, err)
		return ""
	}
	version, err := pc.maps.GenerateCountryMap(countryCode, prayed, head)
	if err != nil {
		logger.Error.Printf("refreshMap: map generation failed for %s: %v", countryCode, err)
		return ""
	}
	return version
}

func (pc *PrayerController) transitionError(c *gin.Context, op string, id int64, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.Warn.Printf("%s: representative %d not found", op, id)
		c.String(http.StatusNotFound, "Representative not found")
	case errors.Is(err, store.ErrWrongState):
		logger.Warn.Printf("%s: representative %d already transitioned", op, id)
		c.String(http.StatusConflict, "Representative already updated")
	default:
		logger.Error.Printf("%s: transition for %d failed: %v", op, id, err)
		c.String(http.StatusInternalServerError, "Error updating representative")
	}
}

type partial struct {
	name string
	data gin.H
}

// renderPartials writes several named templates into one HTMX response;
// everything after the first is an out-of-band swap.
func (pc *PrayerController) renderPartials(c *gin.Context, parts ...partial) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	for _, p := range parts {
		if err := pc.tmpl.ExecuteTemplate(c.Writer, p.name, p.data); err != nil {
			logger.Error.Printf("renderPartials: template %s failed: %v", p.name, err)
			return
		}
	}
}
