// Package controllers file: controllers/page_controller.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prayreps/config"
	"prayreps/logger"
	"prayreps/models"
	"prayreps/services"
)

// PageController renders the full pages: home, queue and prayed lists.
type PageController struct {
	cfg   *config.Config
	queue services.QueueServiceInterface
	maps  *services.MapService
}

// NewPageController wires the page controller.
func NewPageController(cfg *config.Config, queue services.QueueServiceInterface, maps *services.MapService) *PageController {
	return &PageController{cfg: cfg, queue: queue, maps: maps}
}

// Health answers load-balancer checks.
func (pc *PageController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Home renders the main prayer page: current representative, the map of
// that representative's country, and the summary statistics.
func (pc *PageController) Home(c *gin.Context) {
	ctx := c.Request.Context()
	logger.Info.Println("Home: home page requested")

	current, err := pc.queue.NextOverall(ctx)
	if err != nil {
		logger.Error.Printf("Home: next in queue lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading queue")
		return
	}

	mapCountry := pc.cfg.DefaultCountry()
	if current != nil {
		mapCountry = current.CountryCode
	}

	prayed, err := pc.queue.Prayed(ctx, mapCountry)
	if err != nil {
		logger.Error.Printf("Home: prayed lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading prayed list")
		return
	}
	countryHead, err := pc.queue.NextInQueue(ctx, mapCountry)
	if err != nil {
		logger.Error.Printf("Home: country queue head lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading queue")
		return
	}
	version, err := pc.maps.GenerateCountryMap(mapCountry, prayed, countryHead)
	if err != nil {
		logger.Error.Printf("Home: map generation failed: %v", err)
		// render the page anyway; the previous image may still exist
	}

	remaining, _ := pc.queue.Remaining(ctx)
	queueSize, _ := pc.queue.QueueSize(ctx)
	totalPrayed, _ := pc.queue.OverallPrayedCount(ctx)

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Current":     currentItemView(pc.cfg, current),
		"CountryCode": mapCountry,
		"MapVersion":  version,
		"Remaining":   remaining,
		"QueueSize":   queueSize,
		"TotalPrayed": totalPrayed,
		"Countries":   pc.cfg.Countries,
	})
}

// QueuePage lists every queued representative in order.
func (pc *PageController) QueuePage(c *gin.Context) {
	items, err := pc.queue.Queued(c.Request.Context())
	if err != nil {
		logger.Error.Printf("QueuePage: queue lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading queue")
		return
	}
	c.HTML(http.StatusOK, "queue.html", gin.H{
		"Queue": pc.withCountryNames(items),
		"Now":   time.Now(),
	})
}

// QueueJSON returns the queue with country display names attached.
func (pc *PageController) QueueJSON(c *gin.Context) {
	items, err := pc.queue.Queued(c.Request.Context())
	if err != nil {
		logger.Error.Printf("QueueJSON: queue lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue unavailable"})
		return
	}
	c.JSON(http.StatusOK, pc.withCountryNames(items))
}

type queueItemView struct {
	models.Representative
	CountryName string `json:"country_name"`
}

func (pc *PageController) withCountryNames(items []models.Representative) []queueItemView {
	views := make([]queueItemView, 0, len(items))
	for _, item := range items {
		name := "Unknown Country"
		if country, ok := pc.cfg.Country(item.CountryCode); ok {
			name = country.Name
		}
		views = append(views, queueItemView{Representative: item, CountryName: name})
	}
	return views
}

// PrayedListPage renders the prayed list for one country, or the merged
// list for country code "overall".
func (pc *PageController) PrayedListPage(c *gin.Context) {
	countryCode := c.Param("country")
	ctx := c.Request.Context()

	if countryCode != "overall" {
		if _, ok := pc.cfg.Country(countryCode); !ok {
			logger.Warn.Printf("PrayedListPage: invalid country %q, redirecting", countryCode)
			c.Redirect(http.StatusFound, "/prayed/"+pc.cfg.DefaultCountry())
			return
		}
	}

	queryCountry := countryCode
	countryName := "Overall"
	if countryCode == "overall" {
		queryCountry = ""
	} else if country, ok := pc.cfg.Country(countryCode); ok {
		countryName = country.Name
	}

	prayed, err := pc.queue.Prayed(ctx, queryCountry)
	if err != nil {
		logger.Error.Printf("PrayedListPage: prayed lookup failed: %v", err)
		c.String(http.StatusInternalServerError, "Error loading prayed list")
		return
	}

	c.HTML(http.StatusOK, "prayed.html", gin.H{
		"PrayedForList": prayedListViews(pc.cfg, prayed),
		"CountryCode":   countryCode,
		"CountryName":   countryName,
		"Now":           time.Now(),
	})
}

// GetQRCode returns a QR code PNG for sharing the application URL.
func (pc *PageController) GetQRCode(c *gin.Context) {
	logger.Info.Println("GetQRCode: generating share QR code")
	qrBytes, err := services.GenerateShareQR(pc.cfg.ApplicationURL, 300)
	if err != nil {
		logger.Error.Printf("GetQRCode: error generating QR code: %v", err)
		c.String(http.StatusInternalServerError, "QR generation failed")
		return
	}
	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", "inline; filename=\"qrcode.png\"")
	if _, err := c.Writer.Write(qrBytes); err != nil {
		logger.Error.Printf("GetQRCode: error writing QR code bytes: %v", err)
	}
}

// ------------------------ shared view helpers ------------------------

type currentItem struct {
	ID          int64
	PersonName  string
	PostLabel   string
	Party       string
	Thumbnail   string
	CountryCode string
	CountryName string
	Flag        string
}

// currentItemView adapts the queue head for templates; nil stays nil so
// templates can render the "all done" state.
func currentItemView(cfg *config.Config, rep *models.Representative) *currentItem {
	if rep == nil {
		return nil
	}
	view := &currentItem{
		ID:          rep.ID,
		PersonName:  rep.PersonName,
		PostLabel:   rep.PostLabel,
		Party:       rep.Party,
		Thumbnail:   rep.Thumbnail,
		CountryCode: rep.CountryCode,
		CountryName: rep.CountryCode,
	}
	if country, ok := cfg.Country(rep.CountryCode); ok {
		view.CountryName = country.Name
		view.Flag = country.Flag
	}
	return view
}

type prayedItemView struct {
	models.Representative
	CountryName        string
	FormattedTimestamp string
	PartyClass         string
	PartyColor         string
}

func prayedListViews(cfg *config.Config, prayed []models.Representative) []prayedItemView {
	views := make([]prayedItemView, 0, len(prayed))
	for _, rep := range prayed {
		style := cfg.PartyStyle(rep.CountryCode, rep.Party)
		view := prayedItemView{
			Representative:     rep,
			CountryName:        "Unknown Country",
			FormattedTimestamp: FormatPrettyTimestamp(rep.PrayedAt()),
			PartyClass:         partyClass(style.ShortName),
			PartyColor:         style.Color,
		}
		if country, ok := cfg.Country(rep.CountryCode); ok {
			view.CountryName = country.Name
		}
		views = append(views, view)
	}
	return views
}
