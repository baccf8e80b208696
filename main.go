// main.go
package main

import (
	"context"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"prayreps/config"
	"prayreps/controllers"
	"prayreps/geodata"
	"prayreps/live"
	"prayreps/logger"
	"prayreps/middleware"
	"prayreps/services"
	"prayreps/store"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	logger.SetLogLevel(cfg.Environment)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error.Fatalf("open database: %v", err)
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		logger.Error.Fatalf("initialise schema: %v", err)
	}

	// geometry is required for every configured country; refusing to start
	// beats serving maps with missing polygons
	atlas, err := geodata.LoadAtlas(cfg)
	if err != nil {
		logger.Error.Fatalf("load country geometry: %v", err)
	}

	queueService := services.NewQueueService(cfg, st, atlas)
	mapService := services.NewMapService(cfg, atlas)
	metrics := services.NewMetrics(cfg.MetricsEnabled)
	hub := live.NewHub()

	if err := queueService.SeedIfEmpty(ctx); err != nil {
		logger.Error.Fatalf("seed queue: %v", err)
	}

	// publish an initial map per country so the first page load never
	// references a missing image
	for _, code := range cfg.CountryCodes() {
		prayed, err := queueService.Prayed(ctx, code)
		if err != nil {
			logger.Error.Fatalf("load prayed list for %s: %v", code, err)
		}
		head, err := queueService.NextInQueue(ctx, code)
		if err != nil {
			logger.Error.Fatalf("load queue head for %s: %v", code, err)
		}
		if _, err := mapService.GenerateCountryMap(code, prayed, head); err != nil {
			logger.Error.Fatalf("render initial map for %s: %v", code, err)
		}
	}

	tmpl, err := template.ParseGlob(filepath.Join("templates", "*.html"))
	if err != nil {
		logger.Error.Fatalf("parse templates: %v", err)
	}

	router := gin.Default()
	router.SetHTMLTemplate(tmpl)

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("prayreps_session", sessionStore))

	router.Static("/static", cfg.StaticDir)
	router.GET("/favicon.ico", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticDir, "favicon.ico"))
	})

	pageController := controllers.NewPageController(cfg, queueService, mapService)
	prayerController := controllers.NewPrayerController(cfg, queueService, mapService, metrics, hub, tmpl)
	statsController := controllers.NewStatsController(cfg, queueService)
	adminController := controllers.NewAdminController(cfg, queueService, mapService)

	router.GET("/health", pageController.Health)
	router.GET("/", pageController.Home)
	router.GET("/queue", pageController.QueuePage)
	router.GET("/prayer/queue.json", pageController.QueueJSON)
	router.GET("/prayed/:country", pageController.PrayedListPage)
	router.GET("/qrcode", pageController.GetQRCode)

	router.POST("/prayer/process/:id", prayerController.ProcessItem)
	router.POST("/prayer/putback/:id", prayerController.PutBack)

	router.GET("/statistics", statsController.StatsPage)
	router.GET("/stats/data/:country", statsController.StatsDataJSON)
	router.GET("/stats/timedata/:country", statsController.StatsTimedataJSON)

	router.GET("/live", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	router.GET("/admin/login", adminController.ShowLoginPage)
	router.POST("/admin/login", adminController.PerformLogin)
	router.GET("/admin/logout", adminController.Logout)

	admin := router.Group("/admin", middleware.AdminRequired)
	{
		admin.GET("", adminController.AdminPage)
		admin.POST("/purge", adminController.Purge)
	}

	logger.Info.Printf("listening on %s", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Error.Fatalf("server stopped: %v", err)
	}
}
