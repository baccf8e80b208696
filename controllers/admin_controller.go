// Package controllers file: controllers/admin_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"prayreps/config"
	"prayreps/logger"
	"prayreps/services"
)

// AdminController handles the admin login and the destructive queue
// maintenance actions behind it.
type AdminController struct {
	cfg   *config.Config
	queue services.QueueServiceInterface
	maps  *services.MapService
}

// NewAdminController wires the admin controller.
func NewAdminController(cfg *config.Config, queue services.QueueServiceInterface, maps *services.MapService) *AdminController {
	return &AdminController{cfg: cfg, queue: queue, maps: maps}
}

// ShowLoginPage renders the admin login form.
func (ac *AdminController) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// PerformLogin validates the admin credentials against the configured
// bcrypt hash and marks the session on success.
func (ac *AdminController) PerformLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if username != ac.cfg.AdminUser ||
		bcrypt.CompareHashAndPassword([]byte(ac.cfg.AdminPasswordHash), []byte(password)) != nil {
		logger.Warn.Printf("PerformLogin: failed login attempt for %q", username)
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Error": "Invalid username or password",
		})
		return
	}

	session := sessions.Default(c)
	session.Set("isAdmin", true)
	if err := session.Save(); err != nil {
		logger.Error.Printf("PerformLogin: session save failed: %v", err)
		c.String(http.StatusInternalServerError, "Login failed")
		return
	}
	logger.Info.Printf("PerformLogin: admin %q logged in", username)
	c.Redirect(http.StatusFound, "/admin")
}

// Logout drops the admin session.
func (ac *AdminController) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Error.Printf("Logout: session save failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// AdminPage renders the admin dashboard with the current queue numbers.
func (ac *AdminController) AdminPage(c *gin.Context) {
	ctx := c.Request.Context()
	queueSize, _ := ac.queue.QueueSize(ctx)
	totalPrayed, _ := ac.queue.OverallPrayedCount(ctx)
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"QueueSize":   queueSize,
		"TotalPrayed": totalPrayed,
		"Countries":   ac.cfg.Countries,
	})
}

// Purge wipes every country's rows, re-ingests the source lists and
// republishes the maps. Everything goes back to queued.
func (ac *AdminController) Purge(c *gin.Context) {
	ctx := c.Request.Context()
	codes := ac.cfg.CountryCodes()

	inserted, err := ac.queue.PurgeAndReload(ctx, codes)
	if err != nil {
		logger.Error.Printf("Purge: reload failed: %v", err)
		c.String(http.StatusInternalServerError, "Purge failed")
		return
	}
	logger.Info.Printf("Purge: reloaded %d representatives", inserted)

	for _, code := range codes {
		head, err := ac.queue.NextInQueue(ctx, code)
		if err != nil {
			logger.Error.Printf("Purge: queue head lookup for %s failed: %v", code, err)
			continue
		}
		if _, err := ac.maps.GenerateCountryMap(code, nil, head); err != nil {
			logger.Error.Printf("Purge: map regeneration for %s failed: %v", code, err)
		}
	}

	c.Redirect(http.StatusFound, "/admin")
}
