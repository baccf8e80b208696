// file: controllers/test_helpers_test.go
package controllers

import (
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"prayreps/config"
	"prayreps/geodata"
)

// newTestConfig builds a minimal configuration for controller tests: one
// country, a throwaway static dir and a known admin credential.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	return &config.Config{
		Environment:       "test",
		ApplicationURL:    "http://localhost:8080",
		StaticDir:         t.TempDir(),
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
		SessionSecret:     "test-secret",
		Countries: []config.Country{
			{Code: "testland", Name: "Testland", RandomAllocation: true},
		},
		PartyInfo: map[string]map[string]config.PartyStyle{
			"testland": {
				"RedParty": {ShortName: "Red", Color: "#FF0000"},
				"Other":    config.OtherParty,
			},
		},
	}
}

// emptyAtlas returns an atlas with no geometry; handlers that render maps
// log the failure and keep serving.
func emptyAtlas(t *testing.T) *geodata.Atlas {
	t.Helper()
	atlas, err := geodata.LoadAtlas(&config.Config{})
	if err != nil {
		t.Fatalf("Failed to build empty atlas: %v", err)
	}
	return atlas
}

// setupTestRouter creates a Gin engine with session middleware and the
// dummy template set loaded.
func setupTestRouter(t *testing.T) (*gin.Engine, *template.Template) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("testsession", store))

	tmpDir := t.TempDir()
	if err := createDummyTemplates(tmpDir); err != nil {
		t.Fatalf("Failed to create dummy templates: %v", err)
	}
	tmpl, err := template.ParseGlob(filepath.Join(tmpDir, "*.html"))
	if err != nil {
		t.Fatalf("Failed to parse dummy templates: %v", err)
	}
	router.SetHTMLTemplate(tmpl)
	return router, tmpl
}

// createDummyTemplates writes minimal templates so handlers can render
// without the real template tree.
func createDummyTemplates(dir string) error {
	templates := map[string]string{
		"home.html":       `<html><body>home {{with .Current}}{{.PersonName}}{{end}}</body></html>`,
		"queue.html":      `<html><body>queue {{len .Queue}}</body></html>`,
		"prayed.html":     `<html><body>prayed {{.CountryName}}</body></html>`,
		"statistics.html": `<html><body>stats {{len .Tabs}}</body></html>`,
		"login.html":      `<html><body>login {{.Error}}</body></html>`,
		"admin.html":      `<html><body>admin {{.QueueSize}}</body></html>`,
		"partial_current_item.html": `<div id="current-item-container">` +
			`{{with .Current}}{{.PersonName}}{{else}}all done{{end}}</div>`,
		"partial_map_image.html": `<div id="map-image-container"{{if .OOB}} hx-swap-oob="true"{{end}}>` +
			`{{.CountryCode}}:{{.MapVersion}}</div>`,
		"partial_stats_summary.html": `<div id="stats-summary-container"{{if .OOB}} hx-swap-oob="true"{{end}}>` +
			`{{.Remaining}} remaining</div>`,
		"partial_prayed_list.html": `<div id="prayed-list-container">{{len .PrayedForList}} prayed</div>`,
	}

	for name, content := range templates {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}
