// Package config holds the explicit application configuration.
// File: config/config.go
//
// Everything the queue service and map composer need (country list, party
// colour tables, data paths) lives on a Config value built once at startup
// and passed into constructors. There is no module-level mutable state.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// PartyStyle describes how a party is labelled and coloured in lists,
// charts and map legends.
type PartyStyle struct {
	ShortName string `json:"short_name"`
	Color     string `json:"color"`
}

// Country describes one tracked country: where its source list and map
// geometry live and how representatives are placed on the map.
type Country struct {
	Code        string
	Name        string
	Flag        string
	CSVPath     string
	GeoJSONPath string

	// LabelMappingPath points at an optional post_label -> geometry name
	// CSV for countries whose representatives map to a specific unit.
	// Empty for random-allocation countries.
	LabelMappingPath string

	// TotalRepresentatives caps how many rows of the source list are
	// loaded. Zero means "all rows".
	TotalRepresentatives int

	// RandomAllocation marks countries whose representatives are placed
	// on map units by a stable pseudo-random assignment rather than a
	// label match.
	RandomAllocation bool

	// MapPaddingX/Y control how much whitespace surrounds the plotted
	// geometry (fraction of the geometry's width/height).
	MapPaddingX float64
	MapPaddingY float64
}

// Config is the root application configuration.
type Config struct {
	Environment    string
	ListenAddr     string
	ApplicationURL string
	DatabaseURL    string
	StaticDir      string
	DataDir        string

	AdminUser         string
	AdminPasswordHash string
	SessionSecret     string

	MetricsEnabled bool

	Countries []Country
	PartyInfo map[string]map[string]PartyStyle
}

// OtherParty is the fallback style for parties with no configured colour.
var OtherParty = PartyStyle{ShortName: "Other", Color: "#CCCCCC"}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds the configuration from the environment, with defaults that
// match a local development checkout.
func Load() *Config {
	dataDir := getenv("DATA_DIR", "data")

	cfg := &Config{
		Environment:       getenv("APP_ENV", "development"),
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		ApplicationURL:    getenv("APPLICATION_URL", "http://localhost:8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StaticDir:         getenv("STATIC_DIR", "static"),
		DataDir:           dataDir,
		AdminUser:         getenv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SessionSecret:     getenv("SESSION_SECRET", "prayreps-dev-secret"),
		MetricsEnabled:    strings.EqualFold(os.Getenv("METRICS_ENABLED"), "true"),
		Countries: []Country{
			{
				Code:                 "israel",
				Name:                 "Israel",
				Flag:                 "\U0001F1EE\U0001F1F1",
				CSVPath:              filepath.Join(dataDir, "20221101_israel.csv"),
				GeoJSONPath:          filepath.Join(dataDir, "ISR_Parliament_120.geojson"),
				TotalRepresentatives: 120,
				RandomAllocation:     true,
				MapPaddingX:          0.25,
				MapPaddingY:          0.25,
			},
			{
				Code:                 "iran",
				Name:                 "Iran",
				Flag:                 "\U0001F1EE\U0001F1F7",
				CSVPath:              filepath.Join(dataDir, "20240510_iran.csv"),
				GeoJSONPath:          filepath.Join(dataDir, "IRN_IslamicParliamentofIran_290_v2.geojson"),
				TotalRepresentatives: 290,
				RandomAllocation:     true,
				MapPaddingX:          0.05,
				MapPaddingY:          0.05,
			},
		},
		PartyInfo: map[string]map[string]PartyStyle{
			"israel": {
				"Likud":      {ShortName: "Likud", Color: "#00387A"},
				"Yesh Atid":  {ShortName: "Yesh Atid", Color: "#ADD8E6"},
				"Shas":       {ShortName: "Shas", Color: "#FFFF00"},
				"Resilience": {ShortName: "Resilience", Color: "#0000FF"},
				"Labor":      {ShortName: "Labor", Color: "#FF0000"},
				"Other":      OtherParty,
			},
			"iran": {
				"Principlist": {ShortName: "Principlist", Color: "#006400"},
				"Reformists":  {ShortName: "Reformists", Color: "#90EE90"},
				"Independent": {ShortName: "Independent", Color: "#808080"},
				"Other":       OtherParty,
			},
		},
	}
	return cfg
}

// Country returns the configuration for a country code.
func (c *Config) Country(code string) (Country, bool) {
	for _, country := range c.Countries {
		if country.Code == code {
			return country, true
		}
	}
	return Country{}, false
}

// CountryCodes returns the configured country codes in display order.
func (c *Config) CountryCodes() []string {
	codes := make([]string, 0, len(c.Countries))
	for _, country := range c.Countries {
		codes = append(codes, country.Code)
	}
	return codes
}

// DefaultCountry returns the first configured country code, used when a
// request names no country or an unknown one.
func (c *Config) DefaultCountry() string {
	if len(c.Countries) == 0 {
		return ""
	}
	return c.Countries[0].Code
}

// PartyStyle resolves a party name for a country to its display style,
// falling back to the country's "Other" entry and then to OtherParty.
func (c *Config) PartyStyle(countryCode, party string) PartyStyle {
	info, ok := c.PartyInfo[countryCode]
	if !ok {
		return OtherParty
	}
	if style, ok := info[party]; ok {
		return style
	}
	if style, ok := info["Other"]; ok {
		return style
	}
	return OtherParty
}
