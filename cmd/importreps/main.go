// Command importreps wipes and re-ingests the representative lists from
// the configured CSV sources, then prints a per-country summary. It is
// the offline equivalent of the admin purge endpoint, meant for initial
// provisioning and data refreshes.
package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"prayreps/config"
	"prayreps/geodata"
	"prayreps/logger"
	"prayreps/services"
	"prayreps/store"
)

func main() {
	countriesFlag := flag.String("countries", "", "comma-separated country codes to reload (default: all)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	codes := cfg.CountryCodes()
	if *countriesFlag != "" {
		codes = strings.Split(*countriesFlag, ",")
		for i, code := range codes {
			codes[i] = strings.TrimSpace(code)
		}
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

	atlas, err := geodata.LoadAtlas(cfg)
	if err != nil {
		logger.Error.Fatalf("load country geometry: %v", err)
	}

	queue := services.NewQueueService(cfg, st, atlas)

	color.Yellow("Reloading representatives for: %s", strings.Join(codes, ", "))
	inserted, err := queue.PurgeAndReload(ctx, codes)
	if err != nil {
		color.Red("Reload failed: %v", err)
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Country", "Source Rows", "Queued", "With Image", "Map Units"})
	for _, code := range codes {
		country, ok := cfg.Country(code)
		if !ok {
			continue
		}
		rows, err := services.LoadSourceList(country)
		if err != nil {
			logger.Error.Fatalf("read source list for %s: %v", code, err)
		}
		withImage := 0
		for _, row := range rows {
			if row.Thumbnail != "" && row.Thumbnail != "heart_icons/heart_red.png" {
				withImage++
			}
		}
		queued, err := st.CountQueued(ctx, code)
		if err != nil {
			logger.Error.Fatalf("count queued for %s: %v", code, err)
		}
		units := "-"
		if m, ok := atlas.Country(code); ok {
			units = strconv.Itoa(len(m.Units))
		}
		table.Append([]string{code, strconv.Itoa(len(rows)), strconv.Itoa(queued), strconv.Itoa(withImage), units})
	}
	table.Render()

	color.Green("Done: %d representatives queued.", inserted)
}
