// Package services: services/source_list.go
//
// Reading of the per-country representative source lists (one CSV row per
// representative).
package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"prayreps/config"
	"prayreps/logger"
)

// fallbackThumbnail is used when a source row carries no image URL, so the
// queue page always has something to show. Path is relative to static/.
const fallbackThumbnail = "heart_icons/heart_red.png"

// SourceRow is one representative as read from a country's source list.
type SourceRow struct {
	PersonName string
	PostLabel  string
	Party      string
	Thumbnail  string
}

// LoadSourceList reads a country's CSV in row order, capped at the
// configured representative total. Required column: person_name.
// Recognised optional columns: post_label, party, image_url.
func LoadSourceList(country config.Country) ([]SourceRow, error) {
	f, err := os.Open(country.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("read source list for %s: %w", country.Code, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("source list for %s: %w", country.Code, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["person_name"]; !ok {
		return nil, fmt.Errorf("source list for %s has no person_name column", country.Code)
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []SourceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source list for %s: %w", country.Code, err)
		}
		name := field(record, "person_name")
		if name == "" {
			continue
		}
		row := SourceRow{
			PersonName: name,
			PostLabel:  field(record, "post_label"),
			Party:      field(record, "party"),
			Thumbnail:  normalizeThumbnail(field(record, "image_url")),
		}
		if row.Party == "" {
			row.Party = "Other"
		}
		rows = append(rows, row)
		if country.TotalRepresentatives > 0 && len(rows) >= country.TotalRepresentatives {
			break
		}
	}

	logger.Debug.Printf("source list: loaded %d rows for %s", len(rows), country.Code)
	return rows, nil
}

// normalizeThumbnail stores image paths relative to the static dir and
// falls back to the stock heart icon.
func normalizeThumbnail(imageURL string) string {
	if imageURL == "" {
		return fallbackThumbnail
	}
	return strings.TrimPrefix(imageURL, "static/")
}
