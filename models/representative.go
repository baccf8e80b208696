// Package models defines data structures used across the application.
// File: models/representative.go
package models

import (
	"fmt"
	"time"
)

// ------------------------ status values -----------------------

// A representative is always in exactly one of these states.
const (
	StatusQueued = "queued"
	StatusPrayed = "prayed"
)

// --------------------- representative model -------------------

// Representative is one elected official tracked by the system.
type Representative struct {
	ID          int64     `json:"id"`
	PersonName  string    `json:"person_name"`
	PostLabel   string    `json:"post_label,omitempty"` // administrative-unit label, empty for random placement
	CountryCode string    `json:"country_code"`
	Party       string    `json:"party"`
	Thumbnail   string    `json:"thumbnail,omitempty"` // path relative to the static dir
	Status      string    `json:"status"`
	StatusAt    time.Time `json:"status_timestamp"` // time of the last status transition
	AddedAt     time.Time `json:"added_timestamp"`
	HexID       string    `json:"hex_id,omitempty"` // assigned map unit for random-allocation countries
}

// NaturalKey identifies a representative independently of the row id, so
// that reloads and deterministic hex assignment survive purges.
func (r Representative) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s", r.CountryCode, r.PersonName, r.PostLabel)
}

// PrayedAt returns the prayed timestamp, or the zero time when the
// representative is still queued. The status timestamp only counts as a
// prayer time while status is "prayed".
func (r Representative) PrayedAt() time.Time {
	if r.Status != StatusPrayed {
		return time.Time{}
	}
	return r.StatusAt
}

// UnitKey returns the map-unit key used to place this representative:
// the assigned hex id for random-allocation countries, otherwise the
// post label.
func (r Representative) UnitKey(randomAllocation bool) string {
	if randomAllocation {
		return r.HexID
	}
	return r.PostLabel
}

// ----------------------- statistics payloads ------------------

// PartyCount is one entry of the per-country party breakdown.
type PartyCount struct {
	Party string `json:"party"`
	Count int    `json:"count"`
}

// TimelineValue is the detail attached to one recorded prayer.
type TimelineValue struct {
	Place   string `json:"place"`
	Person  string `json:"person"`
	Party   string `json:"party"`
	Country string `json:"country,omitempty"`
}

// Timeline is the payload of the statistics time-series endpoint:
// timestamps and values are parallel slices in recording order.
type Timeline struct {
	Timestamps  []string        `json:"timestamps"`
	Values      []TimelineValue `json:"values"`
	CountryName string          `json:"country_name"`
}
