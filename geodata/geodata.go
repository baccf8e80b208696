// Package geodata loads the immutable per-country map geometry.
// File: geodata/geodata.go
//
// Each country has a GeoJSON FeatureCollection with one polygon (or
// multipolygon) per administrative unit. Random-allocation countries key
// their units by a stable "id" property; label-matched countries key them
// by "name", optionally routed through a post_label -> name mapping CSV.
// Geometry is loaded once at startup and read-only afterwards.
package geodata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"prayreps/config"
	"prayreps/logger"
)

// Unit is one administrative unit of a country map.
type Unit struct {
	ID       string
	Name     string
	Geometry orb.Geometry
	Centroid orb.Point
}

// CountryMap holds the loaded geometry for one country.
type CountryMap struct {
	Code  string
	Units []Unit
	Bound orb.Bound

	byID        map[string]int
	byName      map[string]int
	labelToName map[string]string
}

// LoadCountryMap reads a country's GeoJSON file and, when configured, its
// post-label mapping CSV. Unreadable files are an error: without geometry
// no valid state can be constructed, so callers treat this as fatal.
func LoadCountryMap(country config.Country) (*CountryMap, error) {
	data, err := os.ReadFile(country.GeoJSONPath)
	if err != nil {
		return nil, fmt.Errorf("read geometry for %s: %w", country.Code, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geometry for %s: %w", country.Code, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("geometry for %s has no features", country.Code)
	}

	m := &CountryMap{
		Code:        country.Code,
		byID:        make(map[string]int),
		byName:      make(map[string]int),
		labelToName: make(map[string]string),
	}

	for _, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		centroid, _ := planar.CentroidArea(feature.Geometry)
		unit := Unit{
			ID:       feature.Properties.MustString("id", ""),
			Name:     feature.Properties.MustString("name", ""),
			Geometry: feature.Geometry,
			Centroid: centroid,
		}
		idx := len(m.Units)
		m.Units = append(m.Units, unit)
		if unit.ID != "" {
			m.byID[unit.ID] = idx
		}
		if unit.Name != "" {
			m.byName[unit.Name] = idx
		}
		if idx == 0 {
			m.Bound = feature.Geometry.Bound()
		} else {
			m.Bound = m.Bound.Union(feature.Geometry.Bound())
		}
	}

	if country.RandomAllocation && len(m.byID) == 0 {
		return nil, fmt.Errorf("geometry for %s has no 'id' properties but the country uses random allocation", country.Code)
	}

	if country.LabelMappingPath != "" {
		if err := m.loadLabelMapping(country.LabelMappingPath); err != nil {
			return nil, err
		}
	}

	logger.Info.Printf("geodata: loaded %d units for %s", len(m.Units), country.Code)
	return m, nil
}

// loadLabelMapping reads a two-column CSV (post_label, name) that routes
// representative post labels to geometry unit names.
func (m *CountryMap) loadLabelMapping(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read label mapping for %s: %w", m.Code, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("label mapping for %s: %w", m.Code, err)
	}
	labelCol, nameCol := -1, -1
	for i, col := range header {
		switch col {
		case "post_label":
			labelCol = i
		case "name":
			nameCol = i
		}
	}
	if labelCol < 0 || nameCol < 0 {
		return fmt.Errorf("label mapping for %s needs post_label and name columns", m.Code)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("label mapping for %s: %w", m.Code, err)
		}
		if record[labelCol] != "" && record[nameCol] != "" {
			m.labelToName[record[labelCol]] = record[nameCol]
		}
	}
	return nil
}

// UnitIDs returns the ids of all units that carry one, sorted for
// deterministic assignment.
func (m *CountryMap) UnitIDs() []string {
	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByID looks a unit up by its stable id property.
func (m *CountryMap) ByID(id string) (Unit, bool) {
	idx, ok := m.byID[id]
	if !ok {
		return Unit{}, false
	}
	return m.Units[idx], true
}

// ByName looks a unit up by its name property.
func (m *CountryMap) ByName(name string) (Unit, bool) {
	idx, ok := m.byName[name]
	if !ok {
		return Unit{}, false
	}
	return m.Units[idx], true
}

// UnitForLabel resolves a representative's post label to a unit, going
// through the label mapping when one was loaded and falling back to a
// direct name match.
func (m *CountryMap) UnitForLabel(label string) (Unit, bool) {
	if label == "" {
		return Unit{}, false
	}
	if name, ok := m.labelToName[label]; ok {
		return m.ByName(name)
	}
	return m.ByName(label)
}

// ----------------------------- atlas -----------------------------

// Atlas holds the loaded maps of every configured country.
type Atlas struct {
	maps map[string]*CountryMap
}

// LoadAtlas loads geometry for all configured countries. Any failure is
// returned as-is; startup should halt on it.
func LoadAtlas(cfg *config.Config) (*Atlas, error) {
	atlas := &Atlas{maps: make(map[string]*CountryMap)}
	for _, country := range cfg.Countries {
		m, err := LoadCountryMap(country)
		if err != nil {
			return nil, err
		}
		atlas.maps[country.Code] = m
	}
	return atlas, nil
}

// Country returns the loaded map for a country code.
func (a *Atlas) Country(code string) (*CountryMap, bool) {
	m, ok := a.maps[code]
	return m, ok
}
