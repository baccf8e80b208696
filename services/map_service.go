// Package services: services/map_service.go
//
// The map composer turns one country's hex-grid geometry plus the current
// representative statuses into a single PNG: default units are white with
// a light grey outline, the unit of the next-in-queue representative is
// highlighted yellow, and every prayed representative's unit gets a heart
// drawn at the centre of its bounding box. Rendering is a pure function of
// the input state: same state, same bytes.
package services

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"prayreps/config"
	"prayreps/geodata"
	"prayreps/logger"
	"prayreps/models"
)

const (
	mapCanvasSize = 1000

	colorBackground = "#FFFFFF"
	colorUnitFill   = "#FFFFFF"
	colorUnitEdge   = "#D3D3D3"
	colorHighlight  = "#FFFF00"
	colorOutline    = "#000000"
)

// heartPalette is the fixed set of heart colours; each representative
// keeps the same colour forever because the pick is hashed from its
// natural key.
var heartPalette = []string{"#E02020", "#C2185B", "#E91E63", "#FF5A79"}

// MapService composes and publishes country map images.
type MapService struct {
	cfg    *config.Config
	atlas  *geodata.Atlas
	outDir string
}

// NewMapService wires the composer. Images are written under outDir
// (normally the static dir).
func NewMapService(cfg *config.Config, atlas *geodata.Atlas) *MapService {
	return &MapService{cfg: cfg, atlas: atlas, outDir: cfg.StaticDir}
}

// ImageName is the file name of a country's rendered map under the
// static dir.
func ImageName(country string) string {
	return fmt.Sprintf("hex_map_%s.png", country)
}

// projection maps geographic coordinates onto the canvas, preserving
// aspect ratio and flipping the y axis.
type projection struct {
	scale            float64
	minX, minY       float64
	offsetX, offsetY float64
}

func newProjection(bound orb.Bound, padX, padY float64) projection {
	width := bound.Max[0] - bound.Min[0]
	height := bound.Max[1] - bound.Min[1]
	minX := bound.Min[0] - width*padX
	minY := bound.Min[1] - height*padY
	fullW := width * (1 + 2*padX)
	fullH := height * (1 + 2*padY)

	scale := float64(mapCanvasSize) / fullW
	if s := float64(mapCanvasSize) / fullH; s < scale {
		scale = s
	}
	return projection{
		scale:   scale,
		minX:    minX,
		minY:    minY,
		offsetX: (float64(mapCanvasSize) - fullW*scale) / 2,
		offsetY: (float64(mapCanvasSize) - fullH*scale) / 2,
	}
}

func (p projection) point(pt orb.Point) (float64, float64) {
	x := (pt[0]-p.minX)*p.scale + p.offsetX
	y := float64(mapCanvasSize) - ((pt[1]-p.minY)*p.scale + p.offsetY)
	return x, y
}

// RenderPNG composes the map for a country from the prayed list and the
// country's next-in-queue representative (nil when its queue is empty)
// and returns the encoded PNG.
func (s *MapService) RenderPNG(countryCode string, prayed []models.Representative, queueHead *models.Representative) ([]byte, error) {
	country, ok := s.cfg.Country(countryCode)
	if !ok {
		return nil, fmt.Errorf("unknown country %q", countryCode)
	}
	m, ok := s.atlas.Country(countryCode)
	if !ok {
		return nil, fmt.Errorf("no geometry loaded for %s", countryCode)
	}

	dc := gg.NewContext(mapCanvasSize, mapCanvasSize)
	dc.SetHexColor(colorBackground)
	dc.Clear()

	proj := newProjection(m.Bound, country.MapPaddingX, country.MapPaddingY)

	// base layer: every unit in the default state
	for _, unit := range m.Units {
		tracePath(dc, unit.Geometry, proj)
		dc.SetHexColor(colorUnitFill)
		dc.FillPreserve()
		dc.SetHexColor(colorUnitEdge)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	// highlight the unit of the representative currently in focus
	if queueHead != nil && queueHead.CountryCode == countryCode {
		if unit, ok := s.resolveUnit(m, country, *queueHead); ok {
			tracePath(dc, unit.Geometry, proj)
			dc.SetHexColor(colorHighlight)
			dc.FillPreserve()
			dc.SetHexColor(colorOutline)
			dc.SetLineWidth(2.5)
			dc.Stroke()
		}
	}

	// one heart per prayed representative, centred in the unit's bound
	placed := 0
	for _, rep := range prayed {
		if rep.CountryCode != countryCode {
			continue
		}
		unit, ok := s.resolveUnit(m, country, rep)
		if !ok {
			continue
		}
		bound := unit.Geometry.Bound()
		cx := (bound.Min[0] + bound.Max[0]) / 2
		cy := (bound.Min[1] + bound.Max[1]) / 2
		x, y := proj.point(orb.Point{cx, cy})
		size := heartSize(bound, proj.scale)
		drawHeart(dc, x, y, size, heartColor(rep))
		placed++
	}
	logger.Debug.Printf("map: placed %d hearts for %s", placed, countryCode)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode map for %s: %w", countryCode, err)
	}
	return buf.Bytes(), nil
}

// GenerateCountryMap renders and atomically publishes the country's map
// image under the static dir, returning a version token for cache
// busting.
func (s *MapService) GenerateCountryMap(countryCode string, prayed []models.Representative, queueHead *models.Representative) (string, error) {
	png, err := s.RenderPNG(countryCode, prayed, queueHead)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.outDir, 0750); err != nil {
		return "", err
	}
	final := filepath.Join(s.outDir, ImageName(countryCode))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, png, 0644); err != nil { // #nosec
		return "", fmt.Errorf("write map for %s: %w", countryCode, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", err
	}
	version := uuid.NewString()
	logger.Info.Printf("map: published %s (version %s)", final, version)
	return version, nil
}

// resolveUnit finds the map unit a representative is assigned to. A key
// that matches no geometry is a data-consistency problem: it is logged
// and skipped so one bad row never breaks the whole render.
func (s *MapService) resolveUnit(m *geodata.CountryMap, country config.Country, rep models.Representative) (geodata.Unit, bool) {
	key := rep.UnitKey(country.RandomAllocation)
	if key == "" {
		logger.Warn.Printf("map: %q (%s) has no map unit assigned", rep.PersonName, rep.CountryCode)
		return geodata.Unit{}, false
	}
	var unit geodata.Unit
	var ok bool
	if country.RandomAllocation {
		unit, ok = m.ByID(key)
	} else {
		unit, ok = m.UnitForLabel(key)
	}
	if !ok {
		logger.Warn.Printf("map: unit %q for %q not found in %s geometry, skipping", key, rep.PersonName, rep.CountryCode)
	}
	return unit, ok
}

// tracePath adds a polygon or multipolygon outline (exterior rings only,
// the hex grids have no holes) to the drawing context.
func tracePath(dc *gg.Context, geom orb.Geometry, proj projection) {
	switch g := geom.(type) {
	case orb.Polygon:
		traceRing(dc, g[0], proj)
	case orb.MultiPolygon:
		for _, poly := range g {
			if len(poly) > 0 {
				traceRing(dc, poly[0], proj)
			}
		}
	default:
		logger.Warn.Printf("map: unsupported geometry type %s", geom.GeoJSONType())
	}
}

func traceRing(dc *gg.Context, ring orb.Ring, proj projection) {
	if len(ring) == 0 {
		return
	}
	dc.NewSubPath()
	x, y := proj.point(ring[0])
	dc.MoveTo(x, y)
	for _, pt := range ring[1:] {
		x, y = proj.point(pt)
		dc.LineTo(x, y)
	}
	dc.ClosePath()
}

// heartSize scales the heart to the unit it sits in, clamped so it stays
// visible on dense grids and modest on sparse ones.
func heartSize(bound orb.Bound, scale float64) float64 {
	w := (bound.Max[0] - bound.Min[0]) * scale
	h := (bound.Max[1] - bound.Min[1]) * scale
	size := w
	if h < w {
		size = h
	}
	size *= 0.55
	if size < 8 {
		size = 8
	}
	if size > 25 {
		size = 25
	}
	return size
}

// heartColor picks a palette colour from the representative's natural
// key, keeping renders reproducible.
func heartColor(rep models.Representative) string {
	h := fnv.New64a()
	h.Write([]byte(rep.NaturalKey()))
	return heartPalette[h.Sum64()%uint64(len(heartPalette))]
}

// drawHeart draws a filled heart centred on (cx, cy); size is roughly its
// half-width.
func drawHeart(dc *gg.Context, cx, cy, size float64, hexColor string) {
	dc.NewSubPath()
	dc.MoveTo(cx, cy+0.5*size)
	dc.CubicTo(cx-size, cy-0.1*size, cx-0.55*size, cy-0.9*size, cx, cy-0.35*size)
	dc.CubicTo(cx+0.55*size, cy-0.9*size, cx+size, cy-0.1*size, cx, cy+0.5*size)
	dc.ClosePath()
	dc.SetHexColor(hexColor)
	dc.Fill()
}
