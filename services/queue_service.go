// Package services: services/queue_service.go
package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"
	"time"

	"prayreps/config"
	"prayreps/geodata"
	"prayreps/logger"
	"prayreps/models"
	"prayreps/store"
)

// QueueServiceInterface is what controllers depend on; tests substitute a
// mock.
type QueueServiceInterface interface {
	NextInQueue(ctx context.Context, country string) (*models.Representative, error)
	NextOverall(ctx context.Context) (*models.Representative, error)
	Queued(ctx context.Context) ([]models.Representative, error)
	Prayed(ctx context.Context, country string) ([]models.Representative, error)
	MarkPrayed(ctx context.Context, id int64) (*models.Representative, error)
	PutBack(ctx context.Context, id int64) (*models.Representative, error)
	PurgeAndReload(ctx context.Context, countries []string) (int, error)
	PartyStats(ctx context.Context, country string) ([]models.PartyCount, error)
	Timeline(ctx context.Context, country string) (*models.Timeline, error)
	OverallPrayedCount(ctx context.Context) (int, error)
	QueueSize(ctx context.Context) (int, error)
	Remaining(ctx context.Context) (int, error)
}

// QueueService implements the queue state machine ({queued <-> prayed} per
// representative) on top of the Store, plus the derived statistics.
type QueueService struct {
	cfg   *config.Config
	store *store.Store
	atlas *geodata.Atlas

	mu           sync.Mutex
	sourceTotals map[string]int

	// overridable for tests
	now func() time.Time
}

var _ QueueServiceInterface = (*QueueService)(nil)

// NewQueueService wires the service with its explicit dependencies.
func NewQueueService(cfg *config.Config, st *store.Store, atlas *geodata.Atlas) *QueueService {
	return &QueueService{
		cfg:          cfg,
		store:        st,
		atlas:        atlas,
		sourceTotals: make(map[string]int),
		now:          time.Now,
	}
}

// ------------------------- queue reads -------------------------

// NextInQueue returns the earliest-inserted queued representative for a
// country, or nil when the country's queue is empty. No side effects.
func (s *QueueService) NextInQueue(ctx context.Context, country string) (*models.Representative, error) {
	reps, err := s.store.Queued(ctx, country, 1)
	if err != nil {
		return nil, err
	}
	if len(reps) == 0 {
		return nil, nil
	}
	return &reps[0], nil
}

// NextOverall returns the earliest-inserted queued representative across
// all countries; the home page prays through the interleaved queue.
func (s *QueueService) NextOverall(ctx context.Context) (*models.Representative, error) {
	return s.NextInQueue(ctx, "")
}

// Queued returns the whole queue in insertion order.
func (s *QueueService) Queued(ctx context.Context) ([]models.Representative, error) {
	return s.store.Queued(ctx, "", 0)
}

// Prayed returns prayed representatives, most recent first. An empty
// country selects all countries.
func (s *QueueService) Prayed(ctx context.Context, country string) ([]models.Representative, error) {
	return s.store.Prayed(ctx, country)
}

// ----------------------- status transitions --------------------

// MarkPrayed flips a queued representative to prayed and stamps the
// prayer time. Marking an absent or already-prayed representative fails
// with store.ErrNotFound / store.ErrWrongState.
func (s *QueueService) MarkPrayed(ctx context.Context, id int64) (*models.Representative, error) {
	rep, err := s.store.MarkPrayed(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	logger.Info.Printf("queue: marked %q (%s) as prayed", rep.PersonName, rep.CountryCode)
	return rep, nil
}

// PutBack returns a prayed representative to the queue and clears its
// prayer timestamp. For random-allocation countries the representative is
// moved to a free map unit chosen deterministically from its natural key,
// so repeated reloads land it in the same place.
func (s *QueueService) PutBack(ctx context.Context, id int64) (*models.Representative, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	newHexID := ""
	if country, ok := s.cfg.Country(current.CountryCode); ok && country.RandomAllocation {
		newHexID, err = s.availableHexID(ctx, *current)
		if err != nil {
			return nil, err
		}
	}
	rep, err := s.store.PutBack(ctx, id, newHexID, s.now())
	if err != nil {
		return nil, err
	}
	logger.Info.Printf("queue: put %q (%s) back in queue, hex=%s", rep.PersonName, rep.CountryCode, rep.HexID)
	return rep, nil
}

// availableHexID picks a free map unit for one representative. The free
// pool excludes units held by anyone else; the pick is seeded from the
// representative's natural key.
func (s *QueueService) availableHexID(ctx context.Context, rep models.Representative) (string, error) {
	m, ok := s.atlas.Country(rep.CountryCode)
	if !ok {
		return "", fmt.Errorf("no geometry loaded for %s", rep.CountryCode)
	}
	used, err := s.store.UsedHexIDs(ctx, rep.CountryCode, rep.ID)
	if err != nil {
		return "", err
	}
	var free []string
	for _, id := range m.UnitIDs() {
		if !used[id] {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		logger.Warn.Printf("queue: no free map units in %s, keeping previous assignment", rep.CountryCode)
		return "", nil
	}
	rng := rand.New(rand.NewSource(seedFromKey(rep.NaturalKey())))
	return free[rng.Intn(len(free))], nil
}

// seedFromKey derives a stable RNG seed from a string key (FNV-64a).
func seedFromKey(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// ------------------------ purge and reload ---------------------

// PurgeAndReload deletes every representative of the given countries and
// re-ingests them from their source lists in row order, all queued.
// Random-allocation countries get their map units reassigned by shuffling
// the sorted unit ids with an RNG seeded from the country code, so the
// same source list and geometry always reproduce the same placement. Each
// unit is drawn from the pool at most once, so no polygon ever maps to two
// representatives. Returns the number of rows inserted.
func (s *QueueService) PurgeAndReload(ctx context.Context, countries []string) (int, error) {
	inserted := 0
	for _, code := range countries {
		country, ok := s.cfg.Country(code)
		if !ok {
			return inserted, fmt.Errorf("unknown country %q", code)
		}
		rows, err := LoadSourceList(country)
		if err != nil {
			return inserted, err
		}

		deleted, err := s.store.DeleteCountries(ctx, []string{code})
		if err != nil {
			return inserted, err
		}
		logger.Info.Printf("queue: purged %d rows for %s", deleted, code)

		var freeUnits []string
		if country.RandomAllocation {
			m, ok := s.atlas.Country(code)
			if !ok {
				return inserted, fmt.Errorf("no geometry loaded for %s", code)
			}
			freeUnits = m.UnitIDs()
			rng := rand.New(rand.NewSource(seedFromKey(code)))
			rng.Shuffle(len(freeUnits), func(i, j int) {
				freeUnits[i], freeUnits[j] = freeUnits[j], freeUnits[i]
			})
		}

		now := s.now()
		for i, row := range rows {
			rep := models.Representative{
				PersonName:  row.PersonName,
				PostLabel:   row.PostLabel,
				CountryCode: code,
				Party:       row.Party,
				Thumbnail:   row.Thumbnail,
				Status:      models.StatusQueued,
				StatusAt:    now,
				AddedAt:     now,
			}
			if country.RandomAllocation && i < len(freeUnits) {
				rep.HexID = freeUnits[i]
			}
			ok, err := s.store.Insert(ctx, rep)
			if err != nil {
				return inserted, err
			}
			if ok {
				inserted++
			}
		}

		s.mu.Lock()
		s.sourceTotals[code] = len(rows)
		s.mu.Unlock()
	}
	return inserted, nil
}

// SeedIfEmpty prepares every configured country at startup: countries
// with no rows at all get a full reload, countries whose source list has
// grown are topped up. Prayed rows are never touched, so progress
// survives restarts and list updates.
func (s *QueueService) SeedIfEmpty(ctx context.Context) error {
	for _, country := range s.cfg.Countries {
		count, err := s.store.CountAll(ctx, country.Code)
		if err != nil {
			return err
		}
		if count == 0 {
			if _, err := s.PurgeAndReload(ctx, []string{country.Code}); err != nil {
				return err
			}
			continue
		}
		if err := s.topUp(ctx, country, count); err != nil {
			return err
		}
	}
	return nil
}

// topUp inserts source rows missing from a country that already has
// state. Already-prayed representatives are skipped by natural key; new
// rows queue up with hex ids drawn from the free pool.
func (s *QueueService) topUp(ctx context.Context, country config.Country, existing int) error {
	rows, err := LoadSourceList(country)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sourceTotals[country.Code] = len(rows)
	s.mu.Unlock()
	if existing >= len(rows) {
		return nil
	}

	prayed, err := s.store.PrayedKeys(ctx, country.Code)
	if err != nil {
		return err
	}

	var freeUnits []string
	if country.RandomAllocation {
		m, ok := s.atlas.Country(country.Code)
		if !ok {
			return fmt.Errorf("no geometry loaded for %s", country.Code)
		}
		used, err := s.store.UsedHexIDs(ctx, country.Code, 0)
		if err != nil {
			return err
		}
		for _, id := range m.UnitIDs() {
			if !used[id] {
				freeUnits = append(freeUnits, id)
			}
		}
		rng := rand.New(rand.NewSource(seedFromKey(country.Code)))
		rng.Shuffle(len(freeUnits), func(i, j int) {
			freeUnits[i], freeUnits[j] = freeUnits[j], freeUnits[i]
		})
	}

	now := s.now()
	added, nextUnit := 0, 0
	for _, row := range rows {
		rep := models.Representative{
			PersonName:  row.PersonName,
			PostLabel:   row.PostLabel,
			CountryCode: country.Code,
			Party:       row.Party,
			Thumbnail:   row.Thumbnail,
			Status:      models.StatusQueued,
			StatusAt:    now,
			AddedAt:     now,
		}
		if prayed[rep.NaturalKey()] {
			continue
		}
		if country.RandomAllocation && nextUnit < len(freeUnits) {
			rep.HexID = freeUnits[nextUnit]
		}
		ok, err := s.store.Insert(ctx, rep)
		if err != nil {
			return err
		}
		if ok {
			added++
			nextUnit++
		}
	}
	if added > 0 {
		logger.Info.Printf("queue: topped up %d representatives for %s", added, country.Code)
	}
	return nil
}

// ------------------------- statistics --------------------------

// PartyStats counts prayed representatives per party short name for one
// country, largest first (ties broken by name for stable output).
func (s *QueueService) PartyStats(ctx context.Context, country string) ([]models.PartyCount, error) {
	prayed, err := s.store.Prayed(ctx, country)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, rep := range prayed {
		style := s.cfg.PartyStyle(country, rep.Party)
		counts[style.ShortName]++
	}
	stats := make([]models.PartyCount, 0, len(counts))
	for party, count := range counts {
		stats = append(stats, models.PartyCount{Party: party, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Party < stats[j].Party
	})
	return stats, nil
}

// Timeline returns the prayed timestamps and their details in recording
// order. country "overall" aggregates all countries.
func (s *QueueService) Timeline(ctx context.Context, country string) (*models.Timeline, error) {
	queryCountry := country
	name := "Overall"
	if country == "overall" {
		queryCountry = ""
	} else if c, ok := s.cfg.Country(country); ok {
		name = c.Name
	}

	prayed, err := s.store.PrayedChronological(ctx, queryCountry)
	if err != nil {
		return nil, err
	}

	timeline := &models.Timeline{
		Timestamps:  make([]string, 0, len(prayed)),
		Values:      make([]models.TimelineValue, 0, len(prayed)),
		CountryName: name,
	}
	for _, rep := range prayed {
		timeline.Timestamps = append(timeline.Timestamps, rep.StatusAt.Format("2006-01-02 15:04:05"))
		value := models.TimelineValue{
			Place:  rep.PostLabel,
			Person: rep.PersonName,
			Party:  rep.Party,
		}
		if country == "overall" {
			if c, ok := s.cfg.Country(rep.CountryCode); ok {
				value.Country = c.Name
			} else {
				value.Country = "Unknown"
			}
		}
		timeline.Values = append(timeline.Values, value)
	}
	return timeline, nil
}

// OverallPrayedCount counts prayed representatives across all countries.
func (s *QueueService) OverallPrayedCount(ctx context.Context) (int, error) {
	return s.store.CountPrayed(ctx, "")
}

// QueueSize counts queued representatives across all countries.
func (s *QueueService) QueueSize(ctx context.Context) (int, error) {
	return s.store.CountQueued(ctx, "")
}

// Remaining is how many configured representatives have not been prayed
// for yet, across all countries.
func (s *QueueService) Remaining(ctx context.Context) (int, error) {
	prayed, err := s.OverallPrayedCount(ctx)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	total := 0
	for _, n := range s.sourceTotals {
		total += n
	}
	s.mu.Unlock()
	if total < prayed {
		return 0, nil
	}
	return total - prayed, nil
}
