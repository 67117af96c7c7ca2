package services

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

// weightEpsilon is the tolerance for weight tables summing to 1.0
const weightEpsilon = 1e-6

// CatalogSnapshot is an immutable view of all loaded frameworks. Consumers
// hold one snapshot for the duration of a computation; reloads swap the
// whole snapshot so a partially updated catalog is never observable.
type CatalogSnapshot struct {
	Frameworks map[string]*models.Framework
	Order      []string
	Version    int64
	LoadedAt   time.Time
}

// Framework resolves a framework by id
func (s *CatalogSnapshot) Framework(id string) (*models.Framework, error) {
	fw, ok := s.Frameworks[id]
	if !ok {
		return nil, &models.UnknownFrameworkError{FrameworkID: id}
	}
	return fw, nil
}

// List returns all frameworks in declaration order
func (s *CatalogSnapshot) List() []*models.Framework {
	out := make([]*models.Framework, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.Frameworks[id])
	}
	return out
}

// Catalog owns the framework definitions. Loaded once at startup from the
// configured data dir (JSON files, one framework per file) with an embedded
// fallback, then swapped atomically on reload.
type Catalog struct {
	dataDir  string
	logger   *logger.Logger
	version  atomic.Int64
	snapshot atomic.Pointer[CatalogSnapshot]
}

// NewCatalog creates a catalog and performs the initial load. Weight
// validation failures surface immediately so the process fails fast.
func NewCatalog(cfg config.CatalogConfig, log *logger.Logger) (*Catalog, error) {
	c := &Catalog{
		dataDir: cfg.DataDir,
		logger:  log.WithComponent("catalog"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Snapshot returns the current immutable catalog snapshot
func (c *Catalog) Snapshot() *CatalogSnapshot {
	return c.snapshot.Load()
}

// Framework resolves a framework by id from the current snapshot
func (c *Catalog) Framework(id string) (*models.Framework, error) {
	return c.Snapshot().Framework(id)
}

// List returns all frameworks from the current snapshot
func (c *Catalog) List() []*models.Framework {
	return c.Snapshot().List()
}

// Reload loads and validates framework definitions, then swaps the
// snapshot. In-flight computations keep the snapshot they started with.
func (c *Catalog) Reload() error {
	frameworks, source, err := c.loadFrameworks()
	if err != nil {
		return err
	}

	byID := make(map[string]*models.Framework, len(frameworks))
	order := make([]string, 0, len(frameworks))
	for _, fw := range frameworks {
		if err := validateFramework(fw); err != nil {
			return err
		}
		if _, dup := byID[fw.ID]; dup {
			return fmt.Errorf("duplicate framework id in catalog: %s", fw.ID)
		}
		byID[fw.ID] = fw
		order = append(order, fw.ID)
	}

	snap := &CatalogSnapshot{
		Frameworks: byID,
		Order:      order,
		Version:    c.version.Add(1),
		LoadedAt:   time.Now(),
	}
	c.snapshot.Store(snap)

	c.logger.Info().
		Int("frameworks", len(order)).
		Int64("version", snap.Version).
		Str("source", source).
		Msg("catalog loaded")

	return nil
}

// loadFrameworks reads framework JSON files from the data dir, falling
// back to the embedded definitions when no dir is configured or no files
// are present.
func (c *Catalog) loadFrameworks() ([]*models.Framework, string, error) {
	if c.dataDir == "" {
		return defaultFrameworks(), "embedded", nil
	}

	entries, err := os.ReadDir(c.dataDir)
	if err != nil {
		c.logger.Warn().Err(err).Str("dir", c.dataDir).Msg("catalog dir unreadable, using embedded definitions")
		return defaultFrameworks(), "embedded", nil
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return defaultFrameworks(), "embedded", nil
	}
	sort.Strings(files)

	var frameworks []*models.Framework
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(c.dataDir, name))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read catalog file %s: %w", name, err)
		}
		var fw models.Framework
		if err := json.Unmarshal(data, &fw); err != nil {
			return nil, "", fmt.Errorf("failed to parse catalog file %s: %w", name, err)
		}
		frameworks = append(frameworks, &fw)
	}

	return frameworks, c.dataDir, nil
}

// validateFramework checks structural invariants: domain weights sum to
// 1.0 within tolerance and maturity targets stay on the 0-100 scale
func validateFramework(fw *models.Framework) error {
	if fw.ID == "" {
		return fmt.Errorf("framework with empty id")
	}
	if len(fw.Domains) == 0 {
		return fmt.Errorf("framework %s has no domains", fw.ID)
	}

	var sum float64
	for _, d := range fw.Domains {
		sum += d.Weight
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return &models.InvalidWeightConfigurationError{Scope: "framework " + fw.ID, Sum: sum}
	}

	for _, d := range fw.Domains {
		for _, ctl := range d.Controls {
			if ctl.TargetMaturity < 0 || ctl.TargetMaturity > models.MaturityScaleMax {
				return fmt.Errorf("control %s in framework %s has target maturity %.1f outside [0,%.0f]",
					ctl.ID, fw.ID, ctl.TargetMaturity, models.MaturityScaleMax)
			}
		}
	}

	return nil
}
