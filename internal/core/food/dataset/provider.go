// Package dataset loads the two bundled offline nutrition datasets and
// normalizes their schemas into FoodRecords at the boundary. Loaders are
// memoized per provider; every failure degrades to an empty source.
package dataset

import (
	"os"
	"path/filepath"
	"sync"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// Provider owns the memoized offline dataset loads. It replaces module-level
// caches with an explicit lifecycle: construct once, share freely, Reset to
// drop the memo.
type Provider struct {
	cfg config.DatasetConfig

	mu  sync.Mutex
	off *memo
	fdc *memo
}

type memo struct {
	once    sync.Once
	records []common.FoodRecord
}

// NewProvider creates a provider over the configured dataset files.
func NewProvider(cfg config.DatasetConfig) *Provider {
	return &Provider{cfg: cfg, off: &memo{}, fdc: &memo{}}
}

// OFF returns the branded/packaged-goods dataset. The first call reads and
// parses the bundled file; later calls return the memoized slice. The
// returned slice is shared and must not be mutated.
func (p *Provider) OFF() []common.FoodRecord {
	p.mu.Lock()
	m := p.off
	p.mu.Unlock()

	m.once.Do(func() {
		m.records = p.load(common.SourceOFF, p.cfg.OFFFile, ParseOFFProducts)
	})
	return m.records
}

// FDC returns the government reference-foods dataset, memoized like OFF.
func (p *Provider) FDC() []common.FoodRecord {
	p.mu.Lock()
	m := p.fdc
	p.mu.Unlock()

	m.once.Do(func() {
		m.records = p.load(common.SourceFDC, p.cfg.FDCFile, ParseFDCFoundation)
	})
	return m.records
}

// Reset drops the memoized datasets so the next access reloads from disk.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.off = &memo{}
	p.fdc = &memo{}
}

// load reads one bundled file and parses it. Missing files and malformed
// payloads both degrade to an empty source; the search must stay usable when
// offline bundles are absent or corrupted.
func (p *Provider) load(source, file string, parse func([]byte) []common.FoodRecord) []common.FoodRecord {
	if file == "" {
		return nil
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.cfg.Dir, file)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		common.LogSourceDegraded(source, "offline bundle unreadable", err)
		return nil
	}

	records := parse(raw)
	if records == nil {
		common.LogSourceDegraded(source, "offline bundle malformed", nil)
		return nil
	}

	common.LogInfo("offline dataset loaded",
		zap.String("source", source),
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return records
}
