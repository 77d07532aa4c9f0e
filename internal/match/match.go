package match

import (
	"fmt"
	"path"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
)

const cacheSize = 8192

// Lookup answers whether a sidecar path is registered
type Lookup interface {
	MetaExists(path string) (bool, error)
}

// Resolver finds the sidecar of a media path. Sidecar existence answers are
// cached since the sidecar key space is fixed while matching runs.
type Resolver struct {
	lookup Lookup
	cfg    config.Matching
	cache  *lru.Cache[string, bool]
}

// NewResolver creates a resolver with a cache of sidecar lookups
func NewResolver(lookup Lookup, cfg config.Matching) *Resolver {
	cache, err := lru.New[string, bool](cacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Resolver{lookup: lookup, cfg: cfg, cache: cache}
}

func (r *Resolver) exists(metaPath string) (bool, error) {
	if ok, hit := r.cache.Get(metaPath); hit {
		return ok, nil
	}
	ok, err := r.lookup.MetaExists(metaPath)
	if err != nil {
		return false, err
	}
	r.cache.Add(metaPath, ok)
	return ok, nil
}

// Resolve returns the first candidate sidecar that exists and the name of
// the rule that produced it. ok is false when no rule resolves.
func (r *Resolver) Resolve(mediaPath string) (metaPath, ruleName string, ok bool, err error) {
	n := splitMediaPath(mediaPath)
	for _, rl := range rules {
		candidate, applies := rl.candidate(n, r.cfg)
		if !applies {
			continue
		}
		found, err := r.exists(candidate)
		if err != nil {
			return "", "", false, fmt.Errorf("failed to look up %s: %w", candidate, err)
		}
		if found {
			return candidate, rl.name, true, nil
		}
	}
	return "", "", false, nil
}

// Summary counts matching outcomes
type Summary struct {
	Matched   int
	Unmatched int
	Edited    int
	ByRule    map[string]int
}

// Matcher pairs every media record with its sidecar
type Matcher struct {
	db       *db.DB
	cfg      config.Matching
	resolver *Resolver
	logger   *zap.Logger
}

// New creates a new matcher instance
func New(store *db.DB, cfg config.Matching, logger *zap.Logger) *Matcher {
	return &Matcher{
		db:       store,
		cfg:      cfg,
		resolver: NewResolver(store, cfg),
		logger:   logger,
	}
}

// Match evaluates every media record independently. Absence of a match is
// not an error, those records surface in the nomatch view.
func (m *Matcher) Match() (Summary, error) {
	sum := Summary{ByRule: map[string]int{}}
	media, err := m.db.AllMedia()
	if err != nil {
		return sum, fmt.Errorf("failed to list media: %w", err)
	}

	for _, rec := range media {
		if IsEdited(path.Base(rec.Path), m.cfg.EditedMarker) {
			if err := m.db.MarkEdited(rec.Path); err != nil {
				return sum, err
			}
			sum.Edited++
			continue
		}

		metaPath, ruleName, ok, err := m.resolver.Resolve(rec.Path)
		if err != nil {
			return sum, err
		}
		if !ok {
			sum.Unmatched++
			m.logger.Debug("no sidecar found", zap.String("path", rec.Path))
			continue
		}
		if err := m.db.SetMatch(rec.Path, metaPath); err != nil {
			return sum, err
		}
		sum.Matched++
		sum.ByRule[ruleName]++
	}

	m.logger.Info("matched media with metadata",
		zap.Int("matched", sum.Matched),
		zap.Int("unmatched", sum.Unmatched),
		zap.Int("edited", sum.Edited),
		zap.Any("rules", sum.ByRule),
	)
	return sum, nil
}
