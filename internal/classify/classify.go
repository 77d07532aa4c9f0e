package classify

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

var datedFolder = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}`)

// Rule names the precedence rule that chose a destination
type Rule string

const (
	RuleHangouts Rule = "hangouts"
	RuleTrash    Rule = "trash"
	RuleLibrary  Rule = "library"
	RuleAlbum    Rule = "album"
)

// Destination returns the subfolder, relative to the export base, of a
// record from folderName. Rules apply in order: grouped conversation,
// trashed, date-shaped folder, album.
func Destination(folderName string, trashed bool, year int, cfg config.Folders) (string, Rule) {
	if cfg.HangoutPrefix != "" && strings.HasPrefix(folderName, cfg.HangoutPrefix) {
		name := strings.TrimLeft(strings.TrimPrefix(folderName, cfg.HangoutPrefix), " _")
		return path.Join(cfg.Hangouts, name), RuleHangouts
	}
	if trashed {
		return cfg.Trash, RuleTrash
	}
	if datedFolder.MatchString(folderName) {
		return path.Join(cfg.Library, strconv.Itoa(year)), RuleLibrary
	}
	return path.Join(cfg.Albums, folderName), RuleAlbum
}

// FolderName is the name of the folder a media entry sits in, empty for
// entries at the archive root
func FolderName(mediaPath string) string {
	dir := path.Dir(mediaPath)
	if dir == "." || dir == "/" {
		return ""
	}
	return path.Base(dir)
}

// Summary counts destinations per rule
type Summary struct {
	ByRule  map[Rule]int
	Skipped int
}

// Classifier records a destination folder for every matched record
type Classifier struct {
	db     *db.DB
	cfg    config.Folders
	logger *zap.Logger
}

// New creates a new classifier instance
func New(store *db.DB, cfg config.Folders, logger *zap.Logger) *Classifier {
	return &Classifier{db: store, cfg: cfg, logger: logger}
}

// Classify runs over all matches. Records whose sidecar never parsed as
// media metadata, and records at the archive root, are left unclassified.
func (c *Classifier) Classify() (Summary, error) {
	sum := Summary{ByRule: map[Rule]int{}}
	matches, err := c.db.Matches(db.MatchFilter{})
	if err != nil {
		return sum, fmt.Errorf("failed to list matches: %w", err)
	}

	for _, m := range matches {
		if m.Meta.Type != models.MetaTypeMedia {
			c.logger.Warn("matched sidecar holds no media metadata",
				zap.String("path", m.Media.Path),
				zap.String("sidecar", m.Media.MetaPath),
			)
			sum.Skipped++
			continue
		}
		name := FolderName(m.Media.Path)
		if name == "" {
			c.logger.Warn("media outside any folder left unclassified", zap.String("path", m.Media.Path))
			sum.Skipped++
			continue
		}
		folder, rule := Destination(name, m.Meta.Trashed, m.Meta.Year, c.cfg)
		if err := c.db.SetFolder(m.Media.Path, folder); err != nil {
			return sum, err
		}
		sum.ByRule[rule]++
	}

	c.logger.Info("classified matched media",
		zap.Int("library", sum.ByRule[RuleLibrary]),
		zap.Int("albums", sum.ByRule[RuleAlbum]),
		zap.Int("trash", sum.ByRule[RuleTrash]),
		zap.Int("hangouts", sum.ByRule[RuleHangouts]),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}
