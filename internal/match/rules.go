package match

import (
	"path"
	"regexp"
	"strings"

	"github.com/projx/gphotos-export/internal/config"
)

// numberedCopy matches the "(1)." Google inserts into duplicate names
var numberedCopy = regexp.MustCompile(`\(\d\)\.`)

// mediaName splits a media path the way sidecar names are derived from it
type mediaName struct {
	folder   string // with trailing slash, empty at archive root
	filename string
	stem     string // path without extension
	ext      string
}

func splitMediaPath(mediaPath string) mediaName {
	ext := path.Ext(mediaPath)
	stem := strings.TrimSuffix(mediaPath, ext)
	folder := ""
	if i := strings.LastIndex(mediaPath, "/"); i >= 0 {
		folder = mediaPath[:i+1]
	}
	return mediaName{
		folder:   folder,
		filename: mediaPath[len(folder):],
		stem:     stem,
		ext:      ext,
	}
}

// rule proposes one candidate sidecar path, or none when it does not apply
type rule struct {
	name      string
	candidate func(n mediaName, cfg config.Matching) (string, bool)
}

// rules are evaluated in order; the first candidate present in the store wins
var rules = []rule{
	{name: "direct", candidate: matchDirect},
	{name: "truncated", candidate: matchTruncated},
	{name: "account-id", candidate: matchAccountID},
	{name: "numbered-copy", candidate: matchNumberedCopy},
	{name: "extension-dropped", candidate: matchExtensionDropped},
}

// <folder>/<filename>.json
func matchDirect(n mediaName, _ config.Matching) (string, bool) {
	return n.folder + n.filename + ".json", true
}

// long names are cut before ".json" is appended
func matchTruncated(n mediaName, cfg config.Matching) (string, bool) {
	r := []rune(n.filename)
	if len(r) <= cfg.TruncateLength {
		return "", false
	}
	return n.folder + string(r[:cfg.TruncateLength]) + ".json", true
}

// Hangouts media carrying an account id lose their extension
func matchAccountID(n mediaName, cfg config.Matching) (string, bool) {
	if cfg.AccountMarker == "" || !strings.Contains(n.filename, cfg.AccountMarker) {
		return "", false
	}
	return n.stem + ".json", true
}

// IMG_1(1).jpg shares IMG_1.jpg.json with its base file
func matchNumberedCopy(n mediaName, _ config.Matching) (string, bool) {
	if !numberedCopy.MatchString(n.filename) {
		return "", false
	}
	i := strings.LastIndex(n.stem, "(")
	if i < len(n.folder) {
		return "", false
	}
	return n.stem[:i] + n.ext + ".json", true
}

func matchExtensionDropped(n mediaName, _ config.Matching) (string, bool) {
	return n.stem + ".json", true
}

// IsEdited reports whether filename is an edited variant, which never
// receives metadata of its own
func IsEdited(filename, marker string) bool {
	return strings.Contains(filename, marker)
}
