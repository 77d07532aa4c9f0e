package extract

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// flexInt accepts integers encoded either as JSON numbers or as strings,
// Takeout writes timestamps and view counts as strings.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %q", b)
	}
	f.Value, f.Set = v, true
	return nil
}

type geoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

type albumData struct {
	Title       *string `json:"title"`
	Description string  `json:"description"`
}

// sidecar is the union of the album and media JSON payloads
type sidecar struct {
	Title          *string  `json:"title"`
	Description    string   `json:"description"`
	ImageViews     flexInt  `json:"imageViews"`
	Trashed        bool     `json:"trashed"`
	GeoDataExif    *geoData `json:"geoDataExif"`
	GeoData        *geoData `json:"geoData"`
	PhotoTakenTime *struct {
		Timestamp flexInt `json:"timestamp"`
	} `json:"photoTakenTime"`
	AlbumData *albumData `json:"albumData"`
}
