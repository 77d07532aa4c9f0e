package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/projx/gphotos-export/pkg/models"
)

// Resolve picks the destination of a file named filename of size bytes
// inside dir. An existing file of the same name and size means the file is
// already there and nothing is written; a different size moves on to
// name_1.ext, name_2.ext and so on until a free name is found. Existing
// files are never overwritten.
func Resolve(dir, filename string, size int64) (dest, note string, write bool, err error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for i := 0; ; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dest = filepath.Join(dir, name)

		fi, err := os.Stat(dest)
		if errors.Is(err, fs.ErrNotExist) {
			if i == 0 {
				return dest, models.NoteNewFile, true, nil
			}
			return dest, models.NoteRenamed, true, nil
		}
		if err != nil {
			return "", "", false, err
		}
		if i == 0 && fi.Size() == size {
			return dest, models.NoteSkippedSame, false, nil
		}
	}
}
