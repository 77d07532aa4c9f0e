package embed

import (
	"fmt"

	"github.com/barasher/go-exiftool"
)

// ExifTool is a Backend driving a long-running exiftool process
type ExifTool struct {
	et *exiftool.Exiftool
}

// NewExifTool starts exiftool, which must be on PATH
func NewExifTool() (*ExifTool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

func (x *ExifTool) Read(path string) (Fields, error) {
	infos := x.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if infos[0].Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, infos[0].Err)
	}

	fields := Fields{}
	for _, tag := range []string{TagDateTimeOriginal, TagImageDescription} {
		if v, err := infos[0].GetString(tag); err == nil {
			fields[tag] = v
		}
	}
	return fields, nil
}

func (x *ExifTool) Write(path string, set Fields) error {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	for tag, v := range set {
		fm.SetString(tag, v)
	}

	batch := []exiftool.FileMetadata{fm}
	x.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, batch[0].Err)
	}
	return nil
}

// Close stops the exiftool process
func (x *ExifTool) Close() error {
	return x.et.Close()
}

// Disabled is a Backend for runs without exiftool. Every file reports
// ErrUnsupported, so exports still get their file times.
type Disabled struct{}

func (Disabled) Read(path string) (Fields, error) {
	return nil, fmt.Errorf("%w: exiftool not available", ErrUnsupported)
}

func (Disabled) Write(path string, set Fields) error {
	return fmt.Errorf("%w: exiftool not available", ErrUnsupported)
}
