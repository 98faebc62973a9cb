package redate

import (
	"fmt"
	"strings"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

const exifGroup = "EXIF:"

type ExifToolOptions struct {
	// Binary is the exiftool executable. Empty means "exiftool" from $PATH.
	Binary string
	// BackupOriginal keeps a <name>_original copy next to each rewritten file.
	BackupOriginal bool
}

// ExifTool is a Codec backed by a long-running exiftool process.
// It must not be used from more than one goroutine.
type ExifTool struct {
	et *exiftool.Exiftool
}

// NewExifTool starts an exiftool process.
func NewExifTool(o ExifToolOptions) (*ExifTool, error) {
	opts := []func(*exiftool.Exiftool) error{
		exiftool.PrintGroupNames("0"),
	}
	if o.Binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(o.Binary))
	}
	if o.BackupOriginal {
		opts = append(opts, exiftool.BackupOriginal())
	}

	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

// Read returns the EXIF group tags of path, without the group prefix.
func (e *ExifTool) Read(path string) (map[string]string, error) {
	fis := e.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return nil, fmt.Errorf("extract %q: no output", path)
	}
	return exifTags(fis[0])
}

// exifTags picks the EXIF group out of exiftool's output for one file.
func exifTags(fi exiftool.FileMetadata) (map[string]string, error) {
	if fi.Err != nil {
		return nil, fmt.Errorf("extract %q: %w", fi.File, fi.Err)
	}

	for k := range fi.Fields {
		if k != "Error" && !strings.HasSuffix(k, ":Error") {
			continue
		}
		msg, _ := fi.GetString(k)
		return nil, fmt.Errorf("extract %q: %s", fi.File, msg)
	}

	tags := map[string]string{}
	for k := range fi.Fields {
		name, ok := strings.CutPrefix(k, exifGroup)
		if !ok {
			continue
		}
		v, err := fi.GetString(k)
		if err != nil {
			klog.V(1).Infof("unable to get %s for %s: %v", k, fi.File, err)
			continue
		}
		tags[name] = v
	}
	return tags, nil
}

func (e *ExifTool) Write(path string, tags map[string]string) error {
	fm := exiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	for k, v := range tags {
		fm.SetString(exifGroup+k, v)
	}

	fms := []exiftool.FileMetadata{fm}
	e.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return fmt.Errorf("write %q: %w", path, fms[0].Err)
	}
	return nil
}

func (e *ExifTool) Close() error {
	return e.et.Close()
}
