package redate

import (
	"fmt"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/tstromberg/redate/pkg/shift"
)

// EXIF tag names, as exiftool spells them.
const (
	TagDateTimeOriginal  = "DateTimeOriginal"
	TagDateTimeDigitized = "CreateDate" // EXIF 0x9004, DateTimeDigitized
)

// Extensions are the file extensions considered for rewriting.
var Extensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".bmp", ".arw", ".cr2", ".raw"}

// Codec reads and writes the EXIF block of an image file.
type Codec interface {
	// Read returns the EXIF tags of path. A file with no EXIF block returns an empty map.
	Read(path string) (map[string]string, error)
	// Write sets the given tags in place, leaving all other tags untouched.
	Write(path string, tags map[string]string) error
}

// Rewriter shifts the capture time of one file at a time.
type Rewriter struct {
	Codec  Codec
	Offset shift.Offset
	DryRun bool
}

// Supported reports whether path has an extension in Extensions, ignoring case.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Rewrite processes path. It never returns an error: failures are reported in the Result.
func (rw *Rewriter) Rewrite(path string) Result {
	r := Result{Path: path, DryRun: rw.DryRun}

	if !Supported(path) {
		r.Status = StatusUnsupported
		return r
	}

	tags, err := rw.Codec.Read(path)
	if err != nil {
		return failed(r, fmt.Errorf("read metadata: %w", err))
	}
	if len(tags) == 0 {
		r.Status = StatusNoMetadata
		return r
	}

	for k, v := range tags {
		klog.V(2).Infof("%s: %q=%v", path, k, v)
	}

	orig, ok := tags[TagDateTimeOriginal]
	if !ok || strings.TrimSpace(orig) == "" {
		r.Status = StatusNoTimestamp
		return r
	}
	r.Before = orig

	taken, err := shift.Parse(orig)
	if err != nil {
		return failed(r, err)
	}

	shifted, err := shift.Checked(taken, rw.Offset)
	if err != nil {
		return failed(r, fmt.Errorf("shift: %w", err))
	}
	r.After, err = shift.Format(shifted)
	if err != nil {
		return failed(r, fmt.Errorf("format: %w", err))
	}

	if !rw.DryRun {
		err := rw.Codec.Write(path, map[string]string{
			TagDateTimeOriginal:  r.After,
			TagDateTimeDigitized: r.After,
		})
		if err != nil {
			return failed(r, fmt.Errorf("write metadata: %w", err))
		}
	}

	r.Status = StatusUpdated
	return r
}

func failed(r Result, err error) Result {
	r.Status = StatusFailed
	r.Err = err
	return r
}
