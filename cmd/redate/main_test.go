package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/tstromberg/redate/pkg/config"
	"github.com/tstromberg/redate/pkg/redate"
)

// memCodec serves EXIF tags from memory, keyed by file name.
type memCodec struct {
	tags   map[string]map[string]string
	closed *int
}

func (m *memCodec) Read(path string) (map[string]string, error) {
	t, ok := m.tags[filepath.Base(path)]
	if !ok {
		return nil, errors.New("unreadable")
	}
	return t, nil
}

func (m *memCodec) Write(path string, tags map[string]string) error {
	for k, v := range tags {
		m.tags[filepath.Base(path)][k] = v
	}
	return nil
}

func (m *memCodec) Close() error {
	*m.closed++
	return nil
}

type harness struct {
	tags    map[string]map[string]string
	opened  []redate.ExifToolOptions
	closed  int
	openErr error
}

func (h *harness) newCodec(o redate.ExifToolOptions) (codec, error) {
	if h.openErr != nil {
		return nil, h.openErr
	}
	h.opened = append(h.opened, o)
	return &memCodec{tags: h.tags, closed: &h.closed}, nil
}

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func execute(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(h.newCodec)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RequiresFolder(t *testing.T) {
	if _, err := execute(t, &harness{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestRoot_MissingFolder(t *testing.T) {
	h := &harness{}
	_, err := execute(t, h, filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(h.opened) != 0 {
		t.Fatalf("exiftool should not start for a bad root")
	}
}

func TestRoot_ShiftsTree(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "a.jpg")
	writeFile(t, tmp, "2019/b.PNG")
	writeFile(t, tmp, "2019/c.txt")
	writeFile(t, tmp, "2019/d.bmp")

	h := &harness{tags: map[string]map[string]string{
		"a.jpg": {redate.TagDateTimeOriginal: "2024:01:31 10:00:00"},
		"b.PNG": {redate.TagDateTimeOriginal: "2023:12:15 08:30:00", "Make": "Epson"},
		"d.bmp": {},
	}}

	out, err := execute(t, h, tmp, "--months", "1", "--days=-1")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 4 file lines and a summary, got %q", out)
	}
	summary := lines[len(lines)-1]
	if summary != "4 files, 2 updated, 1 unsupported, 1 no_metadata, 0 no_timestamp, 0 failed" {
		t.Fatalf("unexpected summary: %q", summary)
	}

	files := lines[:len(lines)-1]
	sort.Strings(files)
	for i, prefix := range []string{"no EXIF metadata found: ", "skipping unsupported file: ", "updated date taken: ", "updated date taken: "} {
		if !strings.HasPrefix(files[i], prefix) {
			t.Errorf("line %d: %q does not start with %q", i, files[i], prefix)
		}
	}

	// Jan 31 - 1 day = Jan 30; Feb 30 does not exist, so the 1st.
	if got := h.tags["a.jpg"][redate.TagDateTimeDigitized]; got != "2024:02:01 10:00:00" {
		t.Errorf("a.jpg digitized = %q", got)
	}
	if got := h.tags["b.PNG"][redate.TagDateTimeOriginal]; got != "2024:01:14 08:30:00" {
		t.Errorf("b.PNG original = %q", got)
	}
	if h.closed != 1 {
		t.Errorf("expected 1 codec closed, got %d", h.closed)
	}
}

func TestRoot_FailureSetsError(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "1.jpg")
	writeFile(t, tmp, "2.jpg")
	writeFile(t, tmp, "3.jpg")

	h := &harness{tags: map[string]map[string]string{
		"1.jpg": {redate.TagDateTimeOriginal: "2020:01:01 00:00:00"},
		"3.jpg": {redate.TagDateTimeOriginal: "2020:01:01 00:00:00"},
	}}

	out, err := execute(t, h, tmp, "--hours", "2")
	if err == nil {
		t.Fatalf("expected error for failed file, got nil\n%s", out)
	}
	if !strings.Contains(out, "failed to update date taken: "+filepath.Join(tmp, "2.jpg")) {
		t.Fatalf("missing failure line in %q", out)
	}
	for _, name := range []string{"1.jpg", "3.jpg"} {
		if got := h.tags[name][redate.TagDateTimeOriginal]; got != "2020:01:01 02:00:00" {
			t.Errorf("%s = %q", name, got)
		}
	}
}

func TestRoot_DryRunAndWorkers(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "a.jpg")
	writeFile(t, tmp, "b.jpg")

	h := &harness{tags: map[string]map[string]string{
		"a.jpg": {redate.TagDateTimeOriginal: "2020:01:01 00:00:00"},
		"b.jpg": {redate.TagDateTimeOriginal: "2020:01:01 00:00:00"},
	}}

	cfgPath := filepath.Join(t.TempDir(), "redate.toml")
	if err := os.WriteFile(cfgPath, []byte("workers = 3\nbackup_original = true\nexiftool_path = \"/usr/bin/exiftool\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, h, tmp, "--config", cfgPath, "--workers", "1", "-n", "--years=-1")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if strings.Count(out, "would update date taken: ") != 2 {
		t.Fatalf("expected two dry-run lines, got %q", out)
	}
	if !strings.Contains(out, "(2020:01:01 00:00:00 -> 2019:01:01 00:00:00)") {
		t.Fatalf("missing shifted date in %q", out)
	}
	if got := h.tags["a.jpg"][redate.TagDateTimeOriginal]; got != "2020:01:01 00:00:00" {
		t.Fatalf("dry run modified a.jpg: %q", got)
	}

	if len(h.opened) != 1 {
		t.Fatalf("--workers should override config, opened %d codecs", len(h.opened))
	}
	want := redate.ExifToolOptions{Binary: "/usr/bin/exiftool", BackupOriginal: true}
	if h.opened[0] != want {
		t.Fatalf("unexpected exiftool options: %+v", h.opened[0])
	}
}

func TestRoot_ExiftoolStartFailure(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "a.jpg")

	h := &harness{openErr: errors.New("exiftool: not found")}
	if _, err := execute(t, h, tmp); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestRoot_InvalidWorkers(t *testing.T) {
	h := &harness{}
	if _, err := execute(t, h, t.TempDir(), "--workers", "0"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestRoot_PrintConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "redate.toml")
	if err := os.WriteFile(cfgPath, []byte("exiftool_path = \"/opt/bin/exiftool\"\nworkers = 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h := &harness{}
	out, err := execute(t, h, "--print-config", "--config", cfgPath, "--workers", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}

	cfg, err := config.Read(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid config: %v\n%s", err, out)
	}
	if cfg.Workers != 3 || cfg.ExiftoolPath != "/opt/bin/exiftool" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(h.opened) != 0 {
		t.Fatalf("exiftool started for --print-config")
	}
}

func TestRoot_PrintConfigRejectsFolder(t *testing.T) {
	h := &harness{}
	if _, err := execute(t, h, "--print-config", t.TempDir()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
