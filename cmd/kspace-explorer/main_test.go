package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-kspace/internal/config"
	"github.com/cwbudde/algo-kspace/internal/imaging"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*3) % 256)})
		}
	}
	if err := imaging.WritePNG(path, img); err != nil {
		t.Fatalf("write test png: %v", err)
	}
}

func TestInspectWritesRenderings(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ramp.png")
	writeTestPNG(t, input, 32, 24)

	var out bytes.Buffer
	err := runInspect(input, inspectOptions{outDir: dir}, &out)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	for _, name := range []string{"ramp-kspace.png", "ramp-recon.png"} {
		path := filepath.Join(dir, name)
		img, err := imaging.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
			t.Errorf("%s dims = %dx%d, want 32x24", name, b.Dx(), b.Dy())
		}
	}

	report := out.String()
	for _, want := range []string{"ramp.png", "32 x 24", "full spectrum", "rmse", "correlation"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestInspectAppliesMask(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ramp.png")
	writeTestPNG(t, input, 32, 24)

	var out bytes.Buffer
	err := runInspect(input, inspectOptions{cx: -1, cy: -1, radius: 6, outDir: dir}, &out)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	report := out.String()
	if !strings.Contains(report, "(16, 12) r6") {
		t.Errorf("report missing defaulted mask center:\n%s", report)
	}
	if !strings.Contains(report, "retained") {
		t.Errorf("report missing retained energy:\n%s", report)
	}
}

func TestInspectRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	err := runInspect(filepath.Join(dir, "nope.png"), inspectOptions{outDir: dir}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestInspectRejectsInvalidMask(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ramp.png")
	writeTestPNG(t, input, 32, 24)

	err := runInspect(input, inspectOptions{cx: 5, cy: 5, radius: -3, outDir: dir}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("negative radius should mean no mask, got %v", err)
	}
}

func TestConfigShowPrintsYAML(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "config", "show"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"logging:", "engine:", "addr:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path, "config", "init"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload written config: %v", err)
	}
	if *cfg != *config.Default() {
		t.Errorf("written config differs from defaults: %+v", cfg)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("KSPACE_EXPLORER_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "kspace-explorer "+version) {
		t.Errorf("version output = %q", out.String())
	}
}
