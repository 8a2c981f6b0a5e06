package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	want := defaults()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestSaveToThenLoadFromRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	cfg := Config{
		Prebuffering:      128,
		AutoNext:          false,
		UseMimeMagic:      true,
		PreferredDecoders: []string{"mp3(mad,*)", "audio/ogg(vorbis,*)"},
	}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Prebuffering != cfg.Prebuffering || got.AutoNext != cfg.AutoNext || got.UseMimeMagic != cfg.UseMimeMagic {
		t.Errorf("got = %+v, want %+v", got, cfg)
	}
	if len(got.PreferredDecoders) != len(cfg.PreferredDecoders) {
		t.Fatalf("PreferredDecoders = %v, want %v", got.PreferredDecoders, cfg.PreferredDecoders)
	}
	for i := range cfg.PreferredDecoders {
		if got.PreferredDecoders[i] != cfg.PreferredDecoders[i] {
			t.Errorf("PreferredDecoders[%d] = %q, want %q", i, got.PreferredDecoders[i], cfg.PreferredDecoders[i])
		}
	}
}

func TestLoadFromPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("auto_next: false\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.AutoNext {
		t.Errorf("AutoNext = true, want false (explicitly set in the file)")
	}
	if got.Prebuffering != defaults().Prebuffering {
		t.Errorf("Prebuffering = %d, want default %d (absent from the file)", got.Prebuffering, defaults().Prebuffering)
	}
}
