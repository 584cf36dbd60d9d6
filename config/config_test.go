package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

func TestDefaultsMatchDefaultSettings(t *testing.T) {
	s, err := Default().ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}
	if s != snake.DefaultSettings() {
		t.Errorf("settings = %+v, want %+v", s, snake.DefaultSettings())
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`{"port":"9000","surfacesize":300,"blocksize":15,"initial_direction":"up"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "9000" || cfg.FoodReward != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
	s, err := cfg.ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}
	if s.GridDimension != 20 || s.CellSize != 15 || s.InitialDirection != structs.Up {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestToSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AppConfig)
	}{
		{"zero blocksize", func(c *AppConfig) { c.Blocksize = 0 }},
		{"bad direction", func(c *AppConfig) { c.InitialDirection = "sideways" }},
		{"surface too small for origin", func(c *AppConfig) { c.SurfaceSize = 100 }},
		{"floor above initial", func(c *AppConfig) { c.MinIntervalMs = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if _, err := c.ToSettings(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "38870" {
		t.Errorf("port = %q", cfg.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
	if GetConfigValue("blocksize").(int) != 20 {
		t.Errorf("blocksize = %v", GetConfigValue("blocksize"))
	}
	if GetConfigValue("nope") != "" {
		t.Error("unknown key should return empty string")
	}
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"port":"1234"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Reload(path); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if Get().Port != "1234" {
		t.Fatalf("port = %q, want 1234", Get().Port)
	}

	if err := os.WriteFile(path, []byte(`{"port":`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Reload(path); err == nil {
		t.Fatal("expected parse error")
	}
	if Get().Port != "1234" {
		t.Errorf("port = %q after failed reload, want 1234", Get().Port)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"port":"1000"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Reload(path); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan *AppConfig, 4)
	go Watch(ctx, path, func(c *AppConfig) { changed <- c })

	deadline := time.After(5 * time.Second)
	retry := time.NewTicker(100 * time.Millisecond)
	defer retry.Stop()
	for {
		select {
		case c := <-changed:
			if c.Port == "2000" {
				return
			}
		case <-retry.C:
			// 监听器可能尚未就绪，重复写入
			os.WriteFile(path, []byte(`{"port":"2000"}`), 0644)
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
