package app

import (
	"testing"
	"time"

	"board/internal/config"
	"board/internal/interaction"
	"board/internal/storage"
)

func TestBackendOptions(t *testing.T) {
	t.Setenv("BOARD_TEST_PW", "s3cret")
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{
		Driver:      config.DriverPostgres,
		Host:        "db.internal",
		Port:        5433,
		Database:    "boards",
		Username:    "app",
		PasswordEnv: "BOARD_TEST_PW",
		SSLMode:     "require",
	}
	o := backendOptions(cfg)
	if o.Driver != "postgres" || o.SQL.Host != "db.internal" || o.SQL.Port != 5433 || o.SQL.Password != "s3cret" {
		t.Errorf("sql options = %+v", o.SQL)
	}
	if o.Mongo.Database != "boards" || o.Mongo.Password != "s3cret" {
		t.Errorf("mongo options = %+v", o.Mongo)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Canvas.DragThreshold = 4
	cfg.Canvas.HistoryDepth = 3
	cfg.Canvas.ViewSaveDelay = config.Duration(time.Second)
	cfg.Canvas.EraseRadius = 0

	o := engineOptions(cfg)
	def := interaction.DefaultOptions()
	if o.DragThreshold != 4 || o.HistoryDepth != 3 || o.ViewSaveDelay != time.Second {
		t.Errorf("options = %+v", o)
	}
	if o.EraseRadius != def.EraseRadius {
		t.Errorf("unset erase radius = %v, want default %v", o.EraseRadius, def.EraseRadius)
	}
}

func TestWatchPath(t *testing.T) {
	cfg := config.Default()
	b := &storage.Backend{WatchPath: "/tmp/board.db"}
	cfg.Sync.Watch = true
	if got := watchPath(cfg, b); got != "/tmp/board.db" {
		t.Errorf("watchPath = %q", got)
	}
	cfg.Sync.Watch = false
	if got := watchPath(cfg, b); got != "" {
		t.Errorf("disabled watchPath = %q", got)
	}
}
