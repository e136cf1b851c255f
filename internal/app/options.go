package app

import (
	"board/internal/config"
	"board/internal/interaction"
	"board/internal/service"
	"board/internal/storage"
)

// backendOptions maps the storage section onto the driver options.
func backendOptions(cfg *config.Config) storage.BackendOptions {
	s := cfg.Storage
	return storage.BackendOptions{
		Driver: s.Driver,
		SQL: storage.Options{
			Path:     s.Path,
			Host:     s.Host,
			Port:     s.Port,
			Database: s.Database,
			Username: s.Username,
			Password: s.Password(),
			SSLMode:  s.SSLMode,
		},
		Mongo: storage.MongoOptions{
			URI:      s.URI,
			Host:     s.Host,
			Port:     s.Port,
			Database: s.Database,
			Username: s.Username,
			Password: s.Password(),
		},
	}
}

// engineOptions applies the canvas section on top of the engine defaults.
func engineOptions(cfg *config.Config) interaction.Options {
	o := interaction.DefaultOptions()
	c := cfg.Canvas
	if c.DragThreshold > 0 {
		o.DragThreshold = c.DragThreshold
	}
	if c.EraseRadius > 0 {
		o.EraseRadius = c.EraseRadius
	}
	if c.ViewSaveDelay > 0 {
		o.ViewSaveDelay = c.ViewSaveDelay.D()
	}
	if c.HistoryDepth > 0 {
		o.HistoryDepth = c.HistoryDepth
	}
	return o
}

func storesOf(b *storage.Backend) service.Stores {
	return service.Stores{Boards: b.Boards, Elements: b.Elements, Blocks: b.Blocks, Views: b.Views}
}

// watchPath is the file the board watcher follows, or "" when disabled.
func watchPath(cfg *config.Config, b *storage.Backend) string {
	if !cfg.Sync.Watch {
		return ""
	}
	return b.WatchPath
}
