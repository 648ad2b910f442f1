package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// DefaultDebounceInterval is the time to wait after the last change before
// reloading.
const DefaultDebounceInterval = 250 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// result to onChange. Editors and Persist replace the file by rename, so the
// parent directory is watched and events are filtered by name. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, path string, opts LoadOptions, onChange func(*Configuration, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	log := logging.For("config")
	log.Info().Str("path", path).Msg("watching config file")

	opts.ConfigPath = path
	name := filepath.Base(path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		cfg, err := LoadWithOptions(opts)
		if err != nil {
			log.Warn().Err(err).Msg("config reload failed, keeping previous configuration")
		} else {
			log.Info().Str("dbt_path", cfg.DBTPath).Msg("config reloaded")
		}
		onChange(cfg, err)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("event", event.Op.String()).Msg("config file changed")
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(DefaultDebounceInterval, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}
