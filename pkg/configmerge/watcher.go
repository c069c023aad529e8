package configmerge

import (
	"sync"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/crackerjack-go/crackerjack/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

var watchLog = logger.New("configmerge:watcher")

// ConfigWatcher detects external edits to the project manifest or hook
// config between runs and invalidates an in-process cache so the next
// config.LoadManifest/LoadHookConfig call re-reads from disk. It does not
// implement live mid-run reconfiguration (spec §6: "read once at init; no
// live reconfiguration") — it only flags that a re-read is due.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	stale bool
}

// WatchConfigFiles starts watching paths (typically the project manifest
// and hook config files) for external writes/renames/removes.
func WatchConfigFiles(paths ...string) (*ConfigWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassFilesystem, "create config watcher: %w", err)
	}

	cw := &ConfigWatcher{watcher: fw}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, crkerr.Wrapf(crkerr.ClassFilesystem, "watch %s: %w", p, err)
		}
	}

	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Remove|fsnotify.Create) != 0 {
				cw.mu.Lock()
				cw.stale = true
				cw.mu.Unlock()
				watchLog.Printf("external edit detected: %s (%s)", ev.Name, ev.Op)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			watchLog.Printf("watch error: %v", err)
		}
	}
}

// Stale reports whether a watched file has changed since the last Reset.
func (cw *ConfigWatcher) Stale() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.stale
}

// Reset clears the stale flag, typically called right after reloading config.
func (cw *ConfigWatcher) Reset() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.stale = false
}

// Close stops the underlying filesystem watch.
func (cw *ConfigWatcher) Close() error {
	return cw.watcher.Close()
}
