package rules

import (
	"context"
	"log"
	"os"
	"time"
)

// Watcher polls the rule file's modification time on a fixed cadence and
// triggers a reload when it changes. Load failures keep the current catalog
// snapshot and are retried on the next tick.
type Watcher struct {
	loader   *Loader
	interval time.Duration
	lastMod  time.Time
}

func NewWatcher(loader *Loader, interval time.Duration) *Watcher {
	w := &Watcher{loader: loader, interval: interval}
	if info, err := os.Stat(loader.Path()); err == nil {
		w.lastMod = info.ModTime()
	}
	return w
}

func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkOnce()
		}
	}
}

func (w *Watcher) checkOnce() {
	info, err := os.Stat(w.loader.Path())
	if err != nil {
		return
	}
	mod := info.ModTime()
	if !mod.After(w.lastMod) {
		return
	}
	n, err := w.loader.Load()
	if err != nil {
		log.Printf("rules: reload of %s failed, keeping current snapshot: %v", w.loader.Path(), err)
		return
	}
	w.lastMod = mod
	log.Printf("rules: reloaded %d rules from %s", n, w.loader.Path())
}
