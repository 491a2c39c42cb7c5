// Package watch triggers rebuilds when documentation sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a docs tree and a site file, calling onChange once per
// burst of relevant events.
type Watcher struct {
	docsRoot string
	siteFile string
	debounce time.Duration
	onChange func()
	log      *slog.Logger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	stop    chan struct{}
	once    sync.Once
}

// New creates a watcher for docsRoot and siteFile.
func New(docsRoot, siteFile string, debounce time.Duration, onChange func(), log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(docsRoot)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve docs root: %w", err)
	}
	absSite, err := filepath.Abs(siteFile)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve site file: %w", err)
	}

	return &Watcher{
		docsRoot: absRoot,
		siteFile: absSite,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		watcher:  fw,
		stop:     make(chan struct{}),
	}, nil
}

// Start adds the watches and begins delivering change notifications.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.docsRoot); err != nil {
		return err
	}
	// Watch the directory of the site file; editors replace files on save.
	if err := w.watcher.Add(filepath.Dir(w.siteFile)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.siteFile), err)
	}

	w.log.Info("watching for changes", "docs_root", w.docsRoot, "site_file", w.siteFile)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		if err := w.watcher.Close(); err != nil {
			w.log.Error("close file watcher", "error", err)
		}
	})
	w.wg.Wait()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("file watcher error", "error", err)
		}
	}
}

// relevant reports whether event can change the build output. New
// directories are added to the watch list as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Clean(event.Name) == w.siteFile {
		return true
	}
	if !w.inDocs(event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("watch new directory", "dir", event.Name, "error", err)
			}
			return true
		}
	}
	return parser.IsSupportedExtension(event.Name)
}

// inDocs reports whether name is the docs root or lies below it.
func (w *Watcher) inDocs(name string) bool {
	rel, err := filepath.Rel(w.docsRoot, filepath.Clean(name))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
