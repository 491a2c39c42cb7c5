package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/config"
)

// LoadFunc prepares a Builder for the next build. It is called once per
// build so site file edits are picked up.
type LoadFunc func() (*Builder, error)

// FileLoader loads the site file on every call and reads pages from disk.
// A non-empty docsRoot overrides docs_root from the file.
func FileLoader(siteFile, docsRoot string, workers int, log *slog.Logger) LoadFunc {
	return func() (*Builder, error) {
		site, err := config.LoadSite(siteFile)
		if err != nil {
			return nil, err
		}
		if docsRoot != "" {
			site.DocsRoot = docsRoot
		}
		return NewBuilder(os.DirFS(site.DocsRoot), site, workers, log), nil
	}
}

// Orchestrator owns the build loop of a serving process.
type Orchestrator struct {
	load    LoadFunc
	results *ResultStore
	trigger chan struct{}
	log     *slog.Logger

	buildMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to run triggered builds.
func NewOrchestrator(load LoadFunc, ttl time.Duration, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		load:    load,
		results: NewResultStore(ttl),
		trigger: make(chan struct{}, 1),
		log:     log,
	}
}

// Start launches the build worker and the result cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-o.trigger:
				if _, _, err := o.Rebuild(workerCtx); err != nil && workerCtx.Err() == nil {
					o.log.Error("rebuild failed, keeping previous build", "error", err)
				}
			}
		}
	}()

	// Start result store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.results.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Trigger requests a background rebuild. Requests made while one is
// already pending are coalesced.
func (o *Orchestrator) Trigger() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Rebuild runs a build now. When the output would be identical to the
// latest build, that build is returned with StatusUnchanged.
func (o *Orchestrator) Rebuild(ctx context.Context) (*Result, BuildStatus, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	b, err := o.load()
	if err != nil {
		return nil, StatusFailed, err
	}
	res, err := b.Build(ctx)
	if err != nil {
		return nil, StatusFailed, err
	}

	if prev := o.results.Latest(); prev != nil && prev.ContentHash == res.ContentHash {
		o.log.Debug("build unchanged", "build_id", prev.ID)
		return prev, StatusUnchanged, nil
	}

	o.results.Put(res)
	for _, w := range res.Warnings {
		o.log.Warn("build warning", "build_id", res.ID, "warning", w)
	}
	return res, StatusBuilt, nil
}

// Latest returns the most recent successful build.
func (o *Orchestrator) Latest() *Result {
	return o.results.Latest()
}

// GetBuild returns a stored build by ID.
func (o *Orchestrator) GetBuild(id string) *Result {
	return o.results.Get(id)
}
