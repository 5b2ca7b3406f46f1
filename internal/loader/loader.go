// Package loader drives the bulk load of thing descriptions. Each immediate
// subdirectory of the things path is treated as one binding; the loader fans
// a small worker pool out over the binding's files, feeds every parsed record
// into that binding's merge cache, and finalizes the batch once all files are
// done.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/fsutil"
	"github.com/yonghaozhang/smarthome/internal/hcl"
	"github.com/yonghaozhang/smarthome/internal/merge"
)

// Loader discovers binding directories and runs one load-merge-publish cycle
// per binding.
type Loader struct {
	parser  *hcl.Loader
	things  merge.ThingTypeRegistry
	configs merge.ConfigDescriptionRegistry
	workers int
}

// New creates a loader publishing into the given registries. Worker counts
// below one fall back to a single worker.
func New(parser *hcl.Loader, things merge.ThingTypeRegistry, configs merge.ConfigDescriptionRegistry, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{
		parser:  parser,
		things:  things,
		configs: configs,
		workers: workers,
	}
}

// LoadAll loads every binding found under thingsPath. A failure in one
// binding does not stop the others; the per-binding errors are joined into
// the returned error. The returned map holds one cache per loaded binding,
// keyed by binding ID, so callers can discard a binding later.
func (l *Loader) LoadAll(ctx context.Context, thingsPath string) (map[string]*merge.Cache, error) {
	logger := ctxlog.FromContext(ctx)

	bindings, err := fsutil.ListSubdirectories(thingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list binding directories in %s: %w", thingsPath, err)
	}
	if len(bindings) == 0 {
		logger.Warn("No binding directories found in things path.", "path", thingsPath)
		return map[string]*merge.Cache{}, nil
	}

	caches := make(map[string]*merge.Cache, len(bindings))
	var errs []error
	for _, bindingID := range bindings {
		cache, err := l.LoadBinding(ctx, bindingID, filepath.Join(thingsPath, bindingID))
		if err != nil {
			logger.Error("Binding load finished with errors.", "binding", bindingID, "error", err)
			errs = append(errs, fmt.Errorf("binding %q: %w", bindingID, err))
		}
		caches[bindingID] = cache
	}

	return caches, errors.Join(errs...)
}

// LoadBinding runs one batch for a single binding: concurrent ingest of all
// discovered files, then exactly one Finalize. The cache is returned even
// when the load had errors, since the batch may still have published the
// unaffected thing types.
func (l *Loader) LoadBinding(ctx context.Context, bindingID, dir string) (*merge.Cache, error) {
	logger := ctxlog.FromContext(ctx)

	cache := merge.NewCache(bindingID, l.things, l.configs)

	files, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return cache, fmt.Errorf("failed to walk binding directory %s: %w", dir, err)
	}
	if len(files) == 0 {
		logger.Warn("No thing description files found for binding.", "binding", bindingID, "dir", dir)
		return cache, nil
	}
	logger.Debug("Loading thing descriptions for binding.",
		"binding", bindingID, "files", len(files), "workers", l.workers)

	jobs := make(chan string)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}

	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				records, err := l.parser.LoadFile(ctx, bindingID, path)
				if err != nil {
					fail(err)
					continue
				}
				for _, rec := range records {
					if err := cache.Ingest(ctx, rec); err != nil {
						fail(fmt.Errorf("ingest from %s: %w", path, err))
					}
				}
			}
		}()
	}

	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	// The batch is finalized even when some files failed: the records that
	// did make it in still resolve and publish.
	if err := cache.Finalize(ctx); err != nil {
		errs = append(errs, err)
	}

	logger.Info("Binding loaded.", "binding", bindingID, "files", len(files), "errors", len(errs))
	return cache, errors.Join(errs...)
}
