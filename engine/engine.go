// Package engine is moss's external interface (spec.md §6): a single
// surface a CLI or LSP frontend imports, wrapping the index, resolver,
// skeleton builder, symbol-glob matcher, structural editor, and tracer
// behind one Open/Close lifecycle.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rhizome-lab/moss/config"
	"github.com/rhizome-lab/moss/edit"
	"github.com/rhizome-lab/moss/index"
	"github.com/rhizome-lab/moss/lang"
	_ "github.com/rhizome-lab/moss/lang/golang"
	_ "github.com/rhizome-lab/moss/lang/python"
	_ "github.com/rhizome-lab/moss/lang/rust"
	_ "github.com/rhizome-lab/moss/lang/typescript"
	"github.com/rhizome-lab/moss/model"
	"github.com/rhizome-lab/moss/resolve"
	"github.com/rhizome-lab/moss/rules"
	"github.com/rhizome-lab/moss/skeleton"
	"github.com/rhizome-lab/moss/symbolglob"
	"github.com/rhizome-lab/moss/trace"
)

// Engine is an opened repository: its on-disk index plus the registry of
// language plug-ins available to it.
type Engine struct {
	root     string
	index    *index.Index
	registry *lang.Registry
	config   *config.Config
	log      *slog.Logger
}

// Open opens (creating if necessary) root's index, running a full refresh
// if the index is empty or stale, then returns an Engine ready to serve
// Skeleton/Resolve/Query/Edit/Trace calls. The four bundled language
// plug-ins (go, python, rust, typescript) are registered via blank import;
// callers embedding moss as a library may register additional ones into
// lang.Default before calling Open.
func Open(root string) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, model.NewError(model.ErrIo, root, "resolving absolute root", err)
	}

	logger := slog.Default()
	cfg := config.Load()

	idx, err := index.Open(absRoot, lang.Default, logger)
	if err != nil {
		return nil, err
	}

	needsRefresh, err := idx.NeedsRefresh()
	if err != nil {
		idx.Close()
		return nil, err
	}
	if needsRefresh {
		if err := idx.Refresh(context.Background()); err != nil {
			logger.Warn("initial refresh failed", "root", absRoot, "error", err)
		}
	}

	return &Engine{root: absRoot, index: idx, registry: lang.Default, config: cfg, log: logger}, nil
}

// Close checkpoints and closes the underlying index.
func (e *Engine) Close() error {
	return e.index.Close()
}

// Refresh re-runs a full index refresh.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.index.Refresh(ctx)
}

// IncrementalRefresh re-runs an mtime-diff refresh.
func (e *Engine) IncrementalRefresh(ctx context.Context) error {
	return e.index.IncrementalRefresh(ctx)
}

// Resolve maps a user target string against the repository root.
func (e *Engine) Resolve(target string) ([]model.UnifiedTarget, error) {
	return resolve.Resolve(e.root, target, e.index)
}

// Skeleton builds the ViewNode tree for path relative to the repository
// root.
func (e *Engine) Skeleton(path string) (*model.ViewNode, error) {
	provider, ok := e.registry.GetForFile(path)
	if !ok {
		return nil, model.NewError(model.ErrUnsupported, path, "no language support for extension", nil)
	}
	source, err := os.ReadFile(filepath.Join(e.root, path))
	if err != nil {
		return nil, model.NewError(model.ErrIo, path, "reading file", err)
	}
	return skeleton.Build(provider, path, source)
}

// Query runs a symbol-glob query against path's skeleton.
func (e *Engine) Query(path, pattern string, caseInsensitive bool) ([]*model.ViewNode, error) {
	root, err := e.Skeleton(path)
	if err != nil {
		return nil, err
	}
	return symbolglob.Match(root, pattern, caseInsensitive), nil
}

// Trace returns the value-provenance trace for the named symbol in path.
func (e *Engine) Trace(path, symbolName string, maxDepth int) ([]model.TraceEntry, error) {
	provider, ok := e.registry.GetForFile(path)
	if !ok {
		return nil, model.NewError(model.ErrUnsupported, path, "no language support for extension", nil)
	}
	source, err := os.ReadFile(filepath.Join(e.root, path))
	if err != nil {
		return nil, model.NewError(model.ErrIo, path, "reading file", err)
	}
	if maxDepth <= 0 {
		maxDepth = e.config.TraceMaxDepth
	}
	entries, found, err := trace.Trace(provider, source, symbolName, maxDepth)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.NewError(model.ErrNotFound, symbolName, "symbol not found in "+path, nil)
	}
	return entries, nil
}

// Editor returns a structural Editor bound to path's language plug-in.
func (e *Engine) Editor(path string) (*edit.Editor, error) {
	provider, ok := e.registry.GetForFile(path)
	if !ok {
		return nil, model.NewError(model.ErrUnsupported, path, "no language support for extension", nil)
	}
	return edit.New(provider), nil
}

// Rules loads the repository's .moss/rules, layered after any configured
// builtin and user-global directories.
func (e *Engine) Rules() ([]rules.Rule, error) {
	var sources []rules.Source
	if e.config.RulesBuiltinDir != "" {
		sources = append(sources, rules.Source{Dir: e.config.RulesBuiltinDir})
	}
	if e.config.RulesUserGlobalDir != "" {
		sources = append(sources, rules.Source{Dir: e.config.RulesUserGlobalDir})
	}
	sources = append(sources, rules.Source{Dir: filepath.Join(e.root, ".moss", "rules")})
	return rules.Load(sources...)
}
