package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds every registered language Provider, indexed by canonical
// name, alias, and file extension. Language plug-ins self-register into
// the package-level Default registry from their own init().
type Registry struct {
	mu         sync.RWMutex
	providers  map[string]Provider
	aliases    map[string]string
	extensions map[string]string // extension (with leading dot) -> canonical name
}

// NewRegistry returns an empty registry. Use Default for the process-wide
// instance populated by plug-in init() functions.
func NewRegistry() *Registry {
	return &Registry{
		providers:  make(map[string]Provider),
		aliases:    make(map[string]string),
		extensions: make(map[string]string),
	}
}

// Default is the process-wide registry. Plug-in packages register into it
// from their init() functions; importing a plug-in package for its side
// effects is how a binary opts into language support.
var Default = NewRegistry()

// Register adds a provider under its canonical name, the given aliases,
// and every extension it claims. Returns an error on name collision or
// extension collision with a different provider.
func (r *Registry) Register(p Provider, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(p.Name())
	if existing, ok := r.providers[name]; ok && existing != p {
		return fmt.Errorf("lang: provider %q already registered", name)
	}
	r.providers[name] = p

	for _, a := range aliases {
		a = strings.ToLower(a)
		if existing, ok := r.aliases[a]; ok && existing != name {
			return fmt.Errorf("lang: alias %q already maps to %q", a, existing)
		}
		r.aliases[a] = name
	}

	for _, ext := range p.Extensions() {
		ext = normalizeExt(ext)
		if existing, ok := r.extensions[ext]; ok && existing != name {
			return fmt.Errorf("lang: extension %q already claimed by %q", ext, existing)
		}
		r.extensions[ext] = name
	}
	return nil
}

// MustRegister panics on error; used from plug-in init() functions where a
// registration failure is a programming error, not a runtime condition.
func (r *Registry) MustRegister(p Provider, aliases ...string) {
	if err := r.Register(p, aliases...); err != nil {
		panic(err)
	}
}

// Get looks up a provider by canonical name or alias.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.ToLower(name)
	if p, ok := r.providers[name]; ok {
		return p, true
	}
	if canon, ok := r.aliases[name]; ok {
		p, ok := r.providers[canon]
		return p, ok
	}
	return nil, false
}

// GetForFile looks up a provider by the file's extension.
func (r *Registry) GetForFile(path string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext := normalizeExt(filepath.Ext(path))
	canon, ok := r.extensions[ext]
	if !ok {
		return nil, false
	}
	p, ok := r.providers[canon]
	return p, ok
}

// GetByExtension looks up a provider directly by extension string.
func (r *Registry) GetByExtension(ext string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canon, ok := r.extensions[normalizeExt(ext)]
	if !ok {
		return nil, false
	}
	p, ok := r.providers[canon]
	return p, ok
}

// List returns every registered canonical provider name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
