// Package hmr maintains the dev server's hot-module-replacement graph: the
// importer/imported relations recorded as modules are served, boundary
// detection when a file changes, and the WebSocket protocol that pushes
// update/reload notifications to connected browser clients.
package hmr

import "sync"

// Graph records importer -> imported and imported -> importer edges between
// URLs as the dev server serves them, plus which modules have declared
// themselves HMR boundaries via hot.accept().
type Graph struct {
	mu            sync.Mutex
	importers     map[string]map[string]bool // url -> set of urls that import it
	imports       map[string]map[string]bool // url -> set of urls it imports
	selfAccepting map[string]bool
}

func NewGraph() *Graph {
	return &Graph{
		importers:     make(map[string]map[string]bool),
		imports:       make(map[string]map[string]bool),
		selfAccepting: make(map[string]bool),
	}
}

// RecordImport registers that importer imports imported.
func (g *Graph) RecordImport(importer, imported string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.imports[importer] == nil {
		g.imports[importer] = make(map[string]bool)
	}
	g.imports[importer][imported] = true

	if g.importers[imported] == nil {
		g.importers[imported] = make(map[string]bool)
	}
	g.importers[imported][importer] = true
}

// SetModuleImports replaces the full outgoing edge set for url, dropping
// any stale importer-side edges left over from its previous content.
func (g *Graph) SetModuleImports(url string, imported []string) {
	g.mu.Lock()
	old := g.imports[url]
	for dep := range old {
		if set := g.importers[dep]; set != nil {
			delete(set, url)
		}
	}
	g.imports[url] = make(map[string]bool)
	g.mu.Unlock()

	for _, dep := range imported {
		g.RecordImport(url, dep)
	}
}

// MarkSelfAccepting records that url called hot.accept(), making it its own
// HMR boundary. The client runtime sends the same hotAccept message for the
// hot.accept(deps, cb) form, so that form marks url here too.
func (g *Graph) MarkSelfAccepting(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selfAccepting[url] = true
}

func (g *Graph) isSelfAccepting(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selfAccepting[url]
}

func (g *Graph) importersOf(url string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for u := range g.importers[url] {
		out = append(out, u)
	}
	return out
}

// Forget drops url's outgoing import edges and its self-accepting mark,
// used when a module is invalidated and will be re-scanned on next request.
// Edges from modules that import url are kept, so boundary detection for
// url still finds its importers.
func (g *Graph) Forget(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for dep := range g.imports[url] {
		if set := g.importers[dep]; set != nil {
			delete(set, url)
		}
	}
	delete(g.imports, url)
	delete(g.selfAccepting, url)
}
