package hmr

// Update is one module the client should re-import and re-apply.
type Update struct {
	Module    string `json:"module"`
	Timestamp int64  `json:"timestamp"`
}

// Result is the outcome of boundary detection for a single changed file's
// URL: either a set of updates to push, or FullReload when at least one
// walk up the graph found no HMR boundary.
type Result struct {
	Updates    []Update
	FullReload bool
}

// Boundary walks up the HMR graph from changedURL looking for the nearest
// self-accepting ancestor on every importer path. If any path reaches a
// module with no importers before finding one, the whole change falls back
// to a full reload: propagating an update through a module that never
// declared an HMR boundary would serve stale code.
func (g *Graph) Boundary(changedURL string, timestamp int64) Result {
	targets := make(map[string]bool)
	memo := make(map[string]bool)
	inProgress := make(map[string]bool)

	var walk func(url string) bool
	walk = func(url string) bool {
		if found, ok := memo[url]; ok {
			return found
		}
		if inProgress[url] {
			return true // cycle: the loop itself can't be the missing boundary
		}
		inProgress[url] = true

		var found bool
		if g.isSelfAccepting(url) {
			targets[url] = true
			found = true
		} else if importers := g.importersOf(url); len(importers) == 0 {
			found = false // reached a root with no HMR boundary
		} else {
			found = true
			for _, importer := range importers {
				if !walk(importer) {
					found = false
				}
			}
		}

		delete(inProgress, url)
		memo[url] = found
		return found
	}

	if !walk(changedURL) {
		return Result{FullReload: true}
	}
	if len(targets) == 0 {
		return Result{FullReload: true}
	}

	var updates []Update
	for url := range targets {
		updates = append(updates, Update{Module: url, Timestamp: timestamp})
	}
	return Result{Updates: updates}
}
