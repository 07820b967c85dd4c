package bundler

import "sort"

// Enforce places a plugin's hooks in the Pre, default, or Post phase of the
// pipeline (spec's plugin pipeline: plugins are sorted by enforce, and
// within a phase run in registration order, first non-nil result wins).
type Enforce string

const (
	EnforcePre     Enforce = "pre"
	EnforceDefault Enforce = ""
	EnforcePost    Enforce = "post"
)

// ResolveIdResult is what a plugin's ResolveID hook returns when it claims
// a specifier.
type ResolveIdResult struct {
	ID       string
	External bool
}

// LoadResult is what a plugin's Load hook returns when it supplies a
// module's source text itself (bypassing the filesystem).
type LoadResult struct {
	Code string
}

// TransformResult is what a plugin's Transform hook returns when it rewrites
// a module's already-loaded source text.
type TransformResult struct {
	Code string
}

// Plugin is the pipeline extension point. Every method is optional; a nil
// return means "not handled, try the next plugin".
type Plugin struct {
	Name    string
	Enforce Enforce

	ResolveID          func(specifier, importer string) *ResolveIdResult
	Load               func(id string) *LoadResult
	Transform          func(code, id string) *TransformResult
	TransformIndexHTML func(html string) *string
}

// Pipeline orders registered plugins by Enforce phase (Pre, default, Post),
// preserving registration order within a phase.
type Pipeline struct {
	plugins []Plugin
}

func NewPipeline(plugins ...Plugin) *Pipeline {
	ordered := make([]Plugin, len(plugins))
	copy(ordered, plugins)
	sort.SliceStable(ordered, func(i, j int) bool {
		return phaseRank(ordered[i].Enforce) < phaseRank(ordered[j].Enforce)
	})
	return &Pipeline{plugins: ordered}
}

func phaseRank(e Enforce) int {
	switch e {
	case EnforcePre:
		return 0
	case EnforcePost:
		return 2
	default:
		return 1
	}
}

// ResolveID runs each plugin's ResolveID hook in phase/registration order
// and returns the first non-nil result, or nil if no plugin claims the
// specifier (the caller then falls back to its own resolver).
func (p *Pipeline) ResolveID(specifier, importer string) *ResolveIdResult {
	for _, plugin := range p.plugins {
		if plugin.ResolveID == nil {
			continue
		}
		if r := plugin.ResolveID(specifier, importer); r != nil {
			return r
		}
	}
	return nil
}

func (p *Pipeline) Load(id string) *LoadResult {
	for _, plugin := range p.plugins {
		if plugin.Load == nil {
			continue
		}
		if r := plugin.Load(id); r != nil {
			return r
		}
	}
	return nil
}

// Transform runs each plugin's Transform hook in phase/registration order
// and returns the first non-nil result's code, unchanged if none claim it
// (first-match semantics, same as ResolveID/Load).
func (p *Pipeline) Transform(code, id string) string {
	for _, plugin := range p.plugins {
		if plugin.Transform == nil {
			continue
		}
		if r := plugin.Transform(code, id); r != nil {
			return r.Code
		}
	}
	return code
}

func (p *Pipeline) TransformIndexHTML(html string) string {
	for _, plugin := range p.plugins {
		if plugin.TransformIndexHTML == nil {
			continue
		}
		if r := plugin.TransformIndexHTML(html); r != nil {
			return *r
		}
	}
	return html
}
