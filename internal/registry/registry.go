// Package registry fetches npm-style packuments and selects versions
// against semver ranges, honoring scoped
// registry routing and per-host tokens from internal/npmrc.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/npmrc"
)

// DistInfo is one version's tarball/integrity metadata within a packument.
type DistInfo struct {
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity"`
	Shasum    string `json:"shasum"`
}

// VersionInfo is one version entry within a packument's "versions" map.
type VersionInfo struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dist            DistInfo          `json:"dist"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
}

// Packument is an npm registry package document: every published version.
type Packument struct {
	Name     string                 `json:"name"`
	Versions map[string]VersionInfo `json:"versions"`
}

// Client fetches packuments over HTTP, routing scoped packages per .npmrc.
type Client struct {
	HTTP   *http.Client
	NPMRC  *npmrc.Config
}

func NewClient(rc *npmrc.Config) *Client {
	return &Client{HTTP: &http.Client{Timeout: 30 * time.Second}, NPMRC: rc}
}

// FetchPackument downloads and parses the packument for name.
func (c *Client) FetchPackument(ctx context.Context, name string) (*Packument, error) {
	registryURL := c.NPMRC.RegistryFor(name)
	url := strings.TrimSuffix(registryURL, "/") + "/" + strings.ReplaceAll(name, "/", "%2F")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token, ok := c.NPMRC.TokenFor(registryURL); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, howtherrors.Failure(howtherrors.CodePkgRegistryError,
			fmt.Sprintf("failed to reach registry for %s", name), err.Error(),
			"check network connectivity and the registry URL in .npmrc", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, howtherrors.Validation(howtherrors.CodePkgNotFound,
			fmt.Sprintf("package %s not found in registry", name), url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, howtherrors.Failure(howtherrors.CodePkgRegistryError,
			fmt.Sprintf("registry returned %d for %s", resp.StatusCode, name), string(body),
			"", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var p Packument
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, howtherrors.Failure(howtherrors.CodePkgRegistryError,
			fmt.Sprintf("malformed packument for %s", name), err.Error(), "", err)
	}
	return &p, nil
}

// SelectVersion picks the highest version in p satisfying rangeStr:
// OR-ranges split and the globally highest match wins; Masterminds semver
// already normalizes x-ranges, hyphen ranges, and space-separated
// intersections, and excludes prereleases unless the constraint itself
// names one.
func SelectVersion(p *Packument, rangeStr string) (*VersionInfo, error) {
	constraint, err := semver.NewConstraint(rangeStr)
	if err != nil {
		return nil, howtherrors.Validation(howtherrors.CodePkgSpecInvalid,
			fmt.Sprintf("invalid version range %q for %s", rangeStr, p.Name), err.Error())
	}

	var best *semver.Version
	var bestKey string
	for key, v := range p.Versions {
		parsed, err := semver.NewVersion(v.Version)
		if err != nil {
			continue
		}
		if !constraint.Check(parsed) {
			continue
		}
		if best == nil || parsed.GreaterThan(best) {
			best = parsed
			bestKey = key
		}
	}

	if best == nil {
		return nil, howtherrors.Validation(howtherrors.CodePkgNotFound,
			fmt.Sprintf("no version of %s satisfies %q", p.Name, rangeStr), "")
	}

	info := p.Versions[bestKey]
	return &info, nil
}
