// Package install orchestrates dependency resolution: the registry,
// lockfile, and package-cache packages wired together into `howth install`
//.
package install

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"

	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/lockfile"
	"github.com/jschatz1/howth/internal/npmrc"
	"github.com/jschatz1/howth/internal/pkgcache"
	"github.com/jschatz1/howth/internal/pkgjson"
	"github.com/jschatz1/howth/internal/registry"
)

// Options configures one Install call.
type Options struct {
	CWD            string
	FrozenLockfile bool
}

// Installer wires together the manifest cache, package cache, and registry
// client for repeated use across install calls (e.g. by the daemon).
type Installer struct {
	Manifests *pkgjson.Cache
	Cache     *pkgcache.Cache
	Registry  *registry.Client
	HTTP      *http.Client
}

func New(cacheDir string, npmrcConfig *npmrc.Config) (*Installer, error) {
	cache, err := pkgcache.New(cacheDir)
	if err != nil {
		return nil, err
	}
	return &Installer{
		Manifests: pkgjson.NewCache(),
		Cache:     cache,
		Registry:  registry.NewClient(npmrcConfig),
		HTTP:      &http.Client{},
	}, nil
}

// Install resolves opts.CWD's dependencies, populating the package cache
// and node_modules, and returns the lockfile it used or produced.
func (in *Installer) Install(ctx context.Context, opts Options) (*lockfile.Lockfile, error) {
	manifest, err := in.Manifests.Load(opts.CWD)
	if err != nil {
		return nil, err
	}
	deps := manifest.AllDependencies()

	if opts.FrozenLockfile {
		return in.installFrozen(ctx, opts.CWD, deps)
	}
	return in.installFresh(ctx, opts.CWD, manifest.Name, manifest.Version, deps)
}

func (in *Installer) installFrozen(ctx context.Context, cwd string, deps map[string]string) (*lockfile.Lockfile, error) {
	lf, err := lockfile.Load(cwd)
	if err != nil {
		return nil, err
	}

	required := make([]lockfile.RequiredPair, 0, len(deps))
	for name, rng := range deps {
		required = append(required, lockfile.RequiredPair{Name: name, Range: rng})
	}
	if err := lockfile.VerifyClosure(lf, required, semverSatisfies); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(lf.Packages))
	for key := range lf.Packages {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := lf.Packages[key]
		name, version := lockfile.SplitKey(key)
		if err := in.materialize(ctx, cwd, name, version, entry); err != nil {
			return nil, err
		}
	}

	return lf, nil
}

func (in *Installer) installFresh(ctx context.Context, cwd, rootName, rootVersion string, deps map[string]string) (*lockfile.Lockfile, error) {
	lf := lockfile.New(rootName, rootVersion)
	visited := make(map[string]bool)

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var resolveOne func(name, rng string) error
	resolveOne = func(name, rng string) error {
		packument, err := in.Registry.FetchPackument(ctx, name)
		if err != nil {
			return err
		}
		v, err := registry.SelectVersion(packument, rng)
		if err != nil {
			return err
		}

		key := lockfile.Key(name, v.Version)
		if visited[key] {
			return nil
		}
		visited[key] = true

		entry := lockfile.PackageEntry{
			Integrity:    v.Dist.Integrity,
			Tarball:      v.Dist.Tarball,
			Dependencies: v.Dependencies,
		}
		lf.Packages[key] = entry

		if err := in.materialize(ctx, cwd, name, v.Version, entry); err != nil {
			return err
		}

		depNames := make([]string, 0, len(v.Dependencies))
		for dn := range v.Dependencies {
			depNames = append(depNames, dn)
		}
		sort.Strings(depNames)
		for _, dn := range depNames {
			if err := resolveOne(dn, v.Dependencies[dn]); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range names {
		if err := resolveOne(name, deps[name]); err != nil {
			return nil, err
		}
	}

	if err := lockfile.Save(cwd, lf); err != nil {
		return nil, err
	}
	return lf, nil
}

// materialize ensures (name, version) is extracted into the package cache
// and linked into cwd/node_modules, downloading and integrity-checking the
// tarball if it isn't cached yet.
func (in *Installer) materialize(ctx context.Context, cwd, name, version string, entry lockfile.PackageEntry) error {
	if !in.Cache.Has(name, version) {
		data, err := in.download(ctx, entry.Tarball)
		if err != nil {
			return err
		}
		if entry.Integrity != "" {
			computed := integrityOf(data)
			if computed != entry.Integrity {
				return howtherrors.Validation(howtherrors.CodePkgLockIntegrityMismatch,
					fmt.Sprintf("integrity mismatch for %s@%s", name, version), entry.Tarball)
			}
		}
		if _, err := in.Cache.Extract(bytes.NewReader(data), name, version); err != nil {
			return err
		}
	}
	return linkPackage(cwd, name, in.Cache.Dir(name, version))
}

func (in *Installer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := in.HTTP.Do(req)
	if err != nil {
		return nil, howtherrors.Failure(howtherrors.CodePkgDownloadFailed,
			fmt.Sprintf("failed to download %s", url), err.Error(), "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, howtherrors.Failure(howtherrors.CodePkgDownloadFailed,
			fmt.Sprintf("download of %s returned status %d", url, resp.StatusCode), "", "", nil)
	}
	return io.ReadAll(resp.Body)
}

func integrityOf(data []byte) string {
	sum := sha512.Sum512(data)
	return "sha512-" + base64.StdEncoding.EncodeToString(sum[:])
}

func linkPackage(cwd, name, srcDir string) error {
	target := filepath.Join(cwd, "node_modules", name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if existing, err := os.Readlink(target); err == nil && existing == srcDir {
		return nil
	}
	os.RemoveAll(target)
	return os.Symlink(srcDir, target)
}

func semverSatisfies(version, rng string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return false
	}
	return c.Check(v)
}
