// Package lockfile implements howth.lock: a schema-versioned, npm-lockfile-
// flavored pinning of every resolved (name, version) plus integrity hashes
//, grounded on the
// field shapes of vercel/turborepo's NpmLockfile (package-lock.json v2+)
// reshaped to howth's flatter "name@version" keying.
package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// SupportedSchemaVersion is the only lockfile_version this build
// understands; a newer value is a distinguished error.
const SupportedSchemaVersion = 1

const FileName = "howth.lock"

// Root is the root project's own name/version, recorded for provenance.
type Root struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PackageEntry is one resolved (name, version) pin.
type PackageEntry struct {
	Integrity    string            `json:"integrity"`
	Tarball      string            `json:"tarball"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Lockfile is howth.lock's in-memory representation.
type Lockfile struct {
	LockfileVersion int                     `json:"lockfile_version"`
	Root            Root                    `json:"root"`
	Packages        map[string]PackageEntry `json:"packages"`
}

func New(rootName, rootVersion string) *Lockfile {
	return &Lockfile{
		LockfileVersion: SupportedSchemaVersion,
		Root:            Root{Name: rootName, Version: rootVersion},
		Packages:        make(map[string]PackageEntry),
	}
}

// Key formats the packages map key for a resolved (name, version) pair.
func Key(name, version string) string { return name + "@" + version }

// SplitKey splits a "name@version" packages-map key back into its parts,
// scope-aware (a leading "@scope/name@version" splits on the last "@").
func SplitKey(key string) (name, version string) {
	idx := strings.LastIndex(key, "@")
	if idx <= 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// Load reads and parses howth.lock from dir. A missing file is reported as
// PKG_LOCK_NOT_FOUND; a version newer than this build understands is
// PKG_LOCK_SCHEMA_UNSUPPORTED; malformed JSON is also reported as
// PKG_LOCK_NOT_FOUND, with the parse error attached.
func Load(dir string) (*Lockfile, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, howtherrors.Validation(howtherrors.CodePkgLockNotFound,
				"howth.lock not found", path)
		}
		return nil, err
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, howtherrors.Failure(howtherrors.CodePkgLockNotFound,
			"howth.lock is not valid JSON", path, "regenerate the lockfile with `howth install`", err)
	}

	if lf.LockfileVersion > SupportedSchemaVersion {
		return nil, howtherrors.Validation(howtherrors.CodePkgLockSchemaUnsupported,
			fmt.Sprintf("howth.lock schema version %d is newer than supported version %d",
				lf.LockfileVersion, SupportedSchemaVersion), path)
	}

	if lf.Packages == nil {
		lf.Packages = make(map[string]PackageEntry)
	}
	return &lf, nil
}

// Save writes lf to dir/howth.lock atomically (temp file + rename).
func Save(dir string, lf *Lockfile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return err
	}

	final := filepath.Join(dir, FileName)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// RequiredPair is one (name, range) requirement a lockfile must cover under
// --frozen-lockfile.
type RequiredPair struct {
	Name  string
	Range string
}

// VerifyClosure checks that every required (name, range) pair, and the
// transitive dependency closure reachable from those pairs, is present in
// lf.Packages. satisfies reports whether a pinned version satisfies a range.
func VerifyClosure(lf *Lockfile, required []RequiredPair, satisfies func(version, rng string) bool) error {
	visited := make(map[string]bool)
	var walk func(name, rng string) error
	walk = func(name, rng string) error {
		var matchKey string
		for key := range lf.Packages {
			version := versionFromKey(key, name)
			if version == "" {
				continue
			}
			if satisfies(version, rng) {
				matchKey = key
				break
			}
		}
		if matchKey == "" {
			return howtherrors.Validation(howtherrors.CodePkgLockPackageMissing,
				fmt.Sprintf("howth.lock has no entry satisfying %s@%s", name, rng), "")
		}
		if visited[matchKey] {
			return nil
		}
		visited[matchKey] = true

		entry := lf.Packages[matchKey]
		for depName, depRange := range entry.Dependencies {
			if err := walk(depName, depRange); err != nil {
				return err
			}
		}
		return nil
	}

	for _, req := range required {
		if err := walk(req.Name, req.Range); err != nil {
			return err
		}
	}
	return nil
}

// versionFromKey extracts the version from a "name@version" key iff the key
// names the given package, else returns "".
func versionFromKey(key, name string) string {
	prefix := name + "@"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return ""
	}
	return key[len(prefix):]
}

// VerifyIntegrity confirms computedIntegrity equals the integrity recorded
// for (name, version); mismatch is PKG_LOCK_INTEGRITY_MISMATCH.
func VerifyIntegrity(lf *Lockfile, name, version string, computedIntegrity string) error {
	entry, ok := lf.Packages[Key(name, version)]
	if !ok {
		return howtherrors.Validation(howtherrors.CodePkgLockPackageMissing,
			fmt.Sprintf("no lockfile entry for %s@%s", name, version), "")
	}
	if entry.Integrity != computedIntegrity {
		return howtherrors.Validation(howtherrors.CodePkgLockIntegrityMismatch,
			fmt.Sprintf("integrity mismatch for %s@%s", name, version), "")
	}
	return nil
}
