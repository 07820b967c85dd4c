package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	lf := New("demo", "1.0.0")
	lf.Packages[Key("leftpad", "1.3.0")] = PackageEntry{
		Integrity: "sha512-abc",
		Tarball:   "https://registry.npmjs.org/leftpad/-/leftpad-1.3.0.tgz",
	}

	require.NoError(t, Save(dir, lf))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Root.Name)
	assert.Equal(t, SupportedSchemaVersion, loaded.LockfileVersion)
	assert.Equal(t, "sha512-abc", loaded.Packages["leftpad@1.3.0"].Integrity)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	var he *howtherrors.HowthError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, howtherrors.CodePkgLockNotFound, he.Code)
}

func TestLoad_UnsupportedSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName),
		[]byte(`{"lockfile_version":99,"root":{},"packages":{}}`), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	var he *howtherrors.HowthError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, howtherrors.CodePkgLockSchemaUnsupported, he.Code)
}

func TestVerifyClosure_CompleteClosurePasses(t *testing.T) {
	lf := New("demo", "1.0.0")
	lf.Packages[Key("app-dep", "1.0.0")] = PackageEntry{
		Dependencies: map[string]string{"transitive-dep": "^2.0.0"},
	}
	lf.Packages[Key("transitive-dep", "2.1.0")] = PackageEntry{}

	satisfies := func(version, rng string) bool { return true }
	err := VerifyClosure(lf, []RequiredPair{{Name: "app-dep", Range: "^1.0.0"}}, satisfies)
	assert.NoError(t, err)
}

func TestVerifyClosure_MissingPairIsDistinguishedError(t *testing.T) {
	lf := New("demo", "1.0.0")
	satisfies := func(version, rng string) bool { return false }

	err := VerifyClosure(lf, []RequiredPair{{Name: "missing-dep", Range: "^1.0.0"}}, satisfies)
	require.Error(t, err)
	var he *howtherrors.HowthError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, howtherrors.CodePkgLockPackageMissing, he.Code)
}

func TestVerifyIntegrity_Mismatch(t *testing.T) {
	lf := New("demo", "1.0.0")
	lf.Packages[Key("leftpad", "1.3.0")] = PackageEntry{Integrity: "sha512-correct"}

	err := VerifyIntegrity(lf, "leftpad", "1.3.0", "sha512-tampered")
	require.Error(t, err)
	var he *howtherrors.HowthError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, howtherrors.CodePkgLockIntegrityMismatch, he.Code)
}

func TestVerifyIntegrity_Match(t *testing.T) {
	lf := New("demo", "1.0.0")
	lf.Packages[Key("leftpad", "1.3.0")] = PackageEntry{Integrity: "sha512-correct"}

	assert.NoError(t, VerifyIntegrity(lf, "leftpad", "1.3.0", "sha512-correct"))
}
