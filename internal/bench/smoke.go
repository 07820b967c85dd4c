package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jschatz1/howth/internal/fingerprint"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

const (
	// SchemaVersion is bumped whenever Report's shape changes in a way a
	// consumer parsing historical runs would need to know about.
	SchemaVersion = 1

	minSizeBytes = 1 << 20   // 1 MiB
	maxSizeBytes = 256 << 20 // 256 MiB
	lowItersWarn = 10        // below this, samples are noisy
	payloadSeed  = "howth_bench_payload_data_0123456789abcdef"
)

// Params are the inputs to RunSmoke, echoed back on the Report so a reader
// never has to guess what produced a given set of numbers.
type Params struct {
	Iters     uint32 `json:"iters"`
	Warmup    uint32 `json:"warmup"`
	SizeBytes uint64 `json:"size_bytes"`
}

// RuntimeInfo identifies the process that produced a Report.
type RuntimeInfo struct {
	ToolVersion string `json:"tool_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
}

// Result is one named sub-benchmark's outcome.
type Result struct {
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Samples uint32 `json:"samples"`
	Stats
}

func newResult(name string, samples []uint64) Result {
	return Result{
		Name:    name,
		Unit:    "ns/op",
		Samples: uint32(len(samples)),
		Stats:   computeStats(samples),
	}
}

// Report is the complete output of RunSmoke.
type Report struct {
	SchemaVersion int         `json:"bench_schema_version"`
	Runtime       RuntimeInfo `json:"runtime"`
	Params        Params      `json:"params"`
	Results       []Result    `json:"results"`
	Warnings      []Warning   `json:"warnings"`
}

// RunSmoke runs the fixed set of in-process smoke benchmarks: BLAKE3
// hashing, an atomic write+rename, and a project-root walk-up, each
// warmed up then sampled `iters` times. toolVersion is stamped into the
// report's runtime info as-is (callers own their own version string).
//
// iters below lowItersWarn produces a LOW_ITERS warning rather than an
// error — a short smoke run is still useful, just noisier. sizeBytes is
// clamped into [1 MiB, 256 MiB] with a SIZE_CLAMPED warning when it falls
// outside that range, so a caller can't accidentally hash a terabyte or
// spend the whole run on a single byte.
func RunSmoke(toolVersion string, params Params) (Report, error) {
	var warnings []Warning

	if params.Iters < lowItersWarn {
		warnings = append(warnings, warnWarn(howtherrors.CodeLowIters,
			fmt.Sprintf("iters=%d is below %d; samples may be noisy", params.Iters, lowItersWarn)))
	}

	size := params.SizeBytes
	clamped := size
	if clamped < minSizeBytes {
		clamped = minSizeBytes
	}
	if clamped > maxSizeBytes {
		clamped = maxSizeBytes
	}
	if clamped != size {
		warnings = append(warnings, warnInfo(howtherrors.CodeSizeClamped,
			fmt.Sprintf("size_bytes=%d clamped to %d (allowed range [%d, %d])", size, clamped, minSizeBytes, maxSizeBytes)))
	}
	params.SizeBytes = clamped

	payload := generatePayload(clamped)

	workDir, err := os.MkdirTemp("", "howth-bench-*")
	if err != nil {
		return Report{}, fmt.Errorf("bench: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	results := make([]Result, 0, 3)

	hashSamples, err := timeIters(params.Iters, params.Warmup, func() error {
		_ = fingerprint.Bytes(payload)
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	results = append(results, newResult("hash_file_blake3", hashSamples))

	writeSamples, err := timeIters(params.Iters, params.Warmup, func() error {
		return atomicWrite(filepath.Join(workDir, "payload.bin"), payload)
	})
	if err != nil {
		return Report{}, err
	}
	results = append(results, newResult("atomic_write", writeSamples))

	leafDir, err := makeNestedProject(workDir)
	if err != nil {
		return Report{}, err
	}
	walkupSamples, err := timeIters(params.Iters, params.Warmup, func() error {
		_, err := walkUpForPackageJSON(leafDir, workDir)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	results = append(results, newResult("project_root_walkup", walkupSamples))

	return Report{
		SchemaVersion: SchemaVersion,
		Runtime: RuntimeInfo{
			ToolVersion: toolVersion,
			OS:          runtime.GOOS,
			Arch:        runtime.GOARCH,
		},
		Params:   params,
		Results:  results,
		Warnings: warnings,
	}, nil
}

// timeIters runs fn warmup times to settle caches/GC, then `iters` times
// (at least once), recording each measured call's wall time in
// nanoseconds. The first error from fn aborts the run.
func timeIters(iters, warmup uint32, fn func() error) ([]uint64, error) {
	for i := uint32(0); i < warmup; i++ {
		if err := fn(); err != nil {
			return nil, err
		}
	}

	n := iters
	if n == 0 {
		n = 1
	}
	samples := make([]uint64, 0, n)
	for i := uint32(0); i < n; i++ {
		start := time.Now()
		if err := fn(); err != nil {
			return nil, err
		}
		samples = append(samples, uint64(time.Since(start).Nanoseconds()))
	}
	return samples, nil
}

// generatePayload fills size bytes by repeating a fixed seed string,
// deterministic across runs so a hash benchmark's samples reflect the
// hasher's throughput rather than a PRNG's.
func generatePayload(size uint64) []byte {
	out := make([]byte, size)
	seed := []byte(payloadSeed)
	for i := range out {
		out[i] = seed[i%len(seed)]
	}
	return out
}

// atomicWrite writes data to path via a sibling temp file plus rename, the
// same write-then-publish shape the build cache uses so a reader never
// observes a partially written file.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// makeNestedProject creates a few levels of nested directories under root
// with a package.json at root, returning the deepest directory — a
// realistic stand-in for a source file buried several folders below its
// project root.
func makeNestedProject(root string) (string, error) {
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"bench-fixture"}`), 0o644); err != nil {
		return "", err
	}
	leaf := filepath.Join(root, "src", "lib", "nested", "deep")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		return "", err
	}
	return leaf, nil
}

// walkUpForPackageJSON walks from dir up to (and including) stopAt
// looking for a package.json, the same stop-at-project-root loop idiom
// the resolver uses to find a package's node_modules directory.
func walkUpForPackageJSON(dir, stopAt string) (string, error) {
	for {
		candidate := filepath.Join(dir, "package.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if dir == stopAt || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return "", fmt.Errorf("no package.json found between %s and %s", dir, stopAt)
}
