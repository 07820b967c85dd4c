package daemon

import "encoding/json"

// Request kinds. Every Request/Response pair travels as one JSON frame;
// Kind discriminates which payload fields are populated, the same
// discriminated-union-over-JSON shape internal/hmr uses for its own
// client/server message envelopes.
const (
	KindPing       = "ping"
	KindWatchStart = "watch_start"
	KindWatchStop  = "watch_stop"
	KindWatchStatus = "watch_status"
	KindRunPlan    = "run_plan"
	KindPkgInstall = "pkg_install"
	KindPkgExplain = "pkg_explain"
	KindBuild      = "build"
	KindTestRun    = "test_run"
	KindDevStart   = "dev_start"
	KindDevStop    = "dev_stop"
	KindBundle     = "bundle"
)

// Request is the envelope every IPC call sends. Only the fields relevant
// to Kind are populated; the rest are zero.
type Request struct {
	Kind string `json:"kind"`

	Nonce string `json:"nonce,omitempty"` // ping

	Roots []string `json:"roots,omitempty"` // watch_start

	Entry string   `json:"entry,omitempty"` // run_plan
	CWD   string   `json:"cwd,omitempty"`   // run_plan, pkg_install, build
	Args  []string `json:"args,omitempty"`  // run_plan

	Flags []string `json:"flags,omitempty"` // pkg_install

	Specifier string `json:"specifier,omitempty"` // pkg_explain
	ImportKind string `json:"import_kind,omitempty"` // pkg_explain: "cjs" selects CommonJS conditions; anything else uses ESM
	Why       bool    `json:"why,omitempty"`          // pkg_explain

	Targets []string `json:"targets,omitempty"` // build

	Files      []string `json:"files,omitempty"`       // test_run
	TimeoutSec int      `json:"timeout_sec,omitempty"` // test_run

	Addr    string   `json:"addr,omitempty"`    // dev_start
	Entries []string `json:"entries,omitempty"` // dev_start, bundle

	Format string `json:"format,omitempty"` // bundle: "esm" | "cjs" | "iife", default "esm"
	OutDir string `json:"out_dir,omitempty"` // bundle, default "<cwd>/.howth/dist"
}

// Hello identifies the daemon to a freshly connected client, the first
// thing every response carries.
type Hello struct {
	ServerVersion string `json:"server_version"`
}

// Response is the envelope every IPC call returns.
type Response struct {
	Kind  string `json:"kind"`
	Hello Hello  `json:"hello"`

	OK    bool   `json:"ok"`
	Error *ErrorPayload `json:"error,omitempty"`

	Nonce string `json:"nonce,omitempty"` // ping

	Watching bool     `json:"watching,omitempty"` // watch_status
	Roots    []string `json:"roots,omitempty"`    // watch_status

	RunResult json.RawMessage `json:"run_result,omitempty"` // run_plan, build: *buildgraph.RunResult

	Resolution *ExplainResolution `json:"resolution,omitempty"` // pkg_explain

	TestResult json.RawMessage `json:"test_result,omitempty"` // test_run

	DevAddr string `json:"dev_addr,omitempty"` // dev_start

	Bundle *BundleResult `json:"bundle,omitempty"` // bundle
}

// BundleOutput is one chunk file a bundle request wrote to disk.
type BundleOutput struct {
	Chunk string `json:"chunk"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// BundleResult is bundle's answer: every chunk file written, main chunk
// first followed by async chunks in split-point id order.
type BundleResult struct {
	Outputs []BundleOutput `json:"outputs"`
}

// ErrorPayload mirrors internal/errors.JSON so a failed request still
// round-trips a stable error code across the IPC boundary.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ExplainResolution is pkg_explain's answer: how a specifier resolved, and
// optionally the resolver's lookup order as a fixed list of steps. Steps is
// the same for every specifier; it does not trace which steps this one hit.
type ExplainResolution struct {
	Specifier  string   `json:"specifier"`
	ResolvedTo string   `json:"resolved_to"`
	Format     string   `json:"format"`
	Steps      []string `json:"steps,omitempty"`
}

// NewHello builds the Hello block every Response embeds.
func NewHello(serverVersion string) Hello {
	return Hello{ServerVersion: serverVersion}
}

// Ok wraps a successful response of kind with the daemon's Hello block.
func Ok(kind string, hello Hello) Response {
	return Response{Kind: kind, Hello: hello, OK: true}
}

// Err wraps a failed response of kind carrying code/message/path.
func Err(kind string, hello Hello, code, message, path string) Response {
	return Response{
		Kind:  kind,
		Hello: hello,
		OK:    false,
		Error: &ErrorPayload{Code: code, Message: message, Path: path},
	}
}
