package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// DefaultTestTimeout bounds a single TestRun job when the request doesn't
// specify one.
const DefaultTestTimeout = 120 * time.Second

// testHarnessScript is the small Node program piped files over stdin and
// run, one job at a time, inside the worker subprocess. It reads one
// JSON-encoded job per line, requires and executes each file, and writes
// one JSON-encoded result per line to stdout.
const testHarnessScript = `
const readline = require('readline');
const rl = readline.createInterface({ input: process.stdin });
rl.on('line', (line) => {
  let job;
  try { job = JSON.parse(line); } catch (e) { return; }
  const result = { file: job.file, passed: true, error: null };
  try {
    delete require.cache[require.resolve(job.file)];
    require(job.file);
  } catch (e) {
    result.passed = false;
    result.error = String(e && e.stack || e);
  }
  process.stdout.write(JSON.stringify(result) + '\n');
});
`

// TestJob is one file to execute inside the worker subprocess.
type TestJob struct {
	File string `json:"file"`
}

// TestJobResult is one file's outcome.
type TestJobResult struct {
	File   string `json:"file"`
	Passed bool   `json:"passed"`
	Error  string `json:"error"`
}

// TestWorker runs test files one at a time, each in its own `node`
// subprocess, from a single goroutine locked to one OS thread: the
// goroutine never migrates, since the child process is tracked by
// PID-sensitive bookkeeping on some platforms. Jobs cross an unbuffered
// channel; each result comes back on a one-slot reply channel.
type TestWorker struct {
	nodeBin string
	jobs    chan testJobRequest
	stop    chan struct{}
	done    chan struct{}
}

type testJobRequest struct {
	job     TestJob
	timeout time.Duration
	reply   chan testJobReply
}

type testJobReply struct {
	result TestJobResult
	err    error
}

// NewTestWorker starts the worker's dedicated goroutine. nodeBin defaults
// to "node" on PATH if empty.
func NewTestWorker(nodeBin string) *TestWorker {
	if nodeBin == "" {
		nodeBin = "node"
	}
	w := &TestWorker{
		nodeBin: nodeBin,
		jobs:    make(chan testJobRequest),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Run executes one file in the worker subprocess, waiting up to timeout
// (DefaultTestTimeout if zero) before killing the subprocess and
// returning a timeout error.
func (w *TestWorker) Run(ctx context.Context, file string, timeout time.Duration) (TestJobResult, error) {
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}
	reply := make(chan testJobReply, 1)
	req := testJobRequest{job: TestJob{File: file}, timeout: timeout, reply: reply}

	select {
	case w.jobs <- req:
	case <-ctx.Done():
		return TestJobResult{}, ctx.Err()
	case <-w.done:
		return TestJobResult{}, howtherrors.Failure(howtherrors.CodeDaemonUnreachable, "test worker has stopped", "", "", nil)
	}

	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return TestJobResult{}, ctx.Err()
	}
}

// Stop halts the worker's dedicated goroutine and its subprocess.
func (w *TestWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *TestWorker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	harnessPath, cleanup, err := writeHarness()
	if err != nil {
		w.drainWithError(err)
		return
	}
	defer cleanup()

	for {
		select {
		case <-w.stop:
			return
		case req := <-w.jobs:
			result, err := w.runOne(harnessPath, req.job, req.timeout)
			req.reply <- testJobReply{result: result, err: err}
		}
	}
}

func (w *TestWorker) drainWithError(err error) {
	for {
		select {
		case <-w.stop:
			return
		case req := <-w.jobs:
			req.reply <- testJobReply{err: err}
		}
	}
}

func (w *TestWorker) runOne(harnessPath string, job TestJob, timeout time.Duration) (TestJobResult, error) {
	cmd := exec.Command(w.nodeBin, harnessPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return TestJobResult{}, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return TestJobResult{}, err
	}
	if err := cmd.Start(); err != nil {
		return TestJobResult{}, err
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		_ = cmd.Process.Kill()
		return TestJobResult{}, err
	}

	resultCh := make(chan TestJobResult, 1)
	errCh := make(chan error, 1)
	go func() {
		if _, err := fmt.Fprintln(stdin, string(encoded)); err != nil {
			errCh <- err
			return
		}
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		if !scanner.Scan() {
			errCh <- scanner.Err()
			return
		}
		var result TestJobResult
		if err := json.Unmarshal(scanner.Bytes(), &result); err != nil {
			errCh <- err
			return
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return result, nil
	case err := <-errCh:
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return TestJobResult{}, err
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return TestJobResult{}, howtherrors.Failure(howtherrors.CodeTestTimeout, fmt.Sprintf("test %s timed out after %s", job.File, timeout), "", "", nil).WithPath(job.File)
	}
}

func writeHarness() (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "howth-testworker-*")
	if err != nil {
		return "", nil, err
	}
	path = filepath.Join(dir, "harness.js")
	if err := os.WriteFile(path, []byte(testHarnessScript), 0o600); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}
