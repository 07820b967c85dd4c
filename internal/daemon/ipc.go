// Package daemon implements the long-lived howth process: the IPC
// transport thin CLI clients dial into, the filesystem watcher that keeps
// every in-memory cache coherent, and the state each request handler reads
// and mutates.
package daemon

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// MaxFrameSize bounds a single IPC frame's declared length. Checked before
// any allocation so a corrupt or hostile length prefix can never trigger an
// out-of-memory read.
const MaxFrameSize = 16 * 1024 * 1024

// ReadFrame reads one length-prefixed frame: a 4-byte little-endian length
// followed by that many bytes of JSON payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, howtherrors.Failure(howtherrors.CodeFrameTooLarge,
			fmt.Sprintf("ipc frame of %d bytes exceeds the %d byte limit", n, MaxFrameSize),
			"", "", nil)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame writes body as one length-prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameSize {
		return howtherrors.Failure(howtherrors.CodeFrameTooLarge,
			fmt.Sprintf("ipc frame of %d bytes exceeds the %d byte limit", len(body), MaxFrameSize),
			"", "", nil)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadJSON reads one frame and unmarshals it into v.
func ReadJSON(r io.Reader, v any) error {
	body, err := ReadFrame(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// WriteJSON marshals v and writes it as one frame.
func WriteJSON(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}
