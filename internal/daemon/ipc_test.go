package daemon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameThenReadFrame_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestReadFrame_EmptyBodyRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteFrame_RejectsOversizedBodyBeforeWriting(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, MaxFrameSize+1)

	err := WriteFrame(&buf, oversized)
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing should be written once the body fails the size check")
}

func TestReadFrame_RejectsOversizedLengthPrefixWithoutAllocating(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := []byte{0xff, 0xff, 0xff, 0x7f} // ~2GiB, far past MaxFrameSize
	buf.Write(lenBuf)

	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestReadFrame_TruncatedStreamReturnsError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	truncated := bytes.NewReader(buf.Bytes()[:6])

	_, err := ReadFrame(truncated)
	assert.Error(t, err)
}

func TestWriteJSONThenReadJSON_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	require.NoError(t, WriteJSON(&buf, payload{Name: "ping", N: 3}))

	var got payload
	require.NoError(t, ReadJSON(&buf, &got))
	assert.Equal(t, payload{Name: "ping", N: 3}, got)
}
