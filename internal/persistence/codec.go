package persistence

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"github.com/talgya/core-protocol/internal/empire"
)

// Codec identifies the snapshot encoding stored alongside each payload.
const Codec = "json+lz4"

// ErrChecksum means a snapshot payload does not match its recorded hash.
var ErrChecksum = errors.New("snapshot checksum mismatch")

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Encode serializes a state to compressed JSON and returns its checksum.
func Encode(s *empire.State) (payload []byte, checksum string, err error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, "", fmt.Errorf("marshal state: %w", err)
	}
	payload, err = compress(raw)
	if err != nil {
		return nil, "", err
	}
	return payload, Checksum(payload), nil
}

// Decode verifies and decodes a payload produced by Encode.
func Decode(payload []byte, checksum string) (*empire.State, error) {
	if Checksum(payload) != checksum {
		return nil, ErrChecksum
	}
	raw, err := decompress(payload)
	if err != nil {
		return nil, err
	}
	var s empire.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if len(s.Colonies) == 0 {
		return nil, errors.New("snapshot has no colonies")
	}
	s.Normalize()
	return &s, nil
}

// Checksum is the hex BLAKE3-256 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func compress(src []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	zw := lz4.NewWriter(buf)
	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("lz4 write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(src []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	zr := lz4.NewReader(bytes.NewReader(src))
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, fmt.Errorf("lz4 read: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
