package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Payload Serialization API
// =============================================================================

// MarshalPayload converts a payload to indented JSON bytes.
func MarshalPayload(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePayload(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePayload writes p as indented JSON to w.
func WritePayload(p Payload, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WritePayloadFile writes p to a JSON file, creating or truncating it.
func WritePayloadFile(p Payload, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePayload(p, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPayload decodes a payload from r. Flags in the input are ignored and
// recomputed from the edges, so hand-written payloads need not carry them.
func ReadPayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode: %w", err)
	}
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	if p.Edges == nil {
		p.Edges = []Edge{}
	}
	p.DeriveFlags()
	return p, nil
}

// ReadPayloadFile reads a payload from a JSON file.
func ReadPayloadFile(path string) (Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return Payload{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPayload(f)
}
