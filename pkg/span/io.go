package span

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// envelope is the {"spans": [...]} wrapper some exporters emit.
type envelope struct {
	Spans []Record `json:"spans"`
}

// ReadJSON decodes span records from r. Three layouts are accepted:
//
//	[{"span_id": "a", ...}, {"span_id": "b", ...}]   // JSON array
//	{"spans": [{"span_id": "a", ...}]}                 // envelope
//	{"span_id": "a", ...}\n{"span_id": "b", ...}       // JSON Lines
//
// Layouts may be concatenated; records are returned in input order.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	var records []Record
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			continue
		}
		switch trimmed[0] {
		case '[':
			var batch []Record
			if err := json.Unmarshal(trimmed, &batch); err != nil {
				return nil, fmt.Errorf("decode array: %w", err)
			}
			records = append(records, batch...)
		case '{':
			var env envelope
			if err := json.Unmarshal(trimmed, &env); err == nil && env.Spans != nil {
				records = append(records, env.Spans...)
				continue
			}
			var rec Record
			if err := json.Unmarshal(trimmed, &rec); err != nil {
				return nil, fmt.Errorf("decode record %d: %w", len(records)+1, err)
			}
			records = append(records, rec)
		default:
			return nil, fmt.Errorf("decode: unexpected %q at record %d", trimmed[0], len(records)+1)
		}
	}
}

// ImportFile opens path and decodes it with [ReadJSON].
func ImportFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSONL writes one record per line.
func WriteJSONL(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i+1, err)
		}
	}
	return nil
}

// ExportFile writes records to path as JSON Lines.
func ExportFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSONL(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
