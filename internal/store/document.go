package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentVersion is written to metadata.version.
const DocumentVersion = "1.0"

// Metadata is the document header kept next to the collection.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   string    `json:"version"`
	// LastID is the highest id ever assigned, so deleted ids are not reused.
	// Older files without it are still readable.
	LastID int `json:"last_id,omitempty"`
}

func decodeDocument[R any](data []byte, collection string) ([]R, Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Metadata{}, fmt.Errorf("parse document: %w", err)
	}

	var meta Metadata
	if m, ok := raw["metadata"]; ok && len(m) > 0 && string(m) != "null" {
		if err := json.Unmarshal(m, &meta); err != nil {
			return nil, Metadata{}, fmt.Errorf("parse metadata: %w", err)
		}
	}

	var records []R
	if items, ok := raw[collection]; ok && len(items) > 0 && string(items) != "null" {
		if err := json.Unmarshal(items, &records); err != nil {
			return nil, Metadata{}, fmt.Errorf("parse %s: %w", collection, err)
		}
	}
	return records, meta, nil
}

func encodeDocument[R any](collection string, records []R, meta Metadata, indent bool) ([]byte, error) {
	if records == nil {
		records = []R{}
	}
	itemsJSON, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", collection, err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	keyJSON, err := json.Marshal(collection)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(itemsJSON) + len(metaJSON) + 32)
	buf.WriteByte('{')
	buf.Write(keyJSON)
	buf.WriteByte(':')
	buf.Write(itemsJSON)
	buf.WriteString(`,"metadata":`)
	buf.Write(metaJSON)
	buf.WriteByte('}')

	if !indent {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
