package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
)

// GenesisHash is the prev_hash sentinel carried by the first entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one line of the integrity ledger.
type Entry struct {
	Seq        int64          `json:"seq"`
	Timestamp  string         `json:"timestamp"`
	Action     string         `json:"action"`
	EvidenceID string         `json:"evidence_id"`
	SHA256     string         `json:"sha256"`
	Actor      string         `json:"actor"`
	Details    map[string]any `json:"details"`
	PrevHash   string         `json:"prev_hash"`
	EntryHash  string         `json:"entry_hash"`
}

// canonicalJSON serializes the entry with sorted keys, compact separators,
// and ASCII escaping so the byte representation is stable across writers.
// When includeEntryHash is false the entry_hash key is omitted entirely;
// that form is what entry_hash itself is computed over.
func (e Entry) canonicalJSON(includeEntryHash bool) ([]byte, error) {
	m := map[string]any{
		"seq":         e.Seq,
		"timestamp":   e.Timestamp,
		"action":      e.Action,
		"evidence_id": e.EvidenceID,
		"sha256":      e.SHA256,
		"actor":       e.Actor,
		"details":     e.Details,
		"prev_hash":   e.PrevHash,
	}
	if e.Details == nil {
		m["details"] = map[string]any{}
	}
	if includeEntryHash {
		m["entry_hash"] = e.EntryHash
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal ledger entry: %w", err)
	}
	return escapeNonASCII(raw), nil
}

// ComputeEntryHash returns the SHA-256 hex of the entry serialized without
// its entry_hash field.
func (e Entry) ComputeEntryHash() (string, error) {
	raw, err := e.canonicalJSON(false)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Line returns the full canonical JSONL representation, without a trailing
// newline.
func (e Entry) Line() ([]byte, error) {
	return e.canonicalJSON(true)
}

// LineHash hashes the raw bytes of a ledger line (excluding the newline
// terminator). The next entry's prev_hash must equal this value.
func LineHash(line []byte) string {
	sum := sha256.Sum256(line)
	return hex.EncodeToString(sum[:])
}

func parseLine(line []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		return Entry{}, fmt.Errorf("parse ledger line: %w", err)
	}
	return e, nil
}

// escapeNonASCII rewrites every rune above 0x7F as a \uXXXX escape so ledger
// bytes are identical regardless of the writer's locale or JSON library.
func escapeNonASCII(raw []byte) []byte {
	ascii := true
	for _, b := range raw {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return raw
	}

	var sb strings.Builder
	sb.Grow(len(raw) + 16)
	for _, r := range string(raw) {
		if r < 0x80 {
			sb.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&sb, `\u%04x`, r)
	}
	return []byte(sb.String())
}
