package ledger

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
)

// ChainError describes one verification failure, anchored to a 1-based line
// number in the ledger file.
type ChainError struct {
	Line    int
	Message string
}

func (e ChainError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Verify replays the ledger file from the start, recomputing every line's
// hash against the next line's prev_hash and every entry's own entry_hash.
// It returns one ChainError per detected problem; an empty slice means the
// chain is intact. A missing file verifies clean (an empty chain).
func Verify(path string) ([]ChainError, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: open for verify: %w", err)
	}
	defer file.Close()

	var problems []ChainError
	expectedPrev := GenesisHash
	expectedSeq := int64(0)
	lineNo := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(bytes.TrimSpace(raw)) == 0 {
			problems = append(problems, ChainError{Line: lineNo, Message: "blank line in ledger"})
			continue
		}

		entry, err := parseLine(raw)
		if err != nil {
			problems = append(problems, ChainError{Line: lineNo, Message: fmt.Sprintf("unparseable entry: %v", err)})
			// The chain cannot be followed past an unreadable line.
			expectedPrev = LineHash(raw)
			expectedSeq++
			continue
		}

		if entry.PrevHash != expectedPrev {
			problems = append(problems, ChainError{
				Line:    lineNo,
				Message: fmt.Sprintf("prev_hash mismatch: have %s, want %s", entry.PrevHash, expectedPrev),
			})
		}
		if entry.Seq != expectedSeq {
			problems = append(problems, ChainError{
				Line:    lineNo,
				Message: fmt.Sprintf("sequence gap: have %d, want %d", entry.Seq, expectedSeq),
			})
		}
		recomputed, err := entry.ComputeEntryHash()
		if err != nil {
			problems = append(problems, ChainError{Line: lineNo, Message: fmt.Sprintf("recompute entry_hash: %v", err)})
		} else if recomputed != entry.EntryHash {
			problems = append(problems, ChainError{
				Line:    lineNo,
				Message: fmt.Sprintf("entry_hash mismatch: have %s, want %s", entry.EntryHash, recomputed),
			})
		}

		expectedPrev = LineHash(raw)
		expectedSeq = entry.Seq + 1
	}
	if err := scanner.Err(); err != nil {
		return problems, fmt.Errorf("ledger: scan for verify: %w", err)
	}
	return problems, nil
}

// RawEntry pairs a parsed ledger entry with the exact bytes of its source
// line, so extracts can reproduce the ledger byte for byte.
type RawEntry struct {
	Entry Entry
	Raw   []byte
}

// ReadAllRaw returns every ledger entry in file order along with the raw
// bytes of each line. A missing file yields an empty slice.
func ReadAllRaw(path string) ([]RawEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: open for read: %w", err)
	}
	defer file.Close()

	var entries []RawEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		entry, err := parseLine(raw)
		if err != nil {
			return entries, fmt.Errorf("ledger: line %d: %w", lineNo, err)
		}
		entries = append(entries, RawEntry{Entry: entry, Raw: append([]byte(nil), raw...)})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("ledger: scan: %w", err)
	}
	return entries, nil
}

// ReadAll returns every ledger entry in file order. A missing file yields an
// empty slice.
func ReadAll(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: open for read: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		entry, err := parseLine(raw)
		if err != nil {
			return entries, fmt.Errorf("ledger: line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("ledger: scan: %w", err)
	}
	return entries, nil
}
