package ledger

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another process holds the ledger writer lock.
var ErrLocked = errors.New("ledger: writer lock held by another process")

// Ledger is the single-writer append handle for one ledger file. The hash
// chain makes interleaved appends from multiple writers corrupting, so Open
// takes an advisory file lock and refuses to share; route all appends in a
// deployment through one Ledger.
type Ledger struct {
	path string
	lock *flock.Flock

	mu       sync.Mutex
	file     *os.File
	nextSeq  int64
	prevHash string
	closed   bool
}

// Open prepares the ledger at path for appending, creating the file if
// absent. Running chain state is reconstructed from the last line on disk so
// restarts continue the same chain.
func Open(path string) (*Ledger, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ledger: acquire writer lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	nextSeq, prevHash, err := tailState(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("ledger: open for append: %w", err)
	}

	return &Ledger{
		path:     path,
		lock:     lock,
		file:     file,
		nextSeq:  nextSeq,
		prevHash: prevHash,
	}, nil
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Append writes one entry, fsyncs, and advances the in-memory chain state.
// The entry is committed durably before Append returns; a crash mid-append
// leaves at worst a torn final line which verify reports.
func (l *Ledger) Append(action, evidenceID, sha256Hex, actor string, details map[string]any) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return Entry{}, errors.New("ledger: closed")
	}

	entry := Entry{
		Seq:        l.nextSeq,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Action:     action,
		EvidenceID: evidenceID,
		SHA256:     sha256Hex,
		Actor:      actor,
		Details:    details,
		PrevHash:   l.prevHash,
	}
	hash, err := entry.ComputeEntryHash()
	if err != nil {
		return Entry{}, err
	}
	entry.EntryHash = hash

	line, err := entry.Line()
	if err != nil {
		return Entry{}, err
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return Entry{}, fmt.Errorf("ledger: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return Entry{}, fmt.Errorf("ledger: fsync: %w", err)
	}

	l.nextSeq++
	l.prevHash = LineHash(line)
	return entry, nil
}

// NextSeq returns the sequence number the next append will use.
func (l *Ledger) NextSeq() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSeq
}

// Close releases the file handle and the writer lock.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.file.Close()
	if unlockErr := l.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// tailState reads the last line of the ledger file to recover the next
// sequence number and the running hash. An absent or empty file starts a
// fresh chain at the genesis sentinel.
func tailState(path string) (int64, string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, GenesisHash, nil
		}
		return 0, "", fmt.Errorf("ledger: open for tail read: %w", err)
	}
	defer file.Close()

	var lastLine []byte
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		trimmed := bytes.TrimSpace(scanner.Bytes())
		if len(trimmed) == 0 {
			continue
		}
		lastLine = append(lastLine[:0], trimmed...)
	}
	if err := scanner.Err(); err != nil {
		return 0, "", fmt.Errorf("ledger: scan tail: %w", err)
	}
	if len(lastLine) == 0 {
		return 0, GenesisHash, nil
	}

	entry, err := parseLine(lastLine)
	if err != nil {
		return 0, "", fmt.Errorf("ledger: last line unreadable: %w", err)
	}
	return entry.Seq + 1, LineHash(lastLine), nil
}
