package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestBytesMatchesKnownVector(t *testing.T) {
	want := sha256.Sum256([]byte("chain of custody"))
	d := Bytes([]byte("chain of custody"))
	if d.SHA256 != hex.EncodeToString(want[:]) {
		t.Fatalf("Bytes hash = %s", d.SHA256)
	}
	if d.SizeBytes != int64(len("chain of custody")) {
		t.Fatalf("Bytes size = %d", d.SizeBytes)
	}
	if d.Algorithm != Algorithm {
		t.Fatalf("Bytes algorithm = %s", d.Algorithm)
	}
}

func TestFileMatchesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bin")
	payload := []byte("body camera footage placeholder")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	fromFile, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if fromFile != Bytes(payload) {
		t.Fatalf("File digest %+v differs from Bytes digest", fromFile)
	}
}

func TestCopyVerifiedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	payload := []byte("original evidence content")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	d, err := CopyVerified(src, dst)
	if err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	if d != Bytes(payload) {
		t.Fatalf("copy digest %+v differs from source digest", d)
	}

	copied, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(copied) != string(payload) {
		t.Fatal("copy content differs from source")
	}
}

func TestCopyVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.bin")
	if _, err := CopyVerified(filepath.Join(dir, "absent.bin"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("destination should not exist after failed copy")
	}
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bin")
	payload := []byte("verify me")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	ok, d, err := Verify(path, Bytes(payload).SHA256)
	if err != nil || !ok {
		t.Fatalf("Verify clean file: ok=%v err=%v", ok, err)
	}
	ok, _, err = Verify(path, d.SHA256[:32]+"00000000000000000000000000000000")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("Verify accepted a wrong hash")
	}
}
