package hoard

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// DigestSize is the length in bytes of a content digest.
const DigestSize = 32

// Digest is the BLAKE3 of a file's bytes. It is the identity of a post.
type Digest [DigestSize]byte

// HashReader streams r through BLAKE3 and returns the digest.
// Only the bytes matter: names, paths and timestamps never reach the hash.
func HashReader(r io.Reader) (Digest, error) {
	var d Digest
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return d, ioError("hash", err)
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}

// HashFile opens path through fsmgr and hashes its content.
func HashFile(fsmgr FilesystemManager, path *Path) (Digest, error) {
	f, err := fsmgr.Open(path)
	if err != nil {
		return Digest{}, ioError("open", err)
	}
	defer f.Close()

	return HashReader(f)
}

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string { return d.Hex() }

// ParseDigest decodes a 64-character hex string.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("decoding digest: %w", err)
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// DigestFromBytes converts a stored BLOB back into a Digest.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}
