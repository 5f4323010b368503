package testutil

import (
	"hoard-go/internal/hoard"

	"github.com/zeebo/blake3"
)

// Digest returns the content digest of data, as the archive computes it.
func Digest(data []byte) hoard.Digest {
	return hoard.Digest(blake3.Sum256(data))
}
