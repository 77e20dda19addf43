package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashBytes returns a stable content hash used to deduplicate image
// blobs within one page's image store.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
