package store

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the hash stored in files.hash for content.
func ContentHash(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}
