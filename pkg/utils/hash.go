package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString returns the hex md5 digest of input. Used for artifact
// content identity and cache keys, not for anything security sensitive.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// ShortHash returns the first 12 hex characters of the md5 digest,
// enough to key log lines without flooding them.
func ShortHash(input string) string {
	return HashString(input)[:12]
}
