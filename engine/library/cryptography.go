package library

import (
	"crypto/sha256"
	"fmt"
)

func Sha256Sum(data interface{}) Sha256 {
	return fmt.Sprintf("%x", Sha256Bytes(data))
}

func Sha256Bytes(data interface{}) [32]byte {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	default:
		LogCLI("attempted to hash non-string or non-[]byte", 0)
	}
	return sha256.Sum256(b)
}
