package download

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
)

const hashChunkSize = 4096

// HashFile streams a file through SHA1 in fixed-size chunks. A missing file
// is reported as an empty digest with a nil error so callers can treat
// "no file" and "no checksum" uniformly.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, hashChunkSize)

	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifySHA1 reports whether the file matches the expected digest. With no
// expected digest, any existing regular file passes; a missing file never
// does.
func VerifySHA1(path, expected string) bool {
	if expected == "" {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}

	digest, err := HashFile(path)
	if err != nil || digest == "" {
		return false
	}

	return digest == expected
}

// IsValid reports whether the destination already satisfies the task: a
// regular file exists and, when a digest is expected, matches it. Anything
// else squatting on the path (a directory, a socket) does not satisfy it.
func IsValid(path, expected string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	if expected == "" {
		return true
	}

	return VerifySHA1(path, expected)
}
