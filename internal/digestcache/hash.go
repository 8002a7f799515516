package digestcache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// DigestSize is the digest length in bytes (256 bits).
const DigestSize = blake2b.Size256

// HashFile streams path through BLAKE2b-256 in blocks of blockSize bytes and
// returns the hex digest.
func HashFile(fsys afero.Fs, path string, blockSize int) (string, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	file, err := fsys.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("init blake2b: %w", err)
	}
	buf := make([]byte, blockSize)
	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("read %s: %w", path, readErr)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func validDigest(digest string) bool {
	if len(digest) != hex.EncodedLen(DigestSize) {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
