package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FileMD5 computes the MD5 of a file on disk.
func FileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// BytesMD5 computes the MD5 of a byte slice.
func BytesMD5(data []byte) string {
	hash := md5.New()
	hash.Write(data)
	return hex.EncodeToString(hash.Sum(nil))
}

// VariantKey derives a cache key for a rendered variant of an image:
// the image identity plus every parameter that changes the output.
func VariantKey(md5sum string, parts ...any) string {
	hash := md5.New()
	for _, p := range parts {
		fmt.Fprintf(hash, "|%v", p)
	}
	return md5sum + ":" + hex.EncodeToString(hash.Sum(nil))[:12]
}
