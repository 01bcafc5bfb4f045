// Package unpack turns an input file into raw container bytes. Patch files
// shipped with games are often XXTEA-encrypted, optionally behind a
// signature prefix, and sometimes gzip or zip compressed after decryption.
package unpack

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xxtea/xxtea-go/xxtea"
)

var (
	ErrDecrypt           = errors.New("xxtea decryption failed")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrEmptyArchive      = errors.New("zip archive is empty")
)

// Options controls decryption. An empty Key leaves the input as is.
type Options struct {
	Key       string
	Signature string
}

// Load reads path and unpacks it.
func Load(path string, opts Options) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Unpack(data, path, opts)
}

// Unpack decrypts data when a key is set and then unwraps gzip or zip.
// name only labels log records.
func Unpack(data []byte, name string, opts Options) ([]byte, error) {
	if opts.Key == "" && opts.Signature != "" {
		return nil, errors.New("a signature needs a key")
	}
	if opts.Key != "" {
		decrypted, err := Decrypt(data, opts.Key, opts.Signature)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", name, err)
		}
		slog.Debug("Decrypted input", "file", name, "size", len(data), "decrypted_size", len(decrypted))
		data = decrypted
	}

	out, err := Decompress(data, name)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", name, err)
	}
	return out, nil
}

// Decrypt reverses XXTEA with key. A signature is either prepended to the
// ciphertext or sits at the start of the plaintext; both forms are
// stripped.
func Decrypt(data []byte, key, signature string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecrypt)
	}

	sig := []byte(signature)
	if len(sig) > 0 && bytes.HasPrefix(data, sig) {
		slog.Debug("Stripping signature prefix", "signature", signature)
		return decrypt(data[len(sig):], key)
	}

	decrypted, err := decrypt(data, key)
	if err != nil {
		return nil, err
	}
	if len(sig) == 0 {
		return decrypted, nil
	}
	if !bytes.HasPrefix(decrypted, sig) {
		return nil, ErrSignatureMismatch
	}
	return decrypted[len(sig):], nil
}

func decrypt(data []byte, key string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: nothing after signature", ErrDecrypt)
	}
	out := xxtea.Decrypt(data, []byte(key))
	if out == nil {
		return nil, ErrDecrypt
	}
	return out, nil
}

// Decompress unwraps gzip data or the first entry of a zip archive. Other
// input is returned unchanged.
func Decompress(data []byte, name string) ([]byte, error) {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		slog.Debug("Detected gzip compression", "file", name)
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader creation failed: %w", err)
		}
		defer reader.Close()

		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip decompression failed: %w", err)
		}
		slog.Debug("Gzip decompression successful", "file", name,
			"original_size", len(data), "decompressed_size", len(out))
		return out, nil

	case len(data) >= 4 && data[0] == 'P' && data[1] == 'K':
		slog.Debug("Detected ZIP archive", "file", name)
		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("zip reader creation failed: %w", err)
		}
		if len(reader.File) == 0 {
			return nil, ErrEmptyArchive
		}

		file := reader.File[0]
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in zip: %w", file.Name, err)
		}
		defer rc.Close()

		out, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from zip: %w", file.Name, err)
		}
		slog.Debug("ZIP decompression successful", "file", name,
			"archive_file", file.Name,
			"original_size", len(data), "decompressed_size", len(out))
		return out, nil
	}
	return data, nil
}
