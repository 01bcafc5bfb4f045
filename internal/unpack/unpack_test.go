package unpack

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxtea/xxtea-go/xxtea"

	"ilpatch/internal/patch"
	"ilpatch/internal/patch/patchtest"
)

const testKey = "ifix-test-key"

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecrypt(t *testing.T) {
	plain := []byte("patch bytes")

	t.Run("no signature", func(t *testing.T) {
		out, err := Decrypt(xxtea.Encrypt(plain, []byte(testKey)), testKey, "")
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("signature before ciphertext", func(t *testing.T) {
		data := append([]byte("XXTEA"), xxtea.Encrypt(plain, []byte(testKey))...)
		out, err := Decrypt(data, testKey, "XXTEA")
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("signature inside plaintext", func(t *testing.T) {
		data := xxtea.Encrypt(append([]byte("XXTEA"), plain...), []byte(testKey))
		out, err := Decrypt(data, testKey, "XXTEA")
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("signature missing", func(t *testing.T) {
		data := xxtea.Encrypt(plain, []byte(testKey))
		_, err := Decrypt(data, testKey, "XXTEA")
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("wrong key", func(t *testing.T) {
		data := xxtea.Encrypt(plain, []byte(testKey))
		_, err := Decrypt(data, "another-key", "")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decrypt(nil, testKey, "")
		assert.ErrorIs(t, err, ErrDecrypt)
		_, err = Decrypt([]byte("SIG"), testKey, "SIG")
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestDecompress(t *testing.T) {
	payload := patchtest.Encode(patchtest.Sample())

	tests := []struct {
		name string
		data []byte
	}{
		{"plain", payload},
		{"gzip", gzipped(t, payload)},
		{"zip", zipped(t, map[string][]byte{"patch.bytes": payload})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Decompress(tc.data, tc.name)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}

	t.Run("short input", func(t *testing.T) {
		out, err := Decompress([]byte{0x1f}, "short")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x1f}, out)
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		_, err := Decompress([]byte{0x1f, 0x8b, 0x00, 0x00}, "corrupt")
		assert.Error(t, err)
	})

	t.Run("empty zip", func(t *testing.T) {
		_, err := Decompress(zipped(t, nil), "empty")
		assert.ErrorIs(t, err, ErrEmptyArchive)
	})
}

func TestLoad(t *testing.T) {
	c := patchtest.Sample()
	payload := patchtest.Encode(c)
	dir := t.TempDir()

	path := filepath.Join(dir, "patch.bytes")
	sealed := append([]byte("SIG!"), xxtea.Encrypt(gzipped(t, payload), []byte(testKey))...)
	require.NoError(t, os.WriteFile(path, sealed, 0o644))

	data, err := Load(path, Options{Key: testKey, Signature: "SIG!"})
	require.NoError(t, err)

	parsed, err := patch.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, c.BridgeName, parsed.BridgeName)
	assert.Len(t, parsed.Methods, len(c.Methods))

	t.Run("plain file", func(t *testing.T) {
		plainPath := filepath.Join(dir, "plain.bytes")
		require.NoError(t, os.WriteFile(plainPath, payload, 0o644))
		data, err := Load(plainPath, Options{})
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing"), Options{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("signature without key", func(t *testing.T) {
		_, err := Load(path, Options{Signature: "SIG!"})
		assert.Error(t, err)
	})
}
