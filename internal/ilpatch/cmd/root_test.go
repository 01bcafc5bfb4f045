package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxtea/xxtea-go/xxtea"

	"ilpatch/internal/patch"
	"ilpatch/internal/patch/patchtest"
	"ilpatch/internal/unpack"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patch.bytes")
	require.NoError(t, os.WriteFile(path, patchtest.Encode(patchtest.Sample()), 0o644))
	return path
}

func dump(t *testing.T, path string, cfg Config) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, runDump(&buf, path, cfg, terminal{}))
	return buf.String()
}

func TestRunDump_AllViews(t *testing.T) {
	out := dump(t, writeSample(t), Config{})

	summary := strings.Index(out, " IFix Patch Summary ")
	tables := strings.Index(out, " [1] Header Info ")
	code := strings.Index(out, ".method 00 (Patches Game.Player::Heal)")
	require.True(t, summary >= 0 && tables >= 0 && code >= 0, out)
	assert.Less(t, summary, tables)
	assert.Less(t, tables, code)
}

func TestRunDump_Selection(t *testing.T) {
	path := writeSample(t)

	t.Run("summary only", func(t *testing.T) {
		out := dump(t, path, Config{Summary: true})
		assert.Contains(t, out, "Counts:     6 Types, 3 Methods, 2 Fixes")
		assert.NotContains(t, out, ".method")
	})

	t.Run("method implies disassembly", func(t *testing.T) {
		out := dump(t, path, Config{Methods: []int{1}})
		assert.Contains(t, out, ".method 01 (Patches Game.Player::Greet)")
		assert.NotContains(t, out, ".method 00")
		assert.NotContains(t, out, "IFix Patch Summary")
	})

	t.Run("out of range method", func(t *testing.T) {
		out := dump(t, path, Config{Methods: []int{9}})
		assert.NotContains(t, out, ".method")
	})

	t.Run("raw", func(t *testing.T) {
		out := dump(t, path, Config{Disasm: true, Raw: true})
		assert.Contains(t, out, "[67 00000000] ret")
	})
}

func TestRunDump_JSON(t *testing.T) {
	out := dump(t, writeSample(t), Config{JSON: true})

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "0x4946495850415443", doc["magic"])
	assert.Len(t, doc["methods"], 2)
}

func TestRunDump_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.bytes")
	sealed := append([]byte("XXTEA"), xxtea.Encrypt(patchtest.Encode(patchtest.Sample()), []byte("k3y"))...)
	require.NoError(t, os.WriteFile(path, sealed, 0o644))

	out := dump(t, path, Config{Summary: true, Key: "k3y", Signature: "XXTEA"})
	assert.Contains(t, out, "Bridge:     IFix.ILFixInterfaceBridge")

	var buf bytes.Buffer
	err := runDump(&buf, path, Config{Summary: true, Key: "wrong", Signature: "XXTEA"}, terminal{})
	assert.ErrorIs(t, err, unpack.ErrDecrypt)
}

func TestRunDump_Truncated(t *testing.T) {
	data := patchtest.Encode(patchtest.Sample())
	path := filepath.Join(t.TempDir(), "short.bytes")
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

	var buf bytes.Buffer
	err := runDump(&buf, path, Config{}, terminal{})
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrTruncated)
	assert.Contains(t, err.Error(), "short.bytes")
	assert.Empty(t, buf.String(), "no partial output")
}

func TestRootCommand(t *testing.T) {
	path := writeSample(t)

	var buf bytes.Buffer
	rootCmd.SetArgs([]string{"--no-color", "-s", path})
	rootCmd.SetOut(&buf)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Magic:      0x4946495850415443")
}

func TestSchema(t *testing.T) {
	doc, err := schema(false)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "fix_infos")

	cfg, err := schema(true)
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "XXTEA key of an encrypted patch")
}
