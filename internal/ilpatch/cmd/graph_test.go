package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ilpatch/internal/logging"
	"ilpatch/internal/unpack"
)

func TestRunGraph(t *testing.T) {
	path := writeSample(t)
	dir := t.TempDir()

	var logs bytes.Buffer
	res, err := runGraph(logging.NewWithWriter(&logs), path, dir, nil, unpack.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "cfg", "method_01.dot")}, res.CFGs)
	assert.FileExists(t, filepath.Join(dir, "callgraph.dot"))
	assert.Contains(t, logs.String(), "Wrote call graph")
	assert.Contains(t, logs.String(), "edges=1")
}

func TestRunGraph_Selection(t *testing.T) {
	path := writeSample(t)

	res, err := runGraph(logging.NewWithWriter(&bytes.Buffer{}), path, t.TempDir(), []int{0}, unpack.Options{})
	require.NoError(t, err)
	assert.Empty(t, res.CFGs, "method 0 is a single block")
	assert.Equal(t, 1, res.Nodes)
	assert.Zero(t, res.Edges)

	_, err = runGraph(logging.NewWithWriter(&bytes.Buffer{}), path, t.TempDir(), []int{5}, unpack.Options{})
	assert.Error(t, err)
}
