package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const units = `
units:
  - name: count
    blocks:
      - exit: {kind: condjump, test: "i < n", "true": 1, "false": 2}
      - instrs: ["i++"]
        exit: {kind: jump, target: 0}
      - exit: {kind: return}
  - name: broken
    blocks:
      - exit: {kind: jump}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestText(t *testing.T) {
	path := writeFile(t, "units.yaml", units)
	stdout, stderr, err := execute(t, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 units failed")
	assert.Contains(t, stdout, "# count")
	assert.Contains(t, stdout, "while")
	assert.Contains(t, stderr, "broken")
}

func TestJSONOutput(t *testing.T) {
	path := writeFile(t, "units.yaml", units)
	stdout, _, err := execute(t, "-o", "json", "--workers", "1", path)
	require.Error(t, err)
	assert.Contains(t, stdout, `"kind": "while"`)
	assert.Contains(t, stdout, `"name": "broken"`)
	assert.Contains(t, stdout, "needs target")
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "units.yaml", units)
	dir := t.TempDir()
	conf := writeFile(t, "cfgstruct.yaml", "output: yaml\ndot: "+dir+"\n")
	stdout, _, err := execute(t, "-c", conf, path)
	require.Error(t, err)
	assert.Contains(t, stdout, "kind: while")
	_, err = os.Stat(filepath.Join(dir, "count.dot"))
	assert.NoError(t, err)
}

func TestBadInput(t *testing.T) {
	path := writeFile(t, "units.txt", units)
	_, _, err := execute(t, path)
	assert.Error(t, err)
	_, _, err = execute(t, "--input", "yaml", path)
	assert.Error(t, err, "broken unit still fails")
	_, _, err = execute(t)
	assert.Error(t, err, "needs a file")
}
