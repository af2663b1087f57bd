package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDefaultNetwork(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-epochs", "20", "-examples", "64", "-report-every", "2", "-workers", "1"}, &out)
	require.NoError(t, err)

	log := out.String()
	assert.Contains(t, log, "dataset ready")
	assert.Contains(t, log, "epoch=10")
	assert.Contains(t, log, "epoch=20")
	assert.Contains(t, log, "training done")
	assert.Contains(t, log, "accuracy=")
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := run(ctx, []string{"-epochs", "100", "-examples", "32", "-report-every", "100"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "training interrupted")
	assert.Contains(t, out.String(), "epochs=1 ")
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	yaml := "epochs: 5\ninput_size: 2\nloss:\n  kind: bce\n  from_logits: true\nlayers:\n  - units: 4\n    activation: relu\n  - units: 1\n    activation: linear\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", path, "-examples", "40"}, &out))
	assert.Contains(t, out.String(), "epochs=5")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, &out))
	assert.Error(t, run(context.Background(), []string{"-bogus"}, &out))

	path := filepath.Join(t.TempDir(), "wide.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_size: 3\nepochs: 1\n"), 0o600))
	assert.Error(t, run(context.Background(), []string{"-config", path}, &out))
}
