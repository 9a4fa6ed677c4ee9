package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/storage"
)

func newConfigCmd() *cobra.Command {
	preset, configFile = "", ""
	cmd := &cobra.Command{Use: "test"}
	configFlags(cmd)
	return cmd
}

func TestResolveConfig_Defaults(t *testing.T) {
	cmd := newConfigCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Embedding.M)
	assert.False(t, cfg.Calibration.Fixed)
}

func TestResolveConfig_FlagsOverridePreset(t *testing.T) {
	cmd := newConfigCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--preset", "paleo", "--m", "4", "--tau", "2", "--epsilon", "0.3"}))

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Embedding.M)
	assert.Equal(t, 2, cfg.Embedding.Tau)
	assert.False(t, cfg.Embedding.AutoTau, "explicit tau disables the search")
	assert.True(t, cfg.Embedding.InvertTime, "preset value kept")
	assert.True(t, cfg.Calibration.Fixed)
	assert.Equal(t, 0.3, cfg.Calibration.Epsilon)
}

func TestResolveConfig_UnknownPreset(t *testing.T) {
	cmd := newConfigCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--preset", "nope"}))

	_, err := resolveConfig(cmd)
	assert.ErrorContains(t, err, "unknown preset")
}

func TestResolveConfig_Invalid(t *testing.T) {
	cmd := newConfigCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--window", "0"}))

	_, err := resolveConfig(cmd)
	assert.Error(t, err)
}

func TestWriteSeries_RoundTrip(t *testing.T) {
	s := dynamo.Indexed([]float64{0.5, -1.25, 3})

	var buf bytes.Buffer
	require.NoError(t, writeSeries(&buf, s))
	assert.True(t, strings.HasPrefix(buf.String(), "time,value\n"))

	got, err := storage.LoadCSVFromReader(&buf, storage.DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, s.Values, got.Values)
	assert.Equal(t, s.Time, got.Time)
}
