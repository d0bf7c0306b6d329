package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetCLIState(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
		debug = false
	})
}

func TestInitConfig_ConfigFlagLoadsFile(t *testing.T) {
	resetCLIState(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  max_depth: 9\n"), 0o600))

	// Execute parses flags before initConfig; mirror that order here.
	require.NoError(t, rootCmd.ParseFlags([]string{"--config", path}))
	require.NoError(t, initConfig())

	assert.Equal(t, path, viper.ConfigFileUsed())
	assert.Equal(t, 9, viper.GetInt("crawl.max_depth"))
}

func TestInitConfig_DebugFlagRaisesLevel(t *testing.T) {
	resetCLIState(t)

	require.NoError(t, rootCmd.ParseFlags([]string{"--debug"}))
	require.NoError(t, initConfig())

	assert.Equal(t, "debug", viper.GetString("log.level"))
	assert.True(t, viper.GetBool("log.development"))
}

func TestInitConfig_NoConfigFileFallsBackToDefaults(t *testing.T) {
	resetCLIState(t)

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	require.NoError(t, initConfig())

	assert.Equal(t, 3, viper.GetInt("crawl.max_depth"))
	assert.Equal(t, "info", viper.GetString("log.level"))
}
