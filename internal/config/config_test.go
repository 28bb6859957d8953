package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.True(t, bool(cfg.Index.IfAddNodeID))
	assert.False(t, bool(cfg.Index.IfAddNodeSummary))
	assert.False(t, bool(cfg.Index.IfAddNodeText))
	assert.Equal(t, 5000, cfg.Index.ThinningThreshold)
	assert.Equal(t, 200, cfg.Index.SummaryTokenThreshold)
	assert.Equal(t, "./results", cfg.OutputDir)
	assert.True(t, cfg.Store.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Index, cfg.Index)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	content := `
model: gemini-2.5-pro
index:
  if_add_node_id: no
  if_add_node_text: yes
  if_thinning: true
  thinning_threshold: 1200
output_dir: out
store:
  enabled: false
logging:
  level: debug
  categories:
    parse: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.False(t, bool(cfg.Index.IfAddNodeID))
	assert.True(t, bool(cfg.Index.IfAddNodeText))
	assert.True(t, bool(cfg.Index.IfThinning))
	assert.Equal(t, 1200, cfg.Index.ThinningThreshold)
	// untouched keys keep their defaults
	assert.Equal(t, 200, cfg.Index.SummaryTokenThreshold)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, map[string]bool{"parse": false}, cfg.LoggerConfig().Categories)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"bad yes/no":    "index:\n  if_add_node_text: maybe\n",
		"negative":      "index:\n  thinning_threshold: -1\n",
		"bad level":     "logging:\n  level: loud\n",
		"bad debounce":  "watch:\n  debounce: soon\n",
		"not yaml":      "index: [unterminated\n",
		"zero parallel": "index:\n  summary_concurrency: 0\n",
		"bad category":  "logging:\n  categories:\n    parser: false\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.IfAddNodeSummary = true
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)

	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `if_add_node_summary: "?yes"?`, string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Index, loaded.Index)
}

func TestYesNo(t *testing.T) {
	for _, in := range []string{"yes", "YES", "y", "true"} {
		v, err := ParseYesNo(in)
		require.NoError(t, err)
		assert.True(t, bool(v), in)
	}
	for _, in := range []string{"no", "N", "false"} {
		v, err := ParseYesNo(in)
		require.NoError(t, err)
		assert.False(t, bool(v), in)
	}
	_, err := ParseYesNo("sometimes")
	assert.Error(t, err)

	var target struct {
		V YesNo `yaml:"v"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("v: [yes]\n"), &target))
}

func TestDebounceDuration(t *testing.T) {
	d, err := WatchConfig{}.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	d, err = WatchConfig{Debounce: "2s"}.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	_, err = WatchConfig{Debounce: "-1s"}.DebounceDuration()
	assert.Error(t, err)
}

func TestYesNoFlagValue(t *testing.T) {
	var v YesNo
	require.NoError(t, v.Set("YES"))
	assert.True(t, bool(v))
	assert.Equal(t, "yes", v.String())
	assert.Equal(t, "yes|no", v.Type())
	assert.Error(t, v.Set("perhaps"))
	assert.True(t, bool(v), "failed Set leaves the value unchanged")
}
