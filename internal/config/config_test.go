package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Thresholds, cfg.Thresholds)
	assert.Equal(t, DefaultEngagementWeights(), cfg.Engagement)
}

func TestLoadFrom_OverridesAndValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[thresholds]
session_gap_minutes = 45
similarity = 0.8

[pricing.models."claude-3-5-haiku"]
input_per_mtok = 1.0

[pricing.models."local-model"]
input_per_mtok = 0.1
output_per_mtok = 0.2
effective_from = "2025-01-01"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	th := cfg.ThresholdValues()
	assert.Equal(t, 45*time.Minute, th.SessionGap)
	assert.InDelta(t, 0.8, th.Similarity, 1e-12)

	pt := cfg.PriceTable()
	fast, ok := pt.Lookup(FastModel)
	require.True(t, ok)
	assert.InDelta(t, 1.0, fast.InputPerMTok, 1e-12)
	assert.InDelta(t, 4.0, fast.OutputPerMTok, 1e-12, "unset price falls back to default")

	local, ok := pt.Lookup("local-model")
	require.True(t, ok)
	assert.InDelta(t, 0.2, local.OutputPerMTok, 1e-12)
}

func TestLoadFrom_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[thresholds]
session_gap_minutes = 0
similarity = 1.5

[engagement]
video_cap = 50
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_gap_minutes")
	assert.Contains(t, err.Error(), "similarity")
	assert.Contains(t, err.Error(), "sum to 100")
}

func TestPriceTable_SkipsIncompleteUnknownOverride(t *testing.T) {
	in := 2.0
	cfg := DefaultConfig()
	cfg.Pricing.Models = map[string]ModelPricingOverride{
		"half-priced": {InputPerMTok: &in},
	}
	_, ok := cfg.PriceTable().Lookup("half-priced")
	assert.False(t, ok)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Creator = "creator-1"
	cfg.Engagement.ChatTarget = 30

	require.NoError(t, SaveTo(path, cfg))
	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "creator-1", got.General.Creator)
	assert.InDelta(t, 30.0, got.Engagement.ChatTarget, 1e-12)
}

func TestEngagementWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EngagementWeights)
		wantErr bool
	}{
		{"defaults", func(*EngagementWeights) {}, false},
		{"rebalanced", func(w *EngagementWeights) { w.VideoCap, w.LoginCap = 40, 10 }, false},
		{"negative cap", func(w *EngagementWeights) { w.VideoCap, w.ChatCap = -5, 60 }, true},
		{"sum off", func(w *EngagementWeights) { w.LoginCap = 10 }, true},
		{"zero chat target", func(w *EngagementWeights) { w.ChatTarget = 0 }, true},
		{"negative login target", func(w *EngagementWeights) { w.LoginTarget = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultEngagementWeights()
			tt.mutate(&w)
			err := w.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDBPath_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DBPath = "/from/config.db"

	t.Setenv("CPULSE_DB", "/from/env.db")
	assert.Equal(t, "/from/env.db", DBPath(cfg))

	t.Setenv("CPULSE_DB", "")
	assert.Equal(t, "/from/config.db", DBPath(cfg))

	t.Setenv("XDG_DATA_HOME", "/xdg")
	cfg.General.DBPath = ""
	assert.Equal(t, filepath.Join("/xdg", "cpulse", "cpulse.db"), DBPath(cfg))
}

func TestAliasTable(t *testing.T) {
	c := DefaultConfig().Clustering
	assert.Equal(t, "how to", c.AliasTable()["how do i"])
	c.NoAliases = true
	assert.Nil(t, c.AliasTable())
}

func TestLoadFrom_AliasesReplaceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[clustering.aliases]
"how can i" = "how to"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"how can i": "how to"}, cfg.Clustering.AliasTable())

	require.NoError(t, os.WriteFile(path, []byte("[thresholds]\nsimilarity = 0.8\n"), 0o600))
	cfg, err = LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAliases(), cfg.Clustering.Aliases, "unset table keeps defaults")
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTo(path, DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	cfg := DefaultConfig()
	cfg.Thresholds.Similarity = 0.9
	require.NoError(t, SaveTo(path, cfg))

	select {
	case c := <-got:
		assert.InDelta(t, 0.9, c.Thresholds.Similarity, 1e-12)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}

	cancel()
	require.NoError(t, <-done)
}
