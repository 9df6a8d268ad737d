package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProvidersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProvidersConfig_EmptyPathUsesDefaults(t *testing.T) {
	config, err := LoadProvidersConfig("")
	require.NoError(t, err)

	enabled := config.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, ProviderNewsAPI, enabled[0].Kind)
	assert.Equal(t, "NEWS_API_KEY", enabled[0].APIKeyEnv)
	assert.Equal(t, ProviderGoogleNews, enabled[1].Kind)
}

func TestLoadProvidersConfig(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		errMsg   string
		validate func(*testing.T, *ProvidersConfig)
	}{
		{
			name: "custom order and options",
			yaml: `providers:
  - kind: googlenews
    hl: en-GB
    gl: GB
    ceid: "GB:en"
    max_items: 10
  - kind: newsapi
    api_key_env: MY_NEWS_KEY
    page_size: 10
    requests_per_second: 0.5
    timeout: 10s
`,
			validate: func(t *testing.T, c *ProvidersConfig) {
				enabled := c.Enabled()
				require.Len(t, enabled, 2)
				assert.Equal(t, ProviderGoogleNews, enabled[0].Kind)
				assert.Equal(t, "GB:en", enabled[0].CEID)
				assert.Equal(t, 10, enabled[0].MaxItems)
				assert.Equal(t, 10, enabled[1].PageSize)
				assert.Equal(t, 0.5, enabled[1].RequestsPerSecond)
				assert.Equal(t, 10*time.Second, enabled[1].Timeout)
			},
		},
		{
			name: "disabled provider is skipped",
			yaml: `providers:
  - kind: newsapi
    disabled: true
  - kind: googlenews
`,
			validate: func(t *testing.T, c *ProvidersConfig) {
				enabled := c.Enabled()
				require.Len(t, enabled, 1)
				assert.Equal(t, ProviderGoogleNews, enabled[0].Kind)
			},
		},
		{
			name:   "unknown kind",
			yaml:   "providers:\n  - kind: bing\n",
			errMsg: "unknown kind",
		},
		{
			name:   "missing kind",
			yaml:   "providers:\n  - language: en\n",
			errMsg: "kind is required",
		},
		{
			name:   "nothing enabled",
			yaml:   "providers:\n  - kind: newsapi\n    disabled: true\n",
			errMsg: "at least one provider",
		},
		{
			name:   "empty chain",
			yaml:   "providers: []\n",
			errMsg: "at least one provider",
		},
		{
			name:   "bad yaml",
			yaml:   "providers: [",
			errMsg: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadProvidersConfig(writeProvidersFile(t, tt.yaml))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			tt.validate(t, config)
		})
	}
}

func TestLoadProvidersConfig_MissingFile(t *testing.T) {
	_, err := LoadProvidersConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read providers file")
}

func TestProviderSpec_APIKey(t *testing.T) {
	t.Setenv("TEST_NEWS_KEY", "abc123")

	assert.Equal(t, "abc123", ProviderSpec{APIKeyEnv: "TEST_NEWS_KEY"}.APIKey())
	assert.Empty(t, ProviderSpec{}.APIKey())
}
