package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultPort, cfg.Server.Port)

	vision, err := cfg.Selected("VLLLM")
	require.NoError(t, err)
	assert.Equal(t, "openai", vision.Type)
	assert.Equal(t, DefaultVisionTokens, vision.MaxTokens)

	routine, err := cfg.Selected("LLM")
	require.NoError(t, err)
	assert.Equal(t, DefaultRoutineTokens, routine.MaxTokens)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "port override",
			env:  map[string]string{"PORT": "8080"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "port unset keeps default",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPort, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"PORT": "http"},
			wantErr: true,
		},
		{
			name: "api key fills openai entries",
			env:  map[string]string{"OPENAI_API_KEY": "sk-test"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-test", cfg.VLLLM["openai"].APIKey)
				assert.Equal(t, "sk-test", cfg.LLM["openai"].APIKey)
			},
		},
		{
			name: "log overrides",
			env:  map[string]string{"LOG_LEVEL": "debug", "LOG_FORMAT": "json"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Log.LogLevel)
				assert.Equal(t, "json", cfg.Log.LogFormat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(envMap(tt.env))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnv_KeepsExplicitKey(t *testing.T) {
	cfg := Default()
	entry := cfg.LLM["openai"]
	entry.APIKey = "from-file"
	cfg.LLM["openai"] = entry
	cfg.LLM["local"] = LLMConfig{Type: "ollama", ModelName: "llama3"}

	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"OPENAI_API_KEY": "from-env"})))

	assert.Equal(t, "from-file", cfg.LLM["openai"].APIKey)
	assert.Equal(t, "from-env", cfg.VLLLM["openai"].APIKey)
	assert.Empty(t, cfg.LLM["local"].APIKey)
}

func TestParse(t *testing.T) {
	data := []byte(`
server:
  port: 9000
  upstream_timeout: 45s
log:
  log_level: warn
selected_module:
  VLLLM: local
VLLLM:
  local:
    type: ollama
    model_name: llava
    url: http://localhost:11434
    max_tokens: 300
`)

	cfg := Default()
	require.NoError(t, Parse(data, cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.UpstreamTimeout)
	assert.Equal(t, "warn", cfg.Log.LogLevel)
	assert.Equal(t, "text", cfg.Log.LogFormat)

	vision, err := cfg.Selected("VLLLM")
	require.NoError(t, err)
	assert.Equal(t, "ollama", vision.Type)
	assert.Equal(t, "llava", vision.ModelName)
	assert.Equal(t, 300, vision.MaxTokens)

	// The routine section was not touched by the file.
	routine, err := cfg.Selected("LLM")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", routine.ModelName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"port out of range", func(cfg *Config) { cfg.Server.Port = 70000 }},
		{"negative timeout", func(cfg *Config) { cfg.Server.UpstreamTimeout = -time.Second }},
		{"bad log level", func(cfg *Config) { cfg.Log.LogLevel = "verbose" }},
		{"bad log format", func(cfg *Config) { cfg.Log.LogFormat = "xml" }},
		{"no vision module", func(cfg *Config) { delete(cfg.SelectedModule, "VLLLM") }},
		{"unknown routine provider", func(cfg *Config) { cfg.SelectedModule["LLM"] = "missing" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSelected_TypeDefaultsToName(t *testing.T) {
	cfg := Default()
	cfg.LLM["ollama"] = LLMConfig{ModelName: "llama3"}
	cfg.SelectedModule["LLM"] = "ollama"

	entry, err := cfg.Selected("LLM")
	require.NoError(t, err)
	assert.Equal(t, "ollama", entry.Type)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "")

	t.Run("no file uses defaults", func(t *testing.T) {
		cfg, path, err := LoadConfig()
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, DefaultPort, cfg.Server.Port)
	})

	t.Run("dot file wins", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 7000\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".config.yaml"), []byte("server:\n  port: 7001\n"), 0o644))

		cfg, path, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, ".config.yaml", path)
		assert.Equal(t, 7001, cfg.Server.Port)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("PORT", "7002")

		cfg, _, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 7002, cfg.Server.Port)
	})
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		loaded, err := LoadEnvFile()
		require.NoError(t, err)
		assert.False(t, loaded)
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CURLWISE_TEST_VALUE=from-dotenv\n"), 0o644))

	t.Run("production skips", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("CURLWISE_TEST_VALUE", "")
		loaded, err := LoadEnvFile()
		require.NoError(t, err)
		assert.False(t, loaded)
		assert.Empty(t, os.Getenv("CURLWISE_TEST_VALUE"))
	})

	t.Run("development loads", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("CURLWISE_TEST_VALUE", "")
		os.Unsetenv("CURLWISE_TEST_VALUE")
		loaded, err := LoadEnvFile()
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Equal(t, "from-dotenv", os.Getenv("CURLWISE_TEST_VALUE"))
	})
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
