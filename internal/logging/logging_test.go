package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"defaults", "info", "json", false},
		{"console", "debug", "console", false},
		{"bad level", "shouty", "json", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Level: tt.level, Format: tt.format}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New(&Config{Level: "debug", Format: "console"}, nil)

	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("constructed")
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	logger, err := New(nil, nil)

	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{Level: "nope", Format: "json"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging config")
}
