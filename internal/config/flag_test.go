package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-r", "pgx", "-d", "postgres://localhost/vault", "-l", "debug", "-f", "json", "-i", "5"},
			expected: &Config{DatabaseDriver: "pgx", DatabaseDSN: "postgres://localhost/vault", LogLevel: "debug", LogFormat: "json", IdleTimeout: 5 * time.Minute}},
		{name: "Test2 config flag is ignored", args: []string{"cmd", "-c", "cfg.json", "-d", "v.db"},
			expected: &Config{DatabaseDSN: "v.db", IdleTimeout: 90 * time.Second}},
		{name: "Test3 incorrect idle timeout", args: []string{"cmd", "-i", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{IdleTimeout: 90 * time.Second}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
