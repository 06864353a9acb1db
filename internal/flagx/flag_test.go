package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-d", "vault.db"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-d", "vault.db"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "both short and long present, preserve order",
			args:         []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c"},
		},
		{
			name:         "flag followed by another flag (no value)",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c"},
		},
		{
			name:         "value that looks like a flag but with equals form",
			args:         []string{"--config=--weird.json"},
			allowedFlags: []string{"--config"},
			want:         []string{"--config=--weird.json"},
		},
		{
			name:         "multiple allowed flags kept",
			args:         []string{"-d", "data/vault.db", "-c", "conf.json", "--other", "x"},
			allowedFlags: []string{"-c", "-d"},
			want:         []string{"-d", "data/vault.db", "-c", "conf.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "path with spaces remains single arg",
			args:         []string{"-c", "/home/user/cryptify.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "/home/user/cryptify.json"},
		},
		{
			name:         "do not treat next dash-starting token as value",
			args:         []string{"-c", "--config=alt.json"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "--config=alt.json"},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with equals", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-config=/path/long.json"}))
	})

	t.Run("other flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-d", "vault.db", "-l", "debug"}))
	})

	t.Run("mixed with other flags", func(t *testing.T) {
		assert.Equal(t, "c.json", ConfigPath([]string{"-d", "vault.db", "-c", "c.json", "-i", "5"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})

	t.Run("flag without value", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-c"}))
	})
}
