package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("all flags", func(t *testing.T) {
		var out bytes.Buffer
		cfg, done, err := Parse([]string{
			"-config", "./infra",
			"-state", "state.json",
			"-var", "region=us-east-1",
			"-var", "instance_count=3",
			"-log-format", "json",
			"-log-level", "debug",
			"-workers", "4",
		}, &out)
		require.NoError(t, err)
		require.False(t, done)

		assert.Equal(t, "./infra", cfg.ConfigPath)
		assert.Equal(t, "state.json", cfg.StatePath)
		assert.Equal(t, map[string]string{
			"region":         "us-east-1",
			"instance_count": "3",
		}, cfg.Vars)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("positional config path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, done, err := Parse([]string{"./main.hcl"}, &out)
		require.NoError(t, err)
		require.False(t, done)
		assert.Equal(t, "./main.hcl", cfg.ConfigPath)
	})

	t.Run("defaults", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"./main.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 10, cfg.Workers)
		assert.Empty(t, cfg.StatePath)
		assert.Empty(t, cfg.Vars)
	})

	t.Run("no path prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, done, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("help exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, done, err := Parse([]string{"-h"}, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
	})

	t.Run("unknown flag is an exit error", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-bogus"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("malformed var is an exit error", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-var", "novalue", "./main.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
	})
}

func TestVarFlagsSet(t *testing.T) {
	vars := make(varFlags)
	require.NoError(t, vars.Set("a=1"))
	require.NoError(t, vars.Set("b=x=y"))
	assert.Equal(t, varFlags{"a": "1", "b": "x=y"}, vars)

	assert.Error(t, vars.Set("noequals"))
	assert.Error(t, vars.Set("=value"))
}
