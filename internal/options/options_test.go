package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type windowConfig struct {
	maxMinutes int
	dir        string
}

func withMaxMinutes(m int) Option[*windowConfig] {
	return New(func(c *windowConfig) error {
		if m <= 0 {
			return errors.New("max window must be positive")
		}
		c.maxMinutes = m

		return nil
	})
}

func withDir(dir string) Option[*windowConfig] {
	return NoError(func(c *windowConfig) {
		c.dir = dir
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &windowConfig{}
		err := Apply(cfg, withMaxMinutes(30), withDir("/data/diagnostic.data"), withMaxMinutes(60))
		require.NoError(t, err)
		require.Equal(t, 60, cfg.maxMinutes)
		require.Equal(t, "/data/diagnostic.data", cfg.dir)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &windowConfig{}
		err := Apply(cfg, withMaxMinutes(0), withDir("ignored"))
		require.Error(t, err)
		require.Empty(t, cfg.dir)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &windowConfig{}
		err := Apply(cfg, nil, withDir("d"))
		require.NoError(t, err)
		require.Equal(t, "d", cfg.dir)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &windowConfig{maxMinutes: 5}
		require.NoError(t, Apply[*windowConfig](cfg))
		require.Equal(t, 5, cfg.maxMinutes)
	})
}
