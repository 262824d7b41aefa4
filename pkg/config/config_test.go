package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port      int      `env:"SAMPLE_CFG_PORT" envDefault:"3000"`
	Store     string   `env:"SAMPLE_CFG_STORE" envDefault:"memory"`
	Seed      bool     `env:"SAMPLE_CFG_SEED" envDefault:"true"`
	Brokers   []string `env:"SAMPLE_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	SecretKey string   `env:"SAMPLE_CFG_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SAMPLE_CFG_SECRET", "s3cret")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
	assert.True(t, cfg.Seed)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SAMPLE_CFG_SECRET", "s3cret")
	t.Setenv("SAMPLE_CFG_PORT", "8080")
	t.Setenv("SAMPLE_CFG_STORE", "redis")
	t.Setenv("SAMPLE_CFG_SEED", "false")
	t.Setenv("SAMPLE_CFG_BROKERS", "k1:9092,k2:9092")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "redis", cfg.Store)
	assert.False(t, cfg.Seed)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg sampleConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_BadInteger(t *testing.T) {
	t.Setenv("SAMPLE_CFG_SECRET", "s3cret")
	t.Setenv("SAMPLE_CFG_PORT", "three-thousand")

	var cfg sampleConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
