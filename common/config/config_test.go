package config

import (
	"testing"

	openmfpconfig "github.com/platform-mesh/golang-commons/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// load binds a fresh Config to a command, runs it with args and decodes
// the result.
func load(t *testing.T, args ...string) Config {
	t.Helper()
	v := viper.New()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}

	var cfg Config
	require.NoError(t, openmfpconfig.BindConfigToFlags(v, cmd, &cfg))
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestBindConfigToFlags_Defaults(t *testing.T) {
	cfg := load(t)

	assert.Equal(t, OutputJSON, cfg.Output)
	assert.True(t, cfg.ErrorProtection)
	assert.Zero(t, cfg.MaxDescriptionLength)
	assert.Empty(t, cfg.FilterTags)
	assert.Empty(t, cfg.Tags())

	assert.Equal(t, "Enum", cfg.EnumSuffix)
	assert.Equal(t, "Interface", cfg.InterfaceSuffix)
	assert.Equal(t, "Input", cfg.InputSuffix)
}

func TestBindConfigToFlags_Flags(t *testing.T) {
	cfg := load(t,
		"--output=yaml",
		"--error-protection=false",
		"--max-description-length=40",
		"--filter-tags=internal,admin",
		"--enum-suffix=Kind",
	)

	assert.Equal(t, OutputYAML, cfg.Output)
	assert.False(t, cfg.ErrorProtection)
	assert.Equal(t, 40, cfg.MaxDescriptionLength)
	assert.Equal(t, []string{"internal", "admin"}, cfg.Tags())
	assert.Equal(t, "Kind", cfg.EnumSuffix)
}

func TestTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "internal", want: []string{"internal"}},
		{in: " internal , admin ", want: []string{"internal", "admin"}},
		{in: "a,,b,", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Config{FilterTags: tt.in}.Tags())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{name: "json", output: OutputJSON},
		{name: "yaml", output: OutputYAML},
		{name: "xml", output: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{Output: tt.output}.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
