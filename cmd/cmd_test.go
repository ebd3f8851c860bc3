package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/parob/graphql-api/api"
)

// run executes the root command with args and returns what it printed.
// Flag values and the values read from a config file survive between
// executions of the command tree, so both are reset first.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	queryCmd.Flags().VisitAll(reset)
	schemaCmd.Flags().VisitAll(reset)
	cfgFile = ""
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("")))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func describe(t *testing.T, out string) api.SchemaDescription {
	t.Helper()
	var d api.SchemaDescription
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	return d
}

func findType(d api.SchemaDescription, name string) (api.TypeDescription, bool) {
	for _, td := range d.Types {
		if td.Name == name {
			return td, true
		}
	}
	return api.TypeDescription{}, false
}

func fieldNames(td api.TypeDescription) []string {
	out := make([]string, 0, len(td.Fields))
	for _, f := range td.Fields {
		out = append(out, f.Name)
	}
	return out
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "", "schema", "--log-level", "error")
	require.NoError(t, err)

	d := describe(t, out)
	assert.Equal(t, "Library", d.Query)
	assert.Equal(t, "LibraryMutable", d.Mutation)

	library, ok := findType(d, "Library")
	require.True(t, ok)
	assert.Equal(t, "OBJECT", library.Kind)
	assert.Equal(t, []string{"book", "books", "name", "stats"}, fieldNames(library))

	genre, ok := findType(d, "GenreEnum")
	require.True(t, ok)
	assert.Equal(t, "ENUM", genre.Kind)
	assert.ElementsMatch(t, []string{"FICTION", "SCIENCE", "HISTORY"}, genre.Values)

	input, ok := findType(d, "NewBookMutableInput")
	require.True(t, ok)
	assert.Equal(t, "INPUT_OBJECT", input.Kind)
}

func TestSchemaCommand_ConfigFlags(t *testing.T) {
	out, err := run(t, "", "schema",
		"--log-level", "error",
		"--filter-tags", "internal, admin",
		"--enum-suffix", "Kind",
	)
	require.NoError(t, err)

	d := describe(t, out)
	library, ok := findType(d, "Library")
	require.True(t, ok)
	assert.NotContains(t, fieldNames(library), "stats")

	_, ok = findType(d, "GenreKind")
	assert.True(t, ok)
	_, ok = findType(d, "GenreEnum")
	assert.False(t, ok)
}

func TestSchemaCommand_YAML(t *testing.T) {
	out, err := run(t, "", "schema", "--log-level", "error", "--output", "yaml")
	require.NoError(t, err)

	var d api.SchemaDescription
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, "Library", d.Query)
	assert.NotEmpty(t, d.Types)
}

func TestSchemaCommand_ConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log-level: error\ninput-suffix: Args\n"), 0o600))

	out, err := run(t, "", "schema", "--config", file)
	require.NoError(t, err)

	_, ok := findType(describe(t, out), "NewBookMutableArgs")
	assert.True(t, ok)
}

func TestSchemaCommand_WatchNeedsConfig(t *testing.T) {
	_, err := run(t, "", "schema", "--log-level", "error", "--watch")
	assert.ErrorContains(t, err, "--watch requires --config")
}

func TestQueryCommand(t *testing.T) {
	out, err := run(t, "", "query", "--log-level", "error", `{ books(genre: HISTORY) { title pages } }`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": {"books": [{"title": "SPQR", "pages": 608}]}}`, out)
}

func TestQueryCommand_StdinAndVariables(t *testing.T) {
	document := `query Named($genre: GenreEnum) { books(genre: $genre) { title } }`
	out, err := run(t, document, "query",
		"--log-level", "error",
		"--variables", `{"genre": "FICTION"}`,
		"--operation", "Named",
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": {"books": [{"title": "Dune"}]}}`, out)
}

func TestQueryCommand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "empty document", args: []string{"query", "--log-level", "error"}},
		{name: "bad variables", args: []string{"query", "--log-level", "error", "--variables", "{", "{ name }"}},
		{name: "bad output", args: []string{"query", "--output", "xml", "{ name }"}},
		{name: "bad log level", args: []string{"query", "--log-level", "loud", "{ name }"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.stdin, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestQueryCommand_ResultErrors(t *testing.T) {
	out, err := run(t, "", "query", "--log-level", "error", `{ missing }`)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res["errors"])
}
