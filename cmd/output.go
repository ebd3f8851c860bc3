package cmd

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/parob/graphql-api/common/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// render writes v to w in the configured output format. YAML output goes
// through JSON first so json tags and custom marshalers apply.
func render(w io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode output")
	}

	if format != config.OutputYAML {
		_, err = w.Write(append(raw, '\n'))
		return err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return errors.Wrap(err, "failed to decode output")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return errors.Wrap(err, "failed to encode yaml output")
	}
	return enc.Close()
}
