package config

import (
	"fmt"
	"strings"
)

const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds the settings of the schema and query commands. The log
// level comes from the common service config.
type Config struct {
	Output string `mapstructure:"output" default:"json" description:"output format (json or yaml)"`

	ErrorProtection      bool   `mapstructure:"error-protection" default:"true" description:"keep resolver errors in the result instead of failing"`
	MaxDescriptionLength int    `mapstructure:"max-description-length" default:"0" description:"cap descriptions at this many characters, 0 disables"`
	FilterTags           string `mapstructure:"filter-tags" default:"" description:"comma separated tags, query fields carrying one are removed"`

	EnumSuffix      string `mapstructure:"enum-suffix" default:"Enum" description:"suffix of enum type names"`
	InterfaceSuffix string `mapstructure:"interface-suffix" default:"Interface" description:"suffix of interface type names"`
	InputSuffix     string `mapstructure:"input-suffix" default:"Input" description:"suffix of input type names"`
}

// Tags splits FilterTags, dropping blanks.
func (c Config) Tags() []string {
	var tags []string
	for _, tag := range strings.Split(c.FilterTags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (c Config) Validate() error {
	switch c.Output {
	case OutputJSON, OutputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q", c.Output)
}
