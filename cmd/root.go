package cmd

import (
	"github.com/pkg/errors"
	openmfpconfig "github.com/platform-mesh/golang-commons/config"
	"github.com/platform-mesh/golang-commons/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parob/graphql-api/api"
	"github.com/parob/graphql-api/common/config"
	"github.com/parob/graphql-api/demo"
	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/mapper"
	"github.com/parob/graphql-api/schema/reducer"
)

var (
	appCfg     config.Config
	defaultCfg *openmfpconfig.CommonServiceConfig
	cfgFile    string
	v          *viper.Viper
	log        *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:          "graphql-api",
	Short:        "Build and query the GraphQL schema of the demo library",
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		var err error
		log, err = setupLogger(defaultCfg.Log.Level)
		if err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(queryCmd)

	var err error
	v, defaultCfg, err = openmfpconfig.NewDefaultConfig(rootCmd)
	if err != nil {
		panic(err)
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (yaml or json)")

	err = openmfpconfig.BindConfigToFlags(v, schemaCmd, &appCfg)
	if err != nil {
		panic(err)
	}

	err = openmfpconfig.BindConfigToFlags(v, queryCmd, &appCfg)
	if err != nil {
		panic(err)
	}
}

// loadConfig merges the config file, if any, under the flags and the
// environment and decodes both configs again.
func loadConfig() error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", cfgFile)
		}
	}
	if err := v.Unmarshal(defaultCfg); err != nil {
		return errors.Wrap(err, "failed to decode service config")
	}
	if err := v.Unmarshal(&appCfg); err != nil {
		return errors.Wrap(err, "failed to decode config")
	}
	return appCfg.Validate()
}

// setupLogger initializes the logger with the given log level
func setupLogger(logLevel string) (*logger.Logger, error) {
	if _, err := zerolog.ParseLevel(logLevel); err != nil {
		return nil, err
	}
	loggerCfg := logger.DefaultConfig()
	loggerCfg.Name = "graphql-api"
	loggerCfg.Level = logLevel
	return logger.New(loggerCfg)
}

// newAPI declares the demo library and configures an API for it.
func newAPI() (*api.API, error) {
	reg := annotations.NewRegistry()
	opts := []api.Option{
		api.WithAnnotations(reg),
		api.WithRoot(demo.Declare(reg)),
		api.WithLogger(log),
		api.WithErrorProtection(appCfg.ErrorProtection),
		api.WithMaxDescriptionLength(appCfg.MaxDescriptionLength),
		api.WithSuffixes(mapper.Suffixes{
			Enum:      appCfg.EnumSuffix,
			Interface: appCfg.InterfaceSuffix,
			Input:     appCfg.InputSuffix,
		}),
	}
	if tags := appCfg.Tags(); len(tags) > 0 {
		opts = append(opts, api.WithFilters(reducer.NewTagFilter(tags...)))
	}
	return api.New(opts...)
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
