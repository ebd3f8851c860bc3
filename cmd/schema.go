package cmd

import (
	"time"

	"github.com/pkg/errors"
	openmfpcontext "github.com/platform-mesh/golang-commons/context"
	"github.com/spf13/cobra"

	"github.com/parob/graphql-api/api"
	"github.com/parob/graphql-api/common/watcher"
)

var watch bool

var schemaCmd = &cobra.Command{
	Use:     "schema",
	Short:   "Print the types of the demo schema",
	Example: "graphql-api schema --output yaml --filter-tags internal",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if watch && cfgFile == "" {
			return errors.New("--watch requires --config")
		}
		if err := printSchema(cmd); err != nil {
			return err
		}
		if !watch {
			return nil
		}

		ctx, _, shutdown := openmfpcontext.StartContext(log, appCfg, 1*time.Second)
		defer shutdown()

		w, err := watcher.NewFileWatcher(func(string) {
			if err := loadConfig(); err != nil {
				log.Error().Err(err).Msg("failed to reload config")
				return
			}
			if err := printSchema(cmd); err != nil {
				log.Error().Err(err).Msg("failed to rebuild schema")
			}
		}, log)
		if err != nil {
			return err
		}
		return w.Watch(ctx, cfgFile, watcher.DefaultDebounce)
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&watch, "watch", false, "print the schema again whenever the config file changes")
}

func printSchema(cmd *cobra.Command) error {
	a, err := newAPI()
	if err != nil {
		return err
	}

	built, err := a.BuildSchema(cmd.Context(), false)
	if err != nil {
		return errors.Wrap(err, "failed to build schema")
	}
	log.Debug().Int("types", len(built.Schema.TypeMap())).Msg("schema built")

	return render(cmd.OutOrStdout(), appCfg.Output, api.Describe(built.Schema))
}
