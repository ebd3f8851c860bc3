package cmd

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/parob/graphql-api/api"
)

var (
	variables     string
	operationName string
)

var queryCmd = &cobra.Command{
	Use:   "query [document]",
	Short: "Execute a GraphQL document against the demo library",
	Long: `Execute a GraphQL document against a fresh demo library and print the
result. The document is read from standard input when no argument is given.`,
	Example: `graphql-api query '{ books(genre: SCIENCE) { title } }'
graphql-api query 'mutation { addBook(book: {title: "Emma", genre: FICTION}) { id } }'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document, err := readDocument(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		var opts []api.ExecuteOption
		if variables != "" {
			vars := map[string]any{}
			if err := json.Unmarshal([]byte(variables), &vars); err != nil {
				return errors.Wrap(err, "failed to parse --variables")
			}
			opts = append(opts, api.WithVariables(vars))
		}
		if operationName != "" {
			opts = append(opts, api.WithOperationName(operationName))
		}

		a, err := newAPI()
		if err != nil {
			return err
		}
		res, err := a.Execute(cmd.Context(), document, opts...)
		if err != nil {
			return err
		}
		if res.HasErrors() {
			log.Warn().Int("errors", len(res.Errors)).Msg("query returned errors")
		}
		return render(cmd.OutOrStdout(), appCfg.Output, res)
	},
}

func init() {
	queryCmd.Flags().StringVar(&variables, "variables", "", "variables as a JSON object")
	queryCmd.Flags().StringVar(&operationName, "operation", "", "name of the operation to run")
}

func readDocument(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Wrap(err, "failed to read document")
	}
	document := strings.TrimSpace(string(raw))
	if document == "" {
		return "", errors.New("no document given")
	}
	return document, nil
}
