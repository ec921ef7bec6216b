package console

import (
	"context"
	"io"

	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/spf13/cobra"
)

// API is the part of the RAG API client the console drives.
type API interface {
	Get(ctx context.Context, endpoint string, out any, opts ...pkghttp.RequestOpt) error
	Post(ctx context.Context, endpoint string, out any, opts ...pkghttp.RequestOpt) error
	Patch(ctx context.Context, endpoint string, opts ...pkghttp.RequestOpt) error
	Delete(ctx context.Context, endpoint string, opts ...pkghttp.RequestOpt) error
	Stream(ctx context.Context, endpoint string, fn func(chunk string) error, opts ...pkghttp.RequestOpt) error
}

// Connector builds the API client for the selected environment and client id.
// An empty client means the one configured in the environment.
type Connector func(env, client string, notifier pkghttp.Notifier) (API, error)

// Console holds what every command needs once the root command has connected.
type Console struct {
	api     API
	printer *Printer
}

type rootOptions struct {
	env    string
	client string
}

// NewRootCommand assembles the console command tree.
func NewRootCommand(connect Connector, out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}
	c := &Console{printer: NewPrinter(out, errOut)}

	root := &cobra.Command{
		Use:           "rag-console",
		Short:         "Operate the RAG API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			api, err := connect(opts.env, opts.client, c.printer)
			if err != nil {
				return err
			}
			c.api = api
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&opts.env, "env", "", "environment name, loads .env.<name>")
	root.PersistentFlags().StringVar(&opts.client, "client", "", "client whose settings apply (default from CLIENT)")

	root.AddCommand(
		c.settingsCommand(),
		c.promptsCommand(),
		c.chatCommand(),
		c.historyCommand(),
		c.databasesCommand(),
		c.vectorStoresCommand(),
		c.embedCommand(),
	)

	return root
}

// Execute runs the command tree and renders any failure; it returns the process exit code.
func Execute(ctx context.Context, connect Connector, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(connect, out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		NewPrinter(out, errOut).Error(err)
		return 1
	}
	return 0
}
