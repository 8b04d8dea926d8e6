package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/cli"
)

const appName = "qper"

var (
	cfgFile      string
	contextName  string
	outputFile   string
	outputFormat string
	verbose      bool

	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "qper",
	Short: "Conversation client for the assistants API",
	Long: `qper - talk to an assistant from the terminal or a browser.

Turns are queued and answered strictly in order. Attachments are validated,
compressed and uploaded before the message is posted; voice input is
recorded from a microphone and transcribed.

Configuration is stored in ~/.qper/qper/ and supports multiple contexts,
similar to kubectl's context management. Without a context the environment
variables OPENAI_API_KEY and QPER_ASSISTANT_ID are used.

Examples:
  # Set up a context
  qper config add-context prod --api-key sk-... --assistant-id asst_...

  # Ask a question
  qper send "Wie spät ist es in Tokio?"

  # Send a turn described in a file, print JSON
  qper send -f turn.yaml --format json

  # Chat interactively
  qper chat
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(cli.NewLogger(os.Stderr, verbose))
		if _, err := cli.ParseOutputFormat(outputFormat); err != nil {
			return err
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.qper/qper/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "output format: yaml, json or text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

func getConfig() *cli.Config {
	return globalConfig
}

// getContext resolves the context for commands that talk to the API.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	ctx, err := cfg.Resolve(contextName)
	if err != nil {
		return nil, err
	}
	if err := ctx.Validate(); err != nil {
		return nil, fmt.Errorf("%w; use 'qper config add-context' or set the environment", err)
	}
	return ctx, nil
}

// getKeyContext resolves a context that only needs the API key.
func getKeyContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	ctx, err := cfg.Resolve(contextName)
	if err != nil {
		return nil, err
	}
	if ctx.APIKey == "" {
		return nil, fmt.Errorf("%w: no api_key in context %q and $%s is empty", cli.ErrMissingCredentials, ctx.Name, cli.EnvAPIKey)
	}
	return ctx, nil
}

func outputResult(result any) error {
	format, _ := cli.ParseOutputFormat(outputFormat)
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
	})
}
