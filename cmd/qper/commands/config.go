package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to keep several API keys and assistants side by side,
similar to kubectl's context management.

Configuration is stored in ~/.qper/qper/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add or replace a context",
	Long: `Add a context with the specified name. The first context becomes current.

Example:
  qper config add-context prod --api-key sk-... --assistant-id asst_...
  qper config add-context audit --api-key sk-... --assistant-id asst_... \
      --archive-s3-bucket recordings --archive-s3-endpoint http://127.0.0.1:9000 --archive-s3-path-style`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		str := func(name string) string {
			v, _ := f.GetString(name)
			return v
		}
		num := func(name string) int {
			v, _ := f.GetInt(name)
			return v
		}

		ctx := &cli.Context{
			APIKey:          str("api-key"),
			AssistantID:     str("assistant-id"),
			BaseURL:         str("base-url"),
			Model:           str("model"),
			Instructions:    str("instructions"),
			TranscribeModel: str("transcribe-model"),
			Language:        str("language"),
			Timeout:         num("timeout"),
			PollIntervalMS:  num("poll-interval-ms"),
			MaxPollSeconds:  num("max-poll-seconds"),
			UploadCacheDir:  str("upload-cache-dir"),
		}
		if ctx.APIKey == "" {
			return fmt.Errorf("--api-key is required")
		}

		if dir := str("archive-dir"); dir != "" {
			ctx.Archive = &cli.ArchiveConfig{Dir: dir}
		} else if bucket := str("archive-s3-bucket"); bucket != "" {
			pathStyle, _ := f.GetBool("archive-s3-path-style")
			ctx.Archive = &cli.ArchiveConfig{S3: &cli.S3Config{
				Bucket:    bucket,
				Prefix:    str("archive-s3-prefix"),
				Region:    str("archive-s3-region"),
				Endpoint:  str("archive-s3-endpoint"),
				AccessKey: str("archive-s3-access-key"),
				SecretKey: str("archive-s3-secret-key"),
				PathStyle: pathStyle,
			}}
		}

		if err := getConfig().AddContext(args[0], ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q added", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tASSISTANT\tMODEL\tARCHIVE")
		for _, name := range names {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			model := ctx.Model
			if model == "" {
				model = "(assistant)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", current, name, ctx.AssistantID, model, archiveSummary(ctx.Archive))
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		fmt.Printf("Config file: %s\n", cfg.Path())
		fmt.Printf("Current context: %s\n", cfg.CurrentContext)
		fmt.Printf("Contexts: %d\n", len(cfg.Contexts))

		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			fmt.Printf("\n  %s:\n", name)
			fmt.Printf("    API Key: %s\n", cli.MaskAPIKey(ctx.APIKey))
			fmt.Printf("    Assistant: %s\n", ctx.AssistantID)
			if ctx.BaseURL != "" {
				fmt.Printf("    Base URL: %s\n", ctx.BaseURL)
			}
			if ctx.Model != "" {
				fmt.Printf("    Model: %s\n", ctx.Model)
			}
			if ctx.Language != "" {
				fmt.Printf("    Language: %s\n", ctx.Language)
			}
			if ctx.Timeout > 0 {
				fmt.Printf("    Timeout: %ds\n", ctx.Timeout)
			}
			if ctx.PollIntervalMS > 0 || ctx.MaxPollSeconds > 0 {
				fmt.Printf("    Polling: every %dms, at most %ds\n", ctx.PollIntervalMS, ctx.MaxPollSeconds)
			}
			if ctx.UploadCacheDir != "" {
				fmt.Printf("    Upload cache: %s\n", ctx.UploadCacheDir)
			}
			if ctx.Archive != nil {
				fmt.Printf("    Archive: %s\n", archiveSummary(ctx.Archive))
			}
		}
		return nil
	},
}

func archiveSummary(a *cli.ArchiveConfig) string {
	switch {
	case a == nil:
		return "-"
	case a.Dir != "":
		return a.Dir
	case a.S3 != nil:
		if a.S3.Prefix != "" {
			return "s3://" + a.S3.Bucket + "/" + a.S3.Prefix
		}
		return "s3://" + a.S3.Bucket
	default:
		return "-"
	}
}

func init() {
	f := configAddContextCmd.Flags()
	f.String("api-key", "", "API key (required)")
	f.String("assistant-id", "", "assistant every run is started with")
	f.String("base-url", "", "API base URL")
	f.String("model", "", "model override for runs")
	f.String("instructions", "", "additional instructions for runs")
	f.String("transcribe-model", "", "speech recognition model")
	f.String("language", "", "speech recognition language (default de)")
	f.Int("timeout", 0, "HTTP timeout in seconds")
	f.Int("poll-interval-ms", 0, "run polling interval in milliseconds")
	f.Int("max-poll-seconds", 0, "give up on a run after this many seconds")
	f.String("upload-cache-dir", "", "directory of the persistent upload cache")
	f.String("archive-dir", "", "archive recordings and photos to this directory")
	f.String("archive-s3-bucket", "", "archive recordings and photos to this bucket")
	f.String("archive-s3-prefix", "", "key prefix in the archive bucket")
	f.String("archive-s3-region", "", "archive bucket region")
	f.String("archive-s3-endpoint", "", "S3-compatible endpoint URL")
	f.String("archive-s3-access-key", "", "archive bucket access key")
	f.String("archive-s3-secret-key", "", "archive bucket secret key")
	f.Bool("archive-s3-path-style", false, "use path-style bucket addressing")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
