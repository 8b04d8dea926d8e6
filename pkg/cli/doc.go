// Package cli holds the pieces shared by the qper command-line tools.
//
// Configuration lives in ~/.qper/<app>/config.yaml and holds named contexts,
// kubectl style: each context carries the API credentials, the assistant to
// talk to and the tuning of polling, uploads and archiving. When no context
// is configured the environment (OPENAI_API_KEY, QPER_ASSISTANT_ID) is used.
//
//	cfg, err := cli.LoadConfig("qper")
//	ctx, err := cfg.Resolve(name)
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON})
package cli
