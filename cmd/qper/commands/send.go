package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/cli"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// turnRequest is the file format of 'qper send -f'.
type turnRequest struct {
	Text  string   `yaml:"text" json:"text"`
	Files []string `yaml:"files,omitempty" json:"files,omitempty"`
}

type sendResult struct {
	TurnID   string   `json:"turn_id" yaml:"turn_id"`
	ThreadID string   `json:"thread_id" yaml:"thread_id"`
	RunID    string   `json:"run_id" yaml:"run_id"`
	Text     string   `json:"text" yaml:"text"`
	Files    []string `json:"files,omitempty" yaml:"files,omitempty"`
	Duration string   `json:"duration" yaml:"duration"`
}

var (
	sendFile    string
	sendAttach  []string
	sendCompact bool
)

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send one turn and print the reply",
	Long: `Send one message, with optional attachments, in a new conversation and
print the assistant's reply.

The turn can be given as arguments or as a YAML/JSON file:

  text: Was steht in dem Bericht?
  files:
    - report.pdf
    - chart.png

File paths in the turn file are relative to the file.

Examples:
  qper send "Hallo"
  qper send --attach report.pdf "Fasse das zusammen"
  qper send -f turn.yaml --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}

		req := turnRequest{Text: strings.Join(args, " "), Files: sendAttach}
		if sendFile != "" {
			var fromFile turnRequest
			if err := cli.LoadRequest(sendFile, &fromFile); err != nil {
				return err
			}
			if sendFile != "-" {
				base := filepath.Dir(sendFile)
				for i, p := range fromFile.Files {
					if !filepath.IsAbs(p) {
						fromFile.Files[i] = filepath.Join(base, p)
					}
				}
			}
			if req.Text == "" {
				req.Text = fromFile.Text
			}
			req.Files = append(req.Files, fromFile.Files...)
		}

		limits := upload.GeneralLimits
		if sendCompact {
			limits = upload.CompactLimits
		}
		s, err := newStack(ctx, stackOptions{limits: limits})
		if err != nil {
			return err
		}
		defer s.close()

		files, err := readFiles(req.Files)
		if err != nil {
			return err
		}
		if rejected := s.core.SelectFiles(files); len(rejected) > 0 {
			for _, r := range rejected {
				cli.PrintError("%s: %s", r.File.Name, chatcore.DescribeError(r.Err))
			}
			return fmt.Errorf("%d attachment(s) rejected", len(rejected))
		}

		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p := s.core.Send(req.Text)
		reply, err := p.Wait(sigCtx)
		if err != nil {
			return fmt.Errorf("%s (%w)", chatcore.DescribeError(err), err)
		}

		res := sendResult{
			TurnID:   reply.TurnID,
			ThreadID: reply.ThreadID,
			RunID:    reply.RunID,
			Text:     reply.Text,
			Duration: cli.FormatDuration(reply.Duration),
		}
		for _, f := range reply.Files {
			res.Files = append(res.Files, f.Name+" → "+f.FileID)
		}
		if outputFormat == string(cli.FormatText) {
			return outputResult(reply.Text)
		}
		return outputResult(res)
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "turn file (YAML or JSON, - for stdin)")
	sendCmd.Flags().StringSliceVarP(&sendAttach, "attach", "a", nil, "attachment path (repeatable)")
	sendCmd.Flags().BoolVar(&sendCompact, "compact", false, "apply the 5MB browser limits to attachments")
}
