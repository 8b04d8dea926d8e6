package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/cli"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

type transcribeResult struct {
	File string `json:"file" yaml:"file"`
	Text string `json:"text" yaml:"text"`
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio file>",
	Short: "Transcribe an audio file",
	Long: `Transcribe a recording (webm, ogg, wav, mp3, m4a; max 25MB) with the
configured speech model and language.

Examples:
  qper transcribe memo.webm
  qper transcribe memo.wav --format text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getKeyContext()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		name := filepath.Base(args[0])

		reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		text, err := createTranscriber(ctx).Transcribe(reqCtx, transcribe.Audio{
			Data:     data,
			Filename: name,
			MIMEType: upload.DetectMIME(name, data),
		})
		if err != nil {
			return fmt.Errorf("%s (%w)", chatcore.DescribeError(err), err)
		}
		if outputFormat == string(cli.FormatText) {
			return outputResult(text)
		}
		return outputResult(transcribeResult{File: name, Text: text})
	},
}
