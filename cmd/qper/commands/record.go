package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/cli"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
)

type recordResult struct {
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	Type       string `json:"type" yaml:"type"`
	Format     string `json:"format" yaml:"format"`
	Duration   string `json:"duration" yaml:"duration"`
	Size       string `json:"size" yaml:"size"`
	Archived   string `json:"archived,omitempty" yaml:"archived,omitempty"`
	Transcript string `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

var (
	recordMic        micFlags
	recordFor        time.Duration
	recordOut        string
	recordTranscribe bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone",
	Long: `Record audio until Ctrl-C, --duration or --max-duration, then save it as
WAV and optionally transcribe it.

Examples:
  qper record --duration 5s --out memo.wav
  qper record --transcribe
  qper record --mic-input memo.wav --transcribe --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		autoStopped := make(chan struct{}, 1)
		rec, err := recordMic.recorder(func(*capture.Blob, error) {
			autoStopped <- struct{}{}
		})
		if err != nil {
			return err
		}

		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := rec.Start(context.Background()); err != nil {
			return fmt.Errorf("%s (%w)", chatcore.DescribeError(err), err)
		}
		cli.PrintInfo("Recording... press Ctrl-C to stop")

		var timer <-chan time.Time
		if recordFor > 0 {
			timer = time.After(recordFor)
		}
		select {
		case <-sigCtx.Done():
		case <-timer:
		case <-autoStopped:
			cli.PrintWarning("Maximum duration reached")
		}
		stop()

		stopCtx, cancel := context.WithTimeout(context.Background(), capture.DefaultStopTimeout+time.Second)
		defer cancel()
		blob, err := rec.Stop(stopCtx)
		if err != nil {
			return fmt.Errorf("%s (%w)", chatcore.DescribeError(err), err)
		}

		res := recordResult{
			Type:     blob.MIMEType,
			Format:   blob.Format.String(),
			Duration: cli.FormatClock(blob.Duration),
			Size:     cli.FormatBytes(int64(len(blob.Data))),
		}
		if recordOut != "" && len(blob.Data) > 0 {
			if err := os.WriteFile(recordOut, blob.Data, 0o644); err != nil {
				return err
			}
			res.File = recordOut
		}

		if recordTranscribe {
			ctx, err := getKeyContext()
			if err != nil {
				return err
			}
			reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			text, err := createTranscriber(ctx).Transcribe(reqCtx, transcribe.Audio{Data: blob.Data, MIMEType: blob.MIMEType})
			if err != nil {
				return fmt.Errorf("%s (%w)", chatcore.DescribeError(err), err)
			}
			res.Transcript = text
		}

		if cfg := getConfig(); cfg != nil {
			if ctx, err := cfg.Resolve(contextName); err == nil {
				arch, err := createArchiver(ctx)
				if err != nil {
					cli.PrintWarning("archive unavailable: %v", err)
				} else if key, err := arch.SaveRecording(context.Background(), blob, res.Transcript); err == nil {
					res.Archived = key
				}
			}
		}

		return outputResult(res)
	},
}

func init() {
	recordMic.register(recordCmd)
	recordCmd.Flags().DurationVarP(&recordFor, "duration", "d", 0, "stop after this long")
	recordCmd.Flags().StringVar(&recordOut, "out", "", "write the recording to this file")
	recordCmd.Flags().BoolVarP(&recordTranscribe, "transcribe", "t", false, "transcribe the recording")
}
