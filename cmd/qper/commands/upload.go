package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/cli"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

type uploadResult struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Size    string `json:"size" yaml:"size"`
	FileID  string `json:"file_id,omitempty" yaml:"file_id,omitempty"`
	Purpose string `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Cached  bool   `json:"cached,omitempty" yaml:"cached,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

var (
	uploadCompact bool
	uploadDryRun  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Validate, compress and upload attachments",
	Long: `Validate files against the attachment limits, compress images and upload
them. The resulting file ids can be referenced by messages.

Images are re-encoded as JPEG (max 1920x1080) before upload.

Examples:
  qper upload report.pdf photo.png
  qper upload --dry-run --compact scan.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := readFiles(args)
		if err != nil {
			return err
		}

		limits := upload.GeneralLimits
		if uploadCompact {
			limits = upload.CompactLimits
		}

		var results []uploadResult
		var coord *upload.Coordinator
		var closeFn func()
		if uploadDryRun {
			coord = upload.NewCoordinator(upload.Config{Limits: limits, Logger: cli.Discard})
			closeFn = func() {}
		} else {
			ctx, err := getKeyContext()
			if err != nil {
				return err
			}
			cache, err := openUploadCache(ctx)
			if err != nil {
				return err
			}
			coord = createCoordinator(createClient(ctx), cache, limits)
			closeFn = func() {
				if cache != nil {
					_ = cache.Close()
				}
			}
		}
		defer closeFn()

		accepted, rejected := coord.Prepare(files)
		for _, r := range rejected {
			results = append(results, uploadResult{
				Name:  r.File.Name,
				Type:  r.File.MIMEType,
				Size:  cli.FormatBytes(r.File.Size()),
				Error: chatcore.DescribeError(r.Err),
			})
		}

		if uploadDryRun {
			for _, f := range accepted {
				results = append(results, uploadResult{Name: f.Name, Type: f.MIMEType, Size: cli.FormatBytes(f.Size())})
			}
			return outputResult(results)
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		uploaded, err := coord.Upload(reqCtx, accepted)
		if err != nil {
			if ue, ok := upload.AsUploadError(err); ok {
				for _, f := range ue.Failures {
					results = append(results, uploadResult{Name: f.Name, Error: f.Err.Error()})
				}
				_ = outputResult(results)
			}
			return fmt.Errorf("upload failed: %w", err)
		}
		for _, u := range uploaded {
			results = append(results, uploadResult{
				Name:    u.Name,
				Type:    u.MIMEType,
				Size:    cli.FormatBytes(u.Size),
				FileID:  u.FileID,
				Purpose: string(u.Purpose),
				Cached:  u.Cached,
			})
		}
		if err := outputResult(results); err != nil {
			return err
		}
		if len(rejected) > 0 {
			return fmt.Errorf("%d file(s) rejected", len(rejected))
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadCompact, "compact", false, "apply the 5MB browser limits")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "validate and compress only")
}
