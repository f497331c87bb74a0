package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docverify/internal/pipeline"
)

var (
	analyzeType        string
	analyzeMime        string
	analyzeUser        string
	analyzeConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Upload and analyze one or more document images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := uploadOptions{
			docType:  analyzeType,
			mimeType: analyzeMime,
			userID:   analyzeUser,
		}
		return processFiles(ctx, args, opts, analyzeConcurrency, cmd.OutOrStdout(), env.Pipeline.Process)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "", "declared document type (e.g. passport, national_id, drivers_license)")
	analyzeCmd.Flags().StringVar(&analyzeMime, "mime", "", "MIME type override (default: from file extension or content)")
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "ID of the uploading user")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 4, "max uploads processed in parallel")
	_ = analyzeCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(analyzeCmd)
}

type uploadOptions struct {
	docType  string
	mimeType string
	userID   string
}

type processFunc func(ctx context.Context, up pipeline.Upload) (*pipeline.UploadResult, error)

// processFiles runs each file as an independent upload. Individual failures
// are reported and counted but do not stop the batch.
func processFiles(ctx context.Context, files []string, opts uploadOptions, concurrency int, out io.Writer, process processFunc) error {
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	var failed atomic.Int64
	report := func(format string, a ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format, a...) //nolint:errcheck
	}

	for _, path := range files {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))

			up, err := readUpload(path, opts)
			if err == nil {
				var res *pipeline.UploadResult
				res, err = process(gctx, up)
				if err == nil {
					report("%s\tuploaded\t%s\n", path, res.Document.ID)
					return nil
				}
			}

			failed.Add(1)
			log.Error("upload failed",
				zap.String("stage", string(pipeline.StageOf(err))),
				zap.Bool("transient", pipeline.IsTransient(err)),
				zap.Error(err),
			)
			report("%s\tfailed\n", path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "analyze")
	}
	if n := failed.Load(); n > 0 {
		return eris.Errorf("analyze: %d of %d uploads failed", n, len(files))
	}
	return nil
}

func readUpload(path string, opts uploadOptions) (pipeline.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Upload{}, eris.Wrapf(err, "read %s", path)
	}
	mimeType := opts.mimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	return pipeline.Upload{
		Name:     filepath.Base(path),
		Type:     opts.docType,
		MimeType: mimeType,
		Data:     data,
		UserID:   opts.userID,
	}, nil
}
