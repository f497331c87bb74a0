package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docverify/internal/pipeline"
)

var reviewFormat string

var reviewCmd = &cobra.Command{
	Use:   "review <document-id>",
	Short: "Show the reconciled verification view of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "review")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Review(ctx, args[0])
		if err != nil {
			return err
		}
		return writeReview(cmd.OutOrStdout(), res, reviewFormat)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(reviewCmd)
}

// writeReview renders res in format. YAML output keeps the JSON field names.
func writeReview(w io.Writer, res *pipeline.ReviewResult, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "review: encode json")
	case "yaml":
		data, err := json.Marshal(res)
		if err != nil {
			return eris.Wrap(err, "review: encode json")
		}
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return eris.Wrap(err, "review: decode json")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "review: encode yaml")
		}
		return eris.Wrap(enc.Close(), "review: encode yaml")
	default:
		return eris.Errorf("review: unknown format %q", format)
	}
}
