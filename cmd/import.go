package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lifelens/lifelens-cli/internal/engine"
	"github.com/lifelens/lifelens-cli/internal/ingest"
	"github.com/lifelens/lifelens-cli/internal/model"
	"github.com/lifelens/lifelens-cli/internal/store"
)

var (
	importFile        string
	importConcurrency int
	importSave        bool
)

// importResult is one assessed row.
type importResult struct {
	Row          int                `json:"row"`
	AssessmentID string             `json:"assessment_id,omitempty"`
	Output       model.EngineOutput `json:"output"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Assess every row of a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		inputs, err := ingest.ReadFile(importFile)
		if err != nil {
			return eris.Wrap(err, "import: read file")
		}

		var st store.Store
		if importSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		concurrency := importConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Import.Concurrency
		}

		results, err := assessAll(ctx, inputs, st, concurrency)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.Int("rows", len(results)),
			zap.Bool("saved", importSave),
		)
		return printJSON(cmd.OutOrStdout(), results)
	},
}

// assessAll runs the engine over inputs with at most concurrency workers.
// Results keep input order. When st is non-nil each run is saved.
func assessAll(ctx context.Context, inputs []model.RawHealthInput, st store.Store, concurrency int) ([]importResult, error) {
	results := make([]importResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := engine.Run(in)
			results[i] = importResult{Row: i + 1, Output: out}

			if st != nil {
				a, err := st.SaveAssessment(gctx, in, out)
				if err != nil {
					return eris.Wrapf(err, "import: save row %d", i+1)
				}
				results[i].AssessmentID = a.ID
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv or .xlsx file (required)")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "parallel workers (default from config)")
	importCmd.Flags().BoolVar(&importSave, "save", false, "persist each assessment")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
