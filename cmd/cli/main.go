package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fmridecode/adapters/nifti"
	"fmridecode/adapters/rng"
	"fmridecode/adapters/stim"
	"fmridecode/app"
	"fmridecode/domain/bold"
	"fmridecode/domain/cv"
	"fmridecode/internal"
	"fmridecode/internal/config"
	"fmridecode/internal/testkit"
	"fmridecode/ports"
)

func main() {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "fmridecode",
		Short: "Block-design fMRI decoding: data preparation and honest cross-validation",
	}

	rootCmd.AddCommand(
		newPrepareCmd(),
		newDecodeCmd(),
		newPermcheckCmd(),
		newDoubledipCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildService assembles the decoding service from configuration. With
// synthetic=true the readers serve a generated session instead of files.
func buildService(cfg *config.Config, synthetic bool) (*app.DecodingService, app.SubjectRequest) {
	logger := internal.NewDefaultLogger()
	streams := rng.NewStreamFactory()

	req := app.SubjectRequest{
		Grid:       cfg.Grid(),
		LagSeconds: cfg.Data.LagSeconds,
		MaskName:   cfg.Data.MaskName,
	}

	if synthetic {
		spec := testkit.CanonicalSpec()
		session := testkit.GenerateSession(spec, streams.SeededStream("synthetic-session", cfg.Decoding.Seed))
		req.Grid = spec.Grid()
		req.LagSeconds = 0
		req.MaskName = ""
		return app.NewDecodingService(
			syntheticStim{session},
			syntheticVolumes{session},
			streams,
			logger,
		), req
	}

	var stimReader ports.StimulusReader
	stimPath := filepath.Join(cfg.Data.DataDir, cfg.Data.StimulusFile)
	if strings.HasSuffix(stimPath, ".xlsx") {
		stimReader = stim.NewExcelReader(stimPath)
	} else {
		stimReader = stim.NewCSVReader(stimPath)
	}

	volReader := nifti.NewVolumeReader(cfg.Data.DataDir, cfg.Data.BoldFile)
	return app.NewDecodingService(stimReader, volReader, streams, logger), req
}

func defaultGrid() cv.Grid {
	return cv.Grid{Axes: []cv.ParamAxis{
		{Name: "C", Values: []float64{0.01, 0.1, 1, 10, 100}},
	}}
}

func newPrepareCmd() *cobra.Command {
	var synthetic bool
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Run the data-preparation pipeline and print the block table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			service, req := buildService(cfg, synthetic)
			data, err := service.PrepareSubject(req)
			if err != nil {
				return err
			}

			fmt.Printf("session %s: %d blocks, warnings: %s\n",
				data.SessionID, data.Blocks.Len(), app.FormatWarnings(data.Warnings))
			fmt.Println("block\trun\tlabel")
			for i := range data.Blocks.Labels {
				fmt.Printf("%d\t%d\t%d\n", i, data.Blocks.Runs[i], data.Blocks.Labels[i])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use a generated session instead of files")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var synthetic bool
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Grid search and nested cross-validation over the regularization axis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			service, req := buildService(cfg, synthetic)
			data, err := service.PrepareSubject(req)
			if err != nil {
				return err
			}

			report, err := service.Decode(data, defaultGrid(), cfg.Decoding.Seed)
			if err != nil {
				return err
			}

			fmt.Println("C\tLORO accuracy")
			for _, c := range report.GridSearch.Candidates {
				fmt.Printf("%g\t%.3f\n", c.Params["C"], c.Score)
			}
			fmt.Printf("\nsingle-level best:  %.3f (C=%g) <- biased by selection\n",
				report.GridSearch.Best.Score, report.GridSearch.Best.Params["C"])
			fmt.Printf("nested outer score: %.3f <- honest estimate\n", report.Nested.MeanTestScore())
			for _, f := range report.Nested.Outer {
				fmt.Printf("  outer fold %d: C=%g inner=%.3f test=%.3f\n",
					f.Fold, f.BestParams["C"], f.InnerScore, f.TestScore)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use a generated session instead of files")
	return cmd
}

func newPermcheckCmd() *cobra.Command {
	var synthetic bool
	var c float64
	cmd := &cobra.Command{
		Use:   "permcheck",
		Short: "Label-permutation sanity check against chance level",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			service, req := buildService(cfg, synthetic)
			data, err := service.PrepareSubject(req)
			if err != nil {
				return err
			}

			result, err := service.PermutationCheck(data, c, cfg.Decoding.Permutations, cfg.Decoding.Seed)
			if err != nil {
				return err
			}

			fmt.Printf("observed accuracy: %.3f\n", result.ObservedAccuracy)
			fmt.Printf("null distribution: %.3f ± %.3f over %d permutations\n",
				result.NullMean, result.NullStdDev, result.NumPermutations)
			fmt.Printf("chance level:      %.3f\n", result.ChanceLevel)
			fmt.Printf("empirical p:       %.4f\n", result.EmpiricalP)
			return nil
		},
	}
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use a generated session instead of files")
	cmd.Flags().Float64Var(&c, "c", 1.0, "SVM regularization parameter")
	return cmd
}

func newDoubledipCmd() *cobra.Command {
	var synthetic bool
	var c float64
	cmd := &cobra.Command{
		Use:   "doubledip",
		Short: "Contrast voxel selection on all data with within-fold selection",
		Long: `Runs the intentionally broken protocol (voxels ranked on the complete
dataset before splitting) next to the corrected one (voxels re-ranked inside
each training fold). The first number is inflated; the gap between the two is
what double dipping buys you.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			service, req := buildService(cfg, synthetic)
			data, err := service.PrepareSubject(req)
			if err != nil {
				return err
			}

			topVoxels := cfg.Decoding.TopVoxels
			if width := len(data.Blocks.Features[0]); topVoxels > width {
				topVoxels = width
			}

			contrast, err := service.CompareSelectionProtocols(data, c, topVoxels, cfg.Decoding.Seed)
			if err != nil {
				return err
			}

			fmt.Printf("selection fit on ALL data:   %.3f  (double dipping)\n", contrast.LeakyAccuracy)
			fmt.Printf("selection fit per fold:      %.3f\n", contrast.HonestAccuracy)
			fmt.Printf("inflation:                   %+.3f\n", contrast.LeakyAccuracy-contrast.HonestAccuracy)
			return nil
		},
	}
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use a generated session instead of files")
	cmd.Flags().Float64Var(&c, "c", 1.0, "SVM regularization parameter")
	return cmd
}

// syntheticStim serves the generated session's timing table.
type syntheticStim struct {
	session *testkit.Session
}

func (s syntheticStim) ReadTable() (*bold.StimulusTable, error) {
	return s.session.Table, nil
}

// syntheticVolumes serves the generated session's sample matrix.
type syntheticVolumes struct {
	session *testkit.Session
}

func (s syntheticVolumes) ReadSamples(grid bold.AcquisitionGrid, maskName string) (*bold.SampleMatrix, error) {
	return s.session.Samples, nil
}
