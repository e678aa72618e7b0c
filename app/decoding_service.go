package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fmridecode/domain/bold"
	"fmridecode/domain/cv"
	"fmridecode/domain/ml"
	"fmridecode/domain/prep"
	"fmridecode/internal"
	"fmridecode/ports"
)

// DecodingService orchestrates the per-subject analysis: raw files in,
// prepared blocks and cross-validated reports out. Subjects share nothing;
// every call builds its artifacts fresh.
type DecodingService struct {
	stimReader ports.StimulusReader
	volReader  ports.VolumeReader
	rng        ports.RNGPort
	logger     *internal.Logger
}

// NewDecodingService wires the service from its ports.
func NewDecodingService(stim ports.StimulusReader, vol ports.VolumeReader, rng ports.RNGPort, logger *internal.Logger) *DecodingService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DecodingService{stimReader: stim, volReader: vol, rng: rng, logger: logger}
}

// SubjectRequest describes one subject's preparation settings.
type SubjectRequest struct {
	Grid       bold.AcquisitionGrid
	LagSeconds float64
	MaskName   string
}

// SubjectData is the prepared, classification-ready state of one subject.
type SubjectData struct {
	SessionID string
	Blocks    *bold.BlockSet
	Warnings  []error
	PrepMs    int64
}

// PrepareSubject loads and runs the data-preparation pipeline for one subject.
// Empty-run conditions are logged as warnings and carried in the result, not
// treated as failures.
func (s *DecodingService) PrepareSubject(req SubjectRequest) (*SubjectData, error) {
	start := time.Now()
	sessionID := uuid.NewString()

	table, err := s.stimReader.ReadTable()
	if err != nil {
		return nil, fmt.Errorf("stimulus table: %w", err)
	}
	samples, err := s.volReader.ReadSamples(req.Grid, req.MaskName)
	if err != nil {
		return nil, fmt.Errorf("volumes: %w", err)
	}

	result, err := prep.Prepare(samples, table, prep.PrepareConfig{
		Grid:       req.Grid,
		LagSeconds: req.LagSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	for _, w := range result.Warnings {
		s.logger.Warn("session %s: %v", sessionID, w)
	}
	s.logger.Info("session %s: %d blocks from %d trials, %d voxels",
		sessionID, result.Blocks.Len(), len(table.Trials), samples.VoxelCount())

	return &SubjectData{
		SessionID: sessionID,
		Blocks:    result.Blocks,
		Warnings:  result.Warnings,
		PrepMs:    time.Since(start).Milliseconds(),
	}, nil
}

// DecodeReport is the model-selection summary for one subject.
type DecodeReport struct {
	SessionID  string
	GridSearch *cv.SearchResult // single-level search, optimistically biased
	Nested     *cv.NestedResult // unbiased generalization estimate
}

// Decode runs hyperparameter search over the regularization axis with
// leave-one-run-out folds, both as a single-level grid search (whose best
// score overstates performance) and as a nested search (whose outer score
// does not). Reporting both is the point of the exercise.
func (s *DecodingService) Decode(data *SubjectData, grid cv.Grid, seed int64) (*DecodeReport, error) {
	blocks := data.Blocks
	if err := blocks.Validate(); err != nil {
		return nil, err
	}

	loro := cv.NewLeaveOneRunOut(blocks.Runs)
	factory := func(p cv.Params) (ports.Trainer, error) {
		return ml.NewLinearSVM(p["C"], seed), nil
	}

	search, err := cv.Search(grid, func(p cv.Params) (float64, error) {
		trainer, err := factory(p)
		if err != nil {
			return 0, err
		}
		res, err := cv.CrossValScore(trainer, blocks.Features, blocks.Labels, loro)
		if err != nil {
			return 0, err
		}
		return res.Mean(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("grid search: %w", err)
	}

	nested, err := cv.NestedSearch(grid, factory, blocks.Features, blocks.Labels, blocks.Runs, loro)
	if err != nil {
		return nil, fmt.Errorf("nested search: %w", err)
	}

	s.logger.Info("session %s: grid best %.3f (C=%g), nested outer %.3f",
		data.SessionID, search.Best.Score, search.Best.Params["C"], nested.MeanTestScore())

	return &DecodeReport{SessionID: data.SessionID, GridSearch: search, Nested: nested}, nil
}

// PermutationCheck runs the label-permutation sanity check against the given
// trainer configuration.
func (s *DecodingService) PermutationCheck(data *SubjectData, c float64, n int, seed int64) (*cv.PermutationResult, error) {
	blocks := data.Blocks
	loro := cv.NewLeaveOneRunOut(blocks.Runs)
	trainer := ml.NewLinearSVM(c, seed)

	result, err := cv.PermutationTest(trainer, blocks.Features, blocks.Labels, loro, s.rng, n, seed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session %s: observed %.3f vs null %.3f±%.3f (chance %.3f, p=%.4f)",
		data.SessionID, result.ObservedAccuracy, result.NullMean, result.NullStdDev,
		result.ChanceLevel, result.EmpiricalP)
	return result, nil
}

// SelectionContrast pairs the broken and the correct voxel-selection
// protocols on the same data so the double-dipping inflation is visible.
type SelectionContrast struct {
	SessionID      string
	TopVoxels      int
	LeakyAccuracy  float64 // voxels ranked on ALL data before splitting
	HonestAccuracy float64 // voxels re-ranked inside each training fold
}

// CompareSelectionProtocols runs the documented double-dipping anti-pattern
// (ml.SelectOnAll) next to within-fold selection. The leaky number is
// expected to come out higher; that gap is the lesson, so the broken branch
// stays exactly as broken as the original teaching example.
func (s *DecodingService) CompareSelectionProtocols(data *SubjectData, c float64, topVoxels int, seed int64) (*SelectionContrast, error) {
	blocks := data.Blocks
	loro := cv.NewLeaveOneRunOut(blocks.Runs)
	trainer := ml.NewLinearSVM(c, seed)

	// Broken protocol: selection sees the test rows before the split.
	leakyCols, err := ml.SelectOnAll(blocks.Features, blocks.Labels, topVoxels)
	if err != nil {
		return nil, fmt.Errorf("leaky selection: %w", err)
	}
	leakyX := ml.TakeColumns(blocks.Features, leakyCols)
	leakyRes, err := cv.CrossValScore(trainer, leakyX, blocks.Labels, loro)
	if err != nil {
		return nil, err
	}

	// Correct protocol: selection is refit per fold from training rows only.
	splits, err := loro.Splits()
	if err != nil {
		return nil, err
	}
	honest := 0.0
	for _, split := range splits {
		cols, err := ml.SelectWithinTrain(blocks.Features, blocks.Labels, split.Train, topVoxels)
		if err != nil {
			return nil, fmt.Errorf("within-fold selection: %w", err)
		}
		selected := ml.TakeColumns(blocks.Features, cols)
		trainX, trainY := cv.Take(selected, blocks.Labels, split.Train)
		testX, testY := cv.Take(selected, blocks.Labels, split.Test)

		predictor, err := trainer.Fit(trainX, trainY)
		if err != nil {
			return nil, err
		}
		acc, err := predictor.Score(testX, testY)
		if err != nil {
			return nil, err
		}
		honest += acc
	}
	honest /= float64(len(splits))

	s.logger.Info("session %s: selection on all data %.3f vs within-fold %.3f (top %d voxels)",
		data.SessionID, leakyRes.Mean(), honest, topVoxels)

	return &SelectionContrast{
		SessionID:      data.SessionID,
		TopVoxels:      topVoxels,
		LeakyAccuracy:  leakyRes.Mean(),
		HonestAccuracy: honest,
	}, nil
}

// FormatWarnings renders prepare warnings for display.
func FormatWarnings(warnings []error) string {
	if len(warnings) == 0 {
		return "none"
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.Error()
	}
	return strings.Join(parts, "; ")
}
