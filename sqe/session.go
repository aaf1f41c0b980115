// Copyright 2025 The SQE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	sqecore "github.com/QualityBridge/sqe-core"
	"github.com/QualityBridge/sqe-core/validators"
)

// SampleSeed fixes the sampling permutation so repeated runs over the same
// oversized dataset validate the same rows.
const SampleSeed = 42

// Options tunes one validation session.
type Options struct {
	// QueryTimeout bounds each SQL expectation's execution. Zero means
	// no deadline.
	QueryTimeout time.Duration

	// TableName substitutes the table-name placeholder in SQL
	// expectations. Empty means the default in-memory table name.
	TableName string

	// SampleSize caps the number of rows validated; datasets larger than
	// this are deterministically sampled first. Zero disables sampling.
	SampleSize int
}

// ValidationSession holds the suite, the dataset snapshot, and the two
// evaluation engines for one run. All state is explicit: separate sessions
// never share anything, so concurrent sessions and test runs cannot
// interfere with each other.
type ValidationSession struct {
	suite   *sqecore.Suite
	dataset *sqecore.Dataset
	opts    Options

	sqlValidator      *validators.SQLExpectationValidator
	fallbackValidator *validators.FallbackValidator
	logger            *slog.Logger
}

// NewValidationSession wires a session from a suite and a dataset snapshot.
// A nil logger disables logging.
func NewValidationSession(suite *sqecore.Suite, dataset *sqecore.Dataset, opts Options, logger *slog.Logger) (*ValidationSession, error) {
	if suite == nil {
		return nil, fmt.Errorf("suite is required")
	}
	if dataset == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	executor := sqecore.NewSQLiteQueryExecutor(opts.QueryTimeout, logger)
	return &ValidationSession{
		suite:             suite,
		dataset:           dataset,
		opts:              opts,
		sqlValidator:      validators.NewSQLExpectationValidator(executor, sqecore.NewWhereClauseDeriver(), opts.TableName, logger),
		fallbackValidator: validators.NewFallbackValidator(logger),
		logger:            logger,
	}, nil
}

// Run evaluates every expectation in suite order, strictly sequentially.
// Individual expectation failures and evaluation errors are captured in
// their own results; Run itself only fails on a cancelled context.
func (s *ValidationSession) Run(ctx context.Context) (*sqecore.SuiteValidationResult, error) {
	startedAt := time.Now()

	ds := s.dataset
	if s.opts.SampleSize > 0 && ds.RowCount() > s.opts.SampleSize {
		s.logger.Info("sampling dataset before validation",
			"rows", ds.RowCount(),
			"sample_size", s.opts.SampleSize)
		ds = ds.Sample(s.opts.SampleSize, SampleSeed)
	}

	results := make([]*sqecore.ValidationResult, 0, len(s.suite.Expectations))
	successful := 0

	for i := range s.suite.Expectations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg := &s.suite.Expectations[i]
		s.logger.Debug("evaluating expectation",
			"index", i,
			"expectation_type", cfg.Type)

		var result *sqecore.ValidationResult
		if cfg.Type == sqecore.ExpectationTypeCustomSQL {
			result = s.sqlValidator.ValidateExpectation(ctx, ds, cfg)
		} else {
			result = s.fallbackValidator.ValidateExpectation(ds, cfg)
		}

		if result.Success {
			successful++
		}
		results = append(results, result)
	}

	evaluated := len(results)
	stats := sqecore.SuiteStatistics{
		EvaluatedExpectations:    evaluated,
		SuccessfulExpectations:   successful,
		UnsuccessfulExpectations: evaluated - successful,
	}
	if evaluated > 0 {
		stats.SuccessPercent = float64(successful) / float64(evaluated) * 100
	}

	return &sqecore.SuiteValidationResult{
		Success:    stats.UnsuccessfulExpectations == 0,
		Results:    results,
		Statistics: stats,
		Meta: sqecore.RunMeta{
			SuiteName:       s.suite.Name,
			DatasetRows:     ds.RowCount(),
			ExecutionTimeMs: time.Since(startedAt).Milliseconds(),
		},
	}, nil
}
