package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Job names one input file and the file its summaries go to
type Job struct {
	SourcePath string
	OutputPath string
}

// JobResult carries the report of a job, or why it failed. Report may be set together
// with Err when only the exporters failed.
type JobResult struct {
	Job    Job
	Report *RunReport
	Err    error
}

// WorkerPoolProcessingService runs independent sources concurrently.
// Each source gets its own ledger, so no state is shared between jobs.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessSource runs a single source on the calling goroutine
func (s *WorkerPoolProcessingService) ProcessSource(ctx context.Context, src Source, out io.Writer) (*RunReport, error) {
	return s.baseService.ProcessSource(ctx, src, out)
}

// ProcessAll runs every job on the pool and returns results in job order
func (s *WorkerPoolProcessingService) ProcessAll(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.runJob(ctx, job)
		})
		if err != nil {
			wg.Done()
			s.logger.Error("Failed to submit job to worker pool", "source", job.SourcePath, "error", err)
			results[i] = JobResult{Job: job, Err: fmt.Errorf("failed to submit %s: %w", job.SourcePath, err)}
		}
	}

	wg.Wait()
	return results
}

// runJob processes one file. The output is written to a temporary file and renamed
// into place only when the source was read to its end.
func (s *WorkerPoolProcessingService) runJob(ctx context.Context, job Job) (result JobResult) {
	result.Job = job
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Panic while processing source", "source", job.SourcePath, "panic", p)
			result.Report = nil
			result.Err = fmt.Errorf("processing %s aborted: %v", job.SourcePath, p)
		}
	}()

	in, err := os.Open(job.SourcePath)
	if err != nil {
		result.Err = fmt.Errorf("failed to open source: %w", err)
		return result
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(job.OutputPath), "."+filepath.Base(job.OutputPath)+".*")
	if err != nil {
		result.Err = fmt.Errorf("failed to create output for %s: %w", job.SourcePath, err)
		return result
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	report, processErr := s.baseService.ProcessSource(ctx, Source{Name: job.SourcePath, Reader: in}, tmp)
	closeErr := tmp.Close()
	if report == nil {
		result.Err = processErr
		return result
	}
	if closeErr != nil {
		result.Err = fmt.Errorf("failed to write output %s: %w", job.OutputPath, closeErr)
		return result
	}
	if err := os.Rename(tmp.Name(), job.OutputPath); err != nil {
		result.Err = fmt.Errorf("failed to move output into place: %w", err)
		return result
	}

	result.Report = report
	result.Err = processErr
	return result
}

// Failed returns the results that carry an error
func Failed(results []JobResult) []JobResult {
	var failed []JobResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// JoinErrors merges the errors of all results, prefixed by their source
func JoinErrors(results []JobResult) error {
	var errs []error
	for _, r := range Failed(results) {
		errs = append(errs, fmt.Errorf("%s: %w", r.Job.SourcePath, r.Err))
	}
	return errors.Join(errs...)
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
