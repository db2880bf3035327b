package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/catalog-import/internal/logging"
)

const (
	// analysisSamples is how many rows Analyze returns for display.
	analysisSamples = 5

	// previewSamples is how many accepted records Preview returns.
	previewSamples = 10
)

// Options configures a Service.
type Options struct {
	MaxRows   int
	Transform TransformOptions

	// Timeout bounds one run up to the commit. Zero means no limit.
	Timeout time.Duration

	// CatalogKey names the catalog the commit lock is taken on.
	CatalogKey string

	// LockWait bounds how long a run waits for the commit lock.
	LockWait time.Duration
}

// DefaultOptions returns Options with the stock defaults.
func DefaultOptions() Options {
	return Options{
		MaxRows:    DefaultMaxRows,
		Transform:  DefaultTransformOptions(),
		Timeout:    2 * time.Minute,
		CatalogKey: "default",
		LockWait:   30 * time.Second,
	}
}

// Service runs catalog imports: parse, infer, transform, dedup and commit.
type Service struct {
	store      CatalogStore
	categories CategoryDirectory
	limiter    *ImportLimiter
	lock       CommitLock
	opts       Options
}

// NewService wires the pipeline to its collaborators. limiter and lock may
// be nil; without a lock overlapping imports can both insert the same code.
func NewService(store CatalogStore, categories CategoryDirectory, limiter *ImportLimiter, lock CommitLock, opts Options) *Service {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.CatalogKey == "" {
		opts.CatalogKey = "default"
	}
	return &Service{
		store:      store,
		categories: categories,
		limiter:    limiter,
		lock:       lock,
		opts:       opts,
	}
}

// Analysis is what an operator sees before choosing a mapping.
type Analysis struct {
	FileName      string                   `json:"file_name"`
	Headers       []string                 `json:"headers"`
	Mapping       FieldMapping             `json:"mapping"`
	SharedTargets map[FieldTarget][]string `json:"shared_targets,omitempty"`
	RowCount      int                      `json:"row_count"`
	Truncated     bool                     `json:"truncated"`
	Samples       []RawRow                 `json:"samples"`
}

// PreviewResult is a dry-run Result plus the first accepted records.
type PreviewResult struct {
	Result
	Samples []CandidateRecord `json:"samples"`
}

// Analyze parses the file and proposes a mapping. Nothing is written.
func (s *Service) Analyze(ctx context.Context, fileName string, r io.Reader) (*Analysis, error) {
	log := runLogger(ctx, "file", fileName)

	table, err := Parse(ctx, r, ParseOptions{MaxRows: s.opts.MaxRows, FileName: fileName})
	if err != nil {
		log.Warn("analyze failed", "error", err)
		return nil, err
	}

	mapping := Infer(table.Headers)
	samples := table.Rows
	if len(samples) > analysisSamples {
		samples = samples[:analysisSamples]
	}

	log.Info("file analyzed", "headers", len(table.Headers), "rows", len(table.Rows), "truncated", table.Truncated)
	return &Analysis{
		FileName:      fileName,
		Headers:       table.Headers,
		Mapping:       mapping,
		SharedTargets: mapping.SharedTargets(),
		RowCount:      len(table.Rows),
		Truncated:     table.Truncated,
		Samples:       samples,
	}, nil
}

// Preview runs the whole pipeline, including dedup against the catalog,
// without inserting anything.
func (s *Service) Preview(ctx context.Context, fileName string, r io.Reader, overrides []MappingEntry) (*PreviewResult, error) {
	var out *PreviewResult
	err := s.run(ctx, fileName, r, overrides, "preview", func(ctx context.Context, p *plan) error {
		survivors, rejections := Dedup(p.records, p.existing)
		samples := survivors
		if len(samples) > previewSamples {
			samples = samples[:previewSamples]
		}
		out = &PreviewResult{
			Result: Result{
				Accepted:       len(survivors),
				Rejected:       len(rejections),
				Rejections:     rejections,
				CategoryCounts: countCategories(survivors),
			},
			Samples: samples,
		}
		p.finish(&out.Result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Import runs the whole pipeline and commits the accepted records.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader, overrides []MappingEntry) (*Result, error) {
	var out *Result
	err := s.run(ctx, fileName, r, overrides, "import", func(ctx context.Context, p *plan) error {
		res, err := Commit(ctx, s.store, p.records, p.existing)
		if err != nil {
			return err
		}
		p.finish(&res)
		out = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Categories lists the category directory.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// LimiterStatus reports import slot usage. Zero when no limiter is set.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	if s.limiter == nil {
		return ImportLimiterStatus{}
	}
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.WaitForDrain(ctx)
}

// plan is the state handed to the final stage of a run.
type plan struct {
	records    []CandidateRecord
	rejections []RowRejection
	existing   []Product
	truncated  bool
}

// finish merges transform rejections into res, sorted by line.
func (p *plan) finish(res *Result) {
	res.Truncated = p.truncated
	res.Rejections = append(append([]RowRejection{}, p.rejections...), res.Rejections...)
	res.Rejected = len(res.Rejections)
	sort.SliceStable(res.Rejections, func(i, j int) bool {
		return res.Rejections[i].Line < res.Rejections[j].Line
	})
	if res.CategoryCounts == nil {
		res.CategoryCounts = map[string]int{}
	}
}

// runLogger tags the request logger with args and the client, when known.
func runLogger(ctx context.Context, args ...any) *slog.Logger {
	if ip, ua := ClientFromContext(ctx); ip != "" {
		args = append(args, "client_ip", ip, "user_agent", ua)
	}
	return logging.WithFields(ctx, args...)
}

type finalStage func(ctx context.Context, p *plan) error

func (s *Service) run(ctx context.Context, fileName string, r io.Reader, overrides []MappingEntry, mode string, final finalStage) error {
	log := runLogger(ctx, "import_id", uuid.NewString(), "file", fileName, "mode", mode)
	start := time.Now()

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			log.Warn("import rejected", "error", err)
			return fmt.Errorf("acquire import slot: %w", err)
		}
		defer s.limiter.Release()
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	log.Info("import started")

	counter := NewCountingReader(r)
	table, err := Parse(ctx, counter, ParseOptions{MaxRows: s.opts.MaxRows, FileName: fileName})
	if err != nil {
		log.Warn("parse failed", "error", err, "bytes", counter.BytesRead)
		return err
	}
	log.Info("file parsed", "rows", len(table.Rows), "truncated", table.Truncated, "bytes", counter.BytesRead)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import cancelled after parse: %w", err)
	}

	mapping, err := MappingFromEntries(table.Headers, overrides)
	if err != nil {
		log.Warn("invalid mapping", "error", err)
		return err
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		log.Error("list categories failed", "error", err)
		return fmt.Errorf("list categories: %w", err)
	}

	records, rejections := Transform(table.Rows, mapping, categories, s.opts.Transform)
	log.Info("rows transformed", "records", len(records), "rejected", len(rejections))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import cancelled before commit: %w", err)
	}

	if mode == "import" && s.lock != nil {
		unlock, err := s.acquireLock(ctx)
		if err != nil {
			log.Warn("commit lock not acquired", "error", err)
			return err
		}
		defer unlock()
	}

	existing, err := s.store.ListProducts(ctx)
	if err != nil {
		log.Error("list products failed", "error", err)
		return fmt.Errorf("list products: %w", err)
	}

	p := &plan{
		records:    records,
		rejections: rejections,
		existing:   existing,
		truncated:  table.Truncated,
	}
	if err := final(ctx, p); err != nil {
		var commitErr *CommitError
		if errors.As(err, &commitErr) {
			log.Error("commit failed", "error", err, "attempted", commitErr.Attempted)
		} else {
			log.Warn("import aborted", "error", err)
		}
		return err
	}

	log.Info("import finished", "duration", time.Since(start))
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), error) {
	lockCtx := ctx
	if s.opts.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.opts.LockWait)
		defer cancel()
	}

	unlock, err := s.lock.Lock(lockCtx, s.opts.CatalogKey)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("import cancelled before commit: %w", ctx.Err())
		}
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	return unlock, nil
}
