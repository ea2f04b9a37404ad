package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// ErrUnknownTable is returned when --only-table names a table that is not configured.
var ErrUnknownTable = errors.New("unknown table")

// Options controls one upload run.
type Options struct {
	DataDir    string
	DryRun     bool
	SkipSchema bool
	OnlyTable  string
	Delay      time.Duration // pause between tables, skipped in dry runs
}

// Result is the outcome of one table upload.
type Result struct {
	Table  string
	Method Method
	Bytes  int
	Rows   int
	Err    error
}

// Summary aggregates table results.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
}

// OK reports whether every table was uploaded.
func (s Summary) OK() bool { return s.Failed == 0 }

// Uploader pushes the schema and table files to the database.
type Uploader struct {
	client Client
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates an Uploader.
func New(client Client, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{client: client, logger: logger, sleep: sleepCtx}
}

// Run checks connectivity, uploads the schema, then every selected table in dependency order.
// Table failures are collected in the summary; health, schema and option errors abort the run.
func (u *Uploader) Run(ctx context.Context, opts Options) (Summary, error) {
	tables, err := selectTables(opts.OnlyTable)
	if err != nil {
		return Summary{}, err
	}

	if opts.DryRun {
		u.logger.Info("dry run, no uploads will be performed")
	} else {
		u.logger.Info("checking API connectivity")
		if err := u.client.Health(ctx); err != nil {
			return Summary{}, fmt.Errorf("health check: %w", err)
		}
		u.logger.Info("API is healthy")
	}

	if opts.SkipSchema {
		u.logger.Info("skipping schema upload")
	} else if err := u.uploadSchema(ctx, opts); err != nil {
		return Summary{}, fmt.Errorf("upload schema: %w", err)
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	u.logger.Info("uploading tables", zap.Strings("tables", names))

	var sum Summary
	for i, t := range tables {
		res := u.uploadTable(ctx, opts, t)
		sum.Results = append(sum.Results, res)
		if res.Err != nil {
			sum.Failed++
			u.logger.Error("table upload failed", zap.String("table", t.Name), zap.Error(res.Err))
		} else {
			sum.Succeeded++
		}

		if !opts.DryRun && opts.Delay > 0 && i < len(tables)-1 {
			if err := u.sleep(ctx, opts.Delay); err != nil {
				return sum, err
			}
		}
	}

	u.logger.Info("upload summary",
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("total", sum.Succeeded+sum.Failed),
	)
	return sum, nil
}

func (u *Uploader) uploadSchema(ctx context.Context, opts Options) error {
	path := filepath.Join(opts.DataDir, SchemaFile)
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc struct {
		Schema map[string]json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if opts.DryRun {
		u.logger.Info("would upload schema", zap.Strings("tables", sortedKeys(doc.Schema)))
		return nil
	}

	u.logger.Info("uploading schema", zap.Int("tables", len(doc.Schema)))
	if err := u.client.PutSchema(ctx, raw); err != nil {
		return err
	}
	u.logger.Info("schema uploaded")
	return nil
}

func (u *Uploader) uploadTable(ctx context.Context, opts Options, t Table) Result {
	res := Result{Table: t.Name, Method: t.Method}
	log := u.logger.With(zap.String("table", t.Name))

	path := filepath.Join(opts.DataDir, t.File)
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		res.Err = fmt.Errorf("read data file: %w", err)
		return res
	}
	res.Bytes = len(content)
	log.Info("processing table", zap.String("size", humanize.IBytes(uint64(len(content)))))

	if t.Method == MethodFile {
		res.Err = u.uploadFile(ctx, opts.DryRun, t, content, log)
		return res
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(content, &rows); err != nil {
		res.Err = fmt.Errorf("data file %s must contain a JSON array: %w", t.File, err)
		return res
	}
	res.Rows = len(rows)

	var compact bytes.Buffer
	if err := json.Compact(&compact, content); err != nil {
		res.Err = fmt.Errorf("compact %s: %w", t.File, err)
		return res
	}

	if compact.Len() > MaxBatchBytes {
		log.Info("data exceeds batch limit, switching to file upload",
			zap.String("size", humanize.IBytes(uint64(compact.Len()))))
		res.Method = MethodFile
		res.Err = u.uploadFile(ctx, opts.DryRun, t, content, log)
		return res
	}

	if opts.DryRun {
		log.Info("would upload records via batch API", zap.Int("records", len(rows)))
		return res
	}

	log.Info("uploading records via batch API", zap.Int("records", len(rows)))
	if err := u.client.UploadBatch(ctx, t.Name, compact.Bytes()); err != nil {
		res.Err = fmt.Errorf("batch upload: %w", err)
		return res
	}
	log.Info("records uploaded", zap.Int("records", len(rows)))
	return res
}

func (u *Uploader) uploadFile(ctx context.Context, dryRun bool, t Table, content []byte, log *zap.Logger) error {
	size := humanize.IBytes(uint64(len(content)))
	if dryRun {
		log.Info("would upload file via file API", zap.String("file", t.File), zap.String("size", size))
		return nil
	}

	log.Info("uploading file via file API", zap.String("file", t.File), zap.String("size", size))
	if err := u.client.UploadFile(ctx, t.Name, t.File, content); err != nil {
		return fmt.Errorf("file upload: %w", err)
	}
	log.Info("file uploaded")
	return nil
}

func selectTables(only string) ([]Table, error) {
	if only == "" {
		return Tables, nil
	}
	t, ok := Lookup(only)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, only)
	}
	return []Table{t}, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
