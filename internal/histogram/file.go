package histogram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"solitaire-sim/internal/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FileStore keeps the histogram in a text file with one "<outcome> <count>"
// line per outcome. A missing file reads as all zeros. Merges rewrite the
// whole file through a temp file and rename, so readers never observe a
// half-written histogram.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (Histogram, error) {
	ctx, span := tracing.StartSpan(ctx, "histogram.FileStore.Load")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return Histogram{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Merge(ctx context.Context, h Histogram) error {
	ctx, span := tracing.StartSpan(ctx, "histogram.FileStore.Merge")
	defer span.End()
	span.SetAttributes(attribute.String("histogram.path", s.path), attribute.Int64("histogram.trials", h.Total()))

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read")
		return err
	}
	current.Merge(h)
	if err := s.write(current); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write")
		return err
	}
	return nil
}

func (s *FileStore) read() (Histogram, error) {
	var h Histogram
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return h, nil
		}
		return h, fmt.Errorf("FileStore: open %s: %w", s.path, err)
	}
	defer f.Close()

	h, err = parseLines(bufio.NewScanner(f))
	if err != nil {
		return Histogram{}, fmt.Errorf("FileStore: %s: %w", s.path, err)
	}
	return h, nil
}

// parseLines reads "<outcome> <count>" lines. Blank lines are ignored and
// outcomes without a line count as zero; anything else unexpected is ErrCorrupt.
func parseLines(sc *bufio.Scanner) (Histogram, error) {
	var h Histogram
	var seen [Buckets]bool
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return Histogram{}, fmt.Errorf("%w: line %d: want \"<outcome> <count>\", got %q", ErrCorrupt, lineNo, line)
		}
		outcome, err := strconv.Atoi(fields[0])
		if err != nil || outcome < 0 || outcome >= Buckets {
			return Histogram{}, fmt.Errorf("%w: line %d: bad outcome %q", ErrCorrupt, lineNo, fields[0])
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || count < 0 {
			return Histogram{}, fmt.Errorf("%w: line %d: bad count %q", ErrCorrupt, lineNo, fields[1])
		}
		if seen[outcome] {
			return Histogram{}, fmt.Errorf("%w: line %d: duplicate outcome %d", ErrCorrupt, lineNo, outcome)
		}
		seen[outcome] = true
		h[outcome] = count
	}
	if err := sc.Err(); err != nil {
		return Histogram{}, fmt.Errorf("scan: %w", err)
	}
	return h, nil
}

func (s *FileStore) write(h Histogram) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("FileStore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("FileStore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := h.WriteLines(w); err != nil {
		return fmt.Errorf("FileStore: write: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("FileStore: flush: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("FileStore: chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("FileStore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("FileStore: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("FileStore: rename: %w", err)
	}
	committed = true
	return nil
}
