package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// HeaderFormat is the printf format of the first line.
const HeaderFormat = "%d %d %.4f %.17f %.17f %.17f %.17f\n"

// TextWriter writes a grid to a file. The file appears atomically: the data
// goes to a temporary file in the same directory which is then renamed.
type TextWriter struct {
	path   string
	logger *zap.Logger
}

// NewTextWriter creates a writer targeting path.
func NewTextWriter(path string, logger *zap.Logger) *TextWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextWriter{path: path, logger: logger}
}

// Path returns the target path.
func (w *TextWriter) Path() string { return w.path }

// Write persists g with its metadata. On failure no file is left at the target path.
func (w *TextWriter) Write(g *grid.Grid, meta types.RunMetadata) (err error) {
	if w.path == "" {
		return ErrNoPath
	}
	if !g.Complete() {
		return fmt.Errorf("%w: %d rows missing", ErrIncompleteGrid, g.Remaining())
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteTo(tmp, g, meta); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", w.path, err)
	}
	if err = os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("rename into %s: %w", w.path, err)
	}

	w.logger.Info("grid written",
		zap.String("path", w.path),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Duration("elapsed", meta.Elapsed))
	return nil
}

// WriteTo serializes g and meta to out.
func WriteTo(out io.Writer, g *grid.Grid, meta types.RunMetadata) error {
	bw := bufio.NewWriterSize(out, 1<<16)

	if _, err := fmt.Fprintf(bw, HeaderFormat,
		meta.Width, meta.Height, max(meta.Elapsed.Seconds(), 0),
		meta.Window.XMin, meta.Window.XMax, meta.Window.YMin, meta.Window.YMax); err != nil {
		return err
	}

	buf := make([]byte, 0, 16)
	for row := 0; row < g.Height(); row++ {
		for col, v := range g.Row(row) {
			buf = buf[:0]
			if col > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(v), 10)
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
