package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/mrgeneko/namknob/internal/domain"
)

// Zip encodes entries into a zip container. Level 0 stores entries
// uncompressed; levels 1-9 deflate them.
type Zip struct {
	modified time.Time
}

func NewZip() *Zip {
	return &Zip{modified: time.Now()}
}

func (z *Zip) Archive(entries []domain.Entry, opts domain.ArchiveOptions) ([]byte, error) {
	if opts.Level < 0 || opts.Level > flate.BestCompression {
		return nil, fmt.Errorf("unsupported compression level %d", opts.Level)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	method := zip.Store
	if opts.Level > 0 {
		method = zip.Deflate
		level := opts.Level
		w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}

	for _, e := range entries {
		header := &zip.FileHeader{
			Name:     e.Name,
			Method:   method,
			Modified: z.modified,
		}
		fw, err := w.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Content); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", e.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return buf.Bytes(), nil
}
