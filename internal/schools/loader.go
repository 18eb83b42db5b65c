package schools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"donations/internal/schools/s3source"
	"donations/internal/schools/sheetsource"
)

// ObjectFetcher returns the key (used to pick the format) and body of a remote document.
type ObjectFetcher interface {
	Fetch(ctx context.Context, uri string) (string, []byte, error)
}

// RowReader returns the raw name/alias rows of a spreadsheet.
type RowReader interface {
	Rows(ctx context.Context, uri string) ([][]string, error)
}

// Loader resolves an alias source URI. Remote clients are created lazily when
// left nil so file-only deployments need no cloud credentials.
type Loader struct {
	S3     ObjectFetcher
	Sheets RowReader
	Logger *slog.Logger
}

// Load reads the alias source with a default Loader.
func Load(ctx context.Context, source string, logger *slog.Logger) (*Directory, error) {
	return (&Loader{Logger: logger}).Load(ctx, source)
}

func (l *Loader) Load(ctx context.Context, source string) (*Directory, error) {
	entries, err := l.entries(ctx, strings.TrimSpace(source))
	if err != nil {
		return nil, err
	}
	dir := NewDirectory(entries, l.Logger)
	if dir.Len() == 0 {
		return nil, fmt.Errorf("alias source %s has no usable entries", source)
	}
	return dir, nil
}

func (l *Loader) entries(ctx context.Context, source string) ([]Entry, error) {
	switch {
	case source == "":
		return nil, fmt.Errorf("alias source is empty")
	case strings.HasPrefix(source, "s3://"):
		if l.S3 == nil {
			f, err := s3source.New(ctx)
			if err != nil {
				return nil, err
			}
			l.S3 = f
		}
		key, body, err := l.S3.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return Parse(key, body)
	case strings.HasPrefix(source, "sheets://"):
		if l.Sheets == nil {
			c, err := sheetsource.NewFromEnv(ctx)
			if err != nil {
				return nil, err
			}
			l.Sheets = c
		}
		rows, err := l.Sheets.Rows(ctx, source)
		if err != nil {
			return nil, err
		}
		return EntriesFromRows(rows), nil
	default:
		path := strings.TrimPrefix(source, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read alias file: %w", err)
		}
		return Parse(path, data)
	}
}
