// Package snapshot пишет статический JSON снимок точек для фронтенда.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"go.uber.org/zap"
)

// FileMode - права снимка: его читает статический сервер от другого пользователя
const FileMode = 0o644

type jsonExporter struct {
	fs     afero.Fs
	path   string
	logger *zap.Logger
}

// NewJSONExporter возвращает экспортер в файл path. Пустой path - экспорт выключен (nil).
func NewJSONExporter(fs afero.Fs, path string, logger *zap.Logger) repository.SnapshotExporter {
	if path == "" {
		return nil
	}
	return &jsonExporter{fs: fs, path: path, logger: logger}
}

// Export атомарно перезаписывает снимок: временный файл в том же каталоге + rename
func (e *jsonExporter) Export(ctx context.Context, points []domain.TheftPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if points == nil {
		points = []domain.TheftPoint{}
	}

	raw, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data := append(EscapeNonASCII(raw), '\n')

	dir := filepath.Dir(e.path)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := afero.TempFile(e.fs, dir, ".thefts-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = e.fs.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = e.fs.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	// TempFile создает файл с 0600
	if err := e.fs.Chmod(tmpName, FileMode); err != nil {
		_ = e.fs.Remove(tmpName)
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := e.fs.Rename(tmpName, e.path); err != nil {
		_ = e.fs.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	e.logger.Info("Snapshot exported",
		zap.String("path", e.path),
		zap.Int("points", len(points)),
		zap.Int("bytes", len(data)))
	return nil
}

// EscapeNonASCII заменяет каждый не-ASCII символ валидного JSON на \uXXXX,
// символы вне BMP - на суррогатную пару. Вне строк JSON не-ASCII не бывает.
func EscapeNonASCII(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		switch {
		case r < utf8.RuneSelf:
			buf.WriteByte(data[0])
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&buf, `\u%04x`, r)
		}
		data = data[size:]
	}
	return buf.Bytes()
}
