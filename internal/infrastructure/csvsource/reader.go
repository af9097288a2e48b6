package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/theft-heatmap/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMissingColumn - во входном файле нет обязательной колонки
var ErrMissingColumn = errors.New("missing required column")

// Source читает CSV с заголовком и отдает строки как domain.RawRow.
// Кодировка UTF-8, BOM в начале файла допускается.
type Source struct {
	fs              afero.Fs
	path            string
	requiredColumns []string
	logger          *zap.Logger
}

// NewSource создает источник для файла path. requiredColumns проверяются по
// заголовку до чтения данных.
func NewSource(fs afero.Fs, path string, requiredColumns []string, logger *zap.Logger) *Source {
	return &Source{
		fs:              fs,
		path:            path,
		requiredColumns: requiredColumns,
		logger:          logger,
	}
}

// Path возвращает путь к файлу
func (s *Source) Path() string {
	return s.path
}

// ReadAll читает файл целиком. Любая ошибка чтения или разбора фатальна:
// частичный набор строк не возвращается.
func (s *Source) ReadAll(ctx context.Context) ([]domain.RawRow, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := s.read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.logger.Info("Input source read",
		zap.String("path", s.path),
		zap.Int("rows", len(rows)))

	return rows, nil
}

func (s *Source) read(ctx context.Context, r io.Reader) ([]domain.RawRow, error) {
	// BOMOverride снимает BOM и декодирует как UTF-8 (аналог utf-8-sig)
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, s.checkColumns(map[string]int{})
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if err := s.checkColumns(columns); err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, &row{columns: columns, record: record})
	}

	return rows, nil
}

func (s *Source) checkColumns(columns map[string]int) error {
	for _, name := range s.requiredColumns {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return nil
}

// row - строка CSV с доступом по имени колонки. Колонка, которой нет в
// заголовке или в короткой строке, считается отсутствующей.
type row struct {
	columns map[string]int
	record  []string
}

func (r *row) Get(column string) (string, bool) {
	i, ok := r.columns[column]
	if !ok || i >= len(r.record) {
		return "", false
	}
	return r.record[i], true
}
