package columnar

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"treeline/internal/config"
	"treeline/internal/tabular"
)

// Codec resolves a configured compression name to a Parquet codec.
func Codec(name string) (compress.Codec, error) {
	switch name {
	case "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "uncompressed":
		return &parquet.Uncompressed, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", name)
	}
}

// fieldName pins physical column order. Group fields serialize in name
// order, and the training container requires the label in the first column,
// so an index prefix keeps the pipeline's column order intact.
func fieldName(index int, column string) string {
	return fmt.Sprintf("%02d_%s", index, column)
}

// WriteTable writes a table to path as a Parquet file, cutting a row group
// every cfg.RowGroupRows rows.
func WriteTable(path string, table *tabular.Table, cfg config.Columnar) error {
	codec, err := Codec(cfg.Compression)
	if err != nil {
		return err
	}

	group := parquet.Group{}
	fields := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		fields[i] = fieldName(i, col)
		group[fields[i]] = parquet.Leaf(parquet.DoubleType)
	}
	schema := parquet.NewSchema("dataset", group)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writer := parquet.NewGenericWriter[map[string]any](file, schema, parquet.Compression(codec))

	chunk := cfg.RowGroupRows
	if chunk <= 0 {
		chunk = len(table.Rows)
	}
	for start := 0; start < len(table.Rows); start += chunk {
		end := start + chunk
		if end > len(table.Rows) {
			end = len(table.Rows)
		}

		batch := make([]map[string]any, 0, end-start)
		for _, row := range table.Rows[start:end] {
			record := make(map[string]any, len(fields))
			for i, field := range fields {
				record[field] = row[i]
			}
			batch = append(batch, record)
		}
		if _, err := writer.Write(batch); err != nil {
			file.Close()
			return fmt.Errorf("write row group: %w", err)
		}
		if err := writer.Flush(); err != nil {
			file.Close()
			return fmt.Errorf("flush row group: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
