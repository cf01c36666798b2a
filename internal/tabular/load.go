package tabular

import (
	"context"
	"fmt"
	"io"
	"sort"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"

	"treeline/internal/config"
	"treeline/internal/services"
)

// Load parses the raw headerless CSV into a Table. Categorical columns are
// ordinal-encoded with codes assigned in sorted value order so repeat runs
// produce identical encodings, and the label column is moved to the front.
func Load(ctx context.Context, r io.ReadSeeker, ds config.Dataset) (*Table, error) {
	categorical := make(map[string]bool, len(ds.CategoryColumns))
	for _, col := range ds.CategoryColumns {
		categorical[col] = true
	}

	dictate := make(map[string]interface{}, len(ds.Columns))
	for _, col := range ds.Columns {
		if categorical[col] {
			dictate[col] = ""
		} else {
			dictate[col] = float64(0)
		}
	}

	df, err := imports.LoadFromCSV(ctx, r, imports.CSVLoadOptions{
		Headers:          ds.Columns,
		DictateDataType:  dictate,
		TrimLeadingSpace: true,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "convert", "parse csv", "", err)
	}

	rows, categories, err := collectRows(df, ds.Columns, categorical)
	if err != nil {
		return nil, err
	}

	codes := make(map[string]map[string]float64, len(categories))
	for col, values := range categories {
		sorted := make([]string, 0, len(values))
		for v := range values {
			sorted = append(sorted, v)
		}
		sort.Strings(sorted)

		colCodes := make(map[string]float64, len(sorted))
		for i, v := range sorted {
			colCodes[v] = float64(i)
		}
		codes[col] = colCodes
	}

	ordered := labelFirst(ds.Columns, ds.LabelColumn)
	table := &Table{
		Columns: ordered,
		Rows:    make([][]float64, 0, len(rows)),
	}
	for i, raw := range rows {
		encoded := make([]float64, len(ordered))
		for j, col := range ordered {
			value := raw[col]
			if categorical[col] {
				text, ok := value.(string)
				if !ok {
					return nil, services.Wrap(services.ErrValidation, "convert", "encode row",
						fmt.Sprintf("row %d column %q is not text", i, col), nil)
				}
				encoded[j] = codes[col][text]
				continue
			}
			number, ok := value.(float64)
			if !ok {
				return nil, services.Wrap(services.ErrValidation, "convert", "encode row",
					fmt.Sprintf("row %d column %q is not numeric", i, col), nil)
			}
			encoded[j] = number
		}
		table.Rows = append(table.Rows, encoded)
	}
	return table, nil
}

func collectRows(df *dataframe.DataFrame, columns []string, categorical map[string]bool) ([]map[string]interface{}, map[string]map[string]struct{}, error) {
	categories := make(map[string]map[string]struct{})
	for col := range categorical {
		categories[col] = make(map[string]struct{})
	}

	var rows []map[string]interface{}
	iterator := df.ValuesIterator(dataframe.ValuesOptions{InitialRow: 0, Step: 1, DontReadLock: true})
	for {
		row, vals, _ := iterator()
		if row == nil {
			break
		}

		raw := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			value := vals[col]
			if value == nil {
				return nil, nil, services.Wrap(services.ErrValidation, "convert", "read row",
					fmt.Sprintf("row %d column %q is missing", *row, col), nil)
			}
			raw[col] = value
			if categorical[col] {
				if text, ok := value.(string); ok {
					categories[col][text] = struct{}{}
				}
			}
		}
		rows = append(rows, raw)
	}
	return rows, categories, nil
}

func labelFirst(columns []string, label string) []string {
	ordered := make([]string, 0, len(columns))
	ordered = append(ordered, label)
	for _, col := range columns {
		if col != label {
			ordered = append(ordered, col)
		}
	}
	return ordered
}
