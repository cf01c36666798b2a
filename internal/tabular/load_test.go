package tabular_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"treeline/internal/config"
	"treeline/internal/tabular"
)

func datasetConfig() config.Dataset {
	return config.Dataset{
		Name:            "abalone",
		Columns:         []string{"sex", "length", "rings"},
		LabelColumn:     "rings",
		CategoryColumns: []string{"sex"},
		ValidationSplit: 0.25,
		ShuffleSeed:     42,
	}
}

func TestLoadEncodesAndReorders(t *testing.T) {
	csv := "M,0.455,15\nF,0.53,9\nI,0.44,7\nM,0.33,10\n"
	table, err := tabular.Load(context.Background(), strings.NewReader(csv), datasetConfig())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !reflect.DeepEqual(table.Columns, []string{"rings", "sex", "length"}) {
		t.Fatalf("expected label-first column order, got %v", table.Columns)
	}
	if table.NumRows() != 4 {
		t.Fatalf("expected 4 rows, got %d", table.NumRows())
	}

	// Codes assign in sorted value order: F=0, I=1, M=2.
	want := [][]float64{
		{15, 2, 0.455},
		{9, 0, 0.53},
		{7, 1, 0.44},
		{10, 2, 0.33},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Fatalf("unexpected encoded rows: %v", table.Rows)
	}
}

func TestLoadRejectsNonNumericValue(t *testing.T) {
	csv := "M,not-a-number,15\n"
	if _, err := tabular.Load(context.Background(), strings.NewReader(csv), datasetConfig()); err == nil {
		t.Fatal("expected error for non-numeric feature value")
	}
}

func TestShuffleIsDeterministic(t *testing.T) {
	build := func() *tabular.Table {
		return &tabular.Table{
			Columns: []string{"label", "x"},
			Rows: [][]float64{
				{1, 0.1}, {2, 0.2}, {3, 0.3}, {4, 0.4}, {5, 0.5},
				{6, 0.6}, {7, 0.7}, {8, 0.8}, {9, 0.9}, {10, 1.0},
			},
		}
	}

	first := build()
	second := build()
	first.Shuffle(42)
	second.Shuffle(42)
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Fatal("expected identical order for identical seeds")
	}

	third := build()
	third.Shuffle(7)
	if reflect.DeepEqual(first.Rows, third.Rows) {
		t.Fatal("expected different order for different seeds")
	}
}

func TestSplitAssignsTrailingRowsToValidation(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"label", "x"},
		Rows: [][]float64{
			{1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0},
			{6, 0}, {7, 0}, {8, 0}, {9, 0}, {10, 0},
		},
	}

	train, validation := table.Split(0.2)
	if train.NumRows() != 8 || validation.NumRows() != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", train.NumRows(), validation.NumRows())
	}
	if validation.Rows[0][0] != 9 || validation.Rows[1][0] != 10 {
		t.Fatalf("expected trailing rows in validation, got %v", validation.Rows)
	}
}
