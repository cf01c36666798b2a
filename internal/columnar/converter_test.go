package columnar_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"treeline/internal/columnar"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/testsupport"
)

func TestConverterExecuteWritesBothChannels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dataset.Columns = []string{"sex", "length", "rings"}
	cfg.Dataset.LabelColumn = "rings"
	cfg.Dataset.CategoryColumns = []string{"sex"}
	cfg.Columnar.RowGroupRows = 8

	var csv strings.Builder
	sexes := []string{"M", "F", "I"}
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&csv, "%s,%.3f,%d\n", sexes[i%3], float64(i)/20, 5+i%15)
	}
	rawPath := filepath.Join(cfg.Paths.StagingDir, "run-1", "abalone.data")
	testsupport.WriteFile(t, rawPath, csv.String())

	converter := columnar.NewConverter(cfg, logging.NewNop())
	run := &queue.Run{ID: 1, DatasetName: "abalone", RawFile: rawPath}

	ctx := context.Background()
	if err := converter.Prepare(ctx, run); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := converter.Execute(ctx, run); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if run.TrainRows+run.ValidationRows != 20 {
		t.Fatalf("expected 20 total rows, got %d train + %d validation", run.TrainRows, run.ValidationRows)
	}
	if run.ValidationRows != 4 {
		t.Fatalf("expected 4 validation rows for 0.2 split, got %d", run.ValidationRows)
	}

	train := openParquet(t, run.TrainFile)
	if train.NumRows() != run.TrainRows {
		t.Fatalf("train channel has %d rows, run records %d", train.NumRows(), run.TrainRows)
	}
	validation := openParquet(t, run.ValidationFile)
	if validation.NumRows() != run.ValidationRows {
		t.Fatalf("validation channel has %d rows, run records %d", validation.NumRows(), run.ValidationRows)
	}
}

func TestConverterPrepareRequiresStagedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	converter := columnar.NewConverter(cfg, logging.NewNop())

	run := &queue.Run{ID: 2, DatasetName: "abalone"}
	if err := converter.Prepare(context.Background(), run); err == nil {
		t.Fatal("expected error for missing staged file")
	}
}
