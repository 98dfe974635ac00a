package compare

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// materializeKeys streams the extraction result and writes one key per line
// to outputPath. The file is created or truncated; a failure mid-write just
// requires re-running the step.
func (r *Runner) materializeKeys(ctx context.Context, handle, outputPath string) error {
	r.Log.Info("Writing result file", zap.String("path", outputPath))

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create result file %s: %w", outputPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	count := 0
	err = r.Engine.Fetch(ctx, handle, func(row []string) error {
		if len(row) == 0 {
			return nil
		}
		if _, err := w.WriteString(row[0] + "\n"); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("write result file %s: %w", outputPath, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush result file %s: %w", outputPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file %s: %w", outputPath, err)
	}

	r.Log.Info("Result file written", zap.String("path", outputPath), zap.Int("keys", count))
	return nil
}
