// Package resultsink appends benchmark run records to a path-addressed
// JSON result file, preserving previously recorded runs and refreshing the
// one-time CPU/cache topology block on every write.
package resultsink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"

	"github.com/kristoftunner/sigmax/cpuprobe"
)

// Run is one per-run benchmark record.
type Run struct {
	ProducerCount  int   `json:"producerCount"`
	QueueSize      int64 `json:"queueSize"`
	TotalPops      int64 `json:"totalPops"`
	SuccessfulPops int64 `json:"successfulPops"`
}

// document is the top-level shape of the result file.
type document struct {
	BenchmarkResults []Run         `json:"benchmarkResults"`
	CPUInfo          cpuprobe.Info `json:"cpuInfo"`
}

// Append adds run to the result file at path, preserving any runs already
// recorded there, and (re)writes the cpuInfo block with the current probe
// reading. The file is created if it does not exist.
func Append(path string, run Run) error {
	doc, err := load(path)
	if err != nil {
		return fmt.Errorf("resultsink: load %s: %w", path, err)
	}

	doc.BenchmarkResults = append(doc.BenchmarkResults, run)
	doc.CPUInfo = cpuprobe.Query()

	encoded, err := sonnet.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("resultsink: encode %s: %w", path, err)
	}
	encoded = append(encoded, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("resultsink: create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("resultsink: write %s: %w", path, err)
	}
	return nil
}

func load(path string) (document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{}, nil
		}
		return document{}, err
	}
	if len(raw) == 0 {
		return document{}, nil
	}

	var doc document
	if err := sonnet.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("malformed existing result file: %w", err)
	}
	return doc, nil
}
