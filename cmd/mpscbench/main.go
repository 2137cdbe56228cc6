// Command mpscbench drives one run of the MPSC ring-queue benchmark and
// appends the result to a path-addressed result file.
//
// Usage:
//
//	go run ./cmd/mpscbench -q 1024 -p 8 -r results/benchmark_results.json
package main

import (
	"flag"
	"log"
	"os"
	"time"
	"unsafe"

	"github.com/kristoftunner/sigmax/bench"
	"github.com/kristoftunner/sigmax/order"
	"github.com/kristoftunner/sigmax/resultsink"
)

var allowedQueueSizes = map[int]bool{
	32: true, 64: true, 128: true, 256: true, 512: true,
	1024: true, 2048: true, 4096: true, 8192: true, 10240: true,
}

const runDuration = time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mpscbench", flag.ContinueOnError)
	var (
		queueSize     int
		producerCount int
		resultsPath   string
	)
	fs.IntVar(&queueSize, "q", 1024, "capacity in elements")
	fs.IntVar(&queueSize, "queue-size", 1024, "capacity in elements")
	fs.IntVar(&producerCount, "p", 1, "producer thread count")
	fs.IntVar(&producerCount, "producer-count", 1, "producer thread count")
	fs.StringVar(&resultsPath, "r", "results/benchmark_results.json", "path to the result file")
	fs.StringVar(&resultsPath, "results-path", "results/benchmark_results.json", "path to the result file")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if !allowedQueueSizes[queueSize] {
		log.Printf("invalid -q/--queue-size %d: allowed values are %s", queueSize, allowedQueueSizesString())
		return 1
	}
	if producerCount < 1 {
		log.Printf("invalid -p/--producer-count %d: must be >= 1", producerCount)
		return 1
	}

	log.Printf("running benchmark: queue-size=%d producer-count=%d duration=%s", queueSize, producerCount, runDuration)
	result := bench.Run(bench.Params{
		Capacity:      queueSize,
		ProducerCount: producerCount,
		Duration:      runDuration,
	})
	log.Printf("total_pops=%d successful_pops=%d push_count=%d pop_count=%d",
		result.TotalPops, result.SuccessfulPops, result.PushCount, result.PopCount)

	record := resultsink.Run{
		ProducerCount:  result.ProducerCount,
		QueueSize:      int64(result.Capacity) * int64(unsafe.Sizeof(order.Order{})),
		TotalPops:      result.TotalPops,
		SuccessfulPops: result.SuccessfulPops,
	}
	if err := resultsink.Append(resultsPath, record); err != nil {
		log.Printf("failed to save benchmark results: %v", err)
		return 1
	}
	log.Printf("benchmark results saved to %s", resultsPath)
	return 0
}

func allowedQueueSizesString() string {
	return "{32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 10240}"
}
