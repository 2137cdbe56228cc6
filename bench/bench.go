// Package bench drives one end-to-end run of the producer/consumer
// benchmark harness described by the queue's external interfaces: P
// producer goroutines and a single consumer goroutine contend on a fresh
// ring.Ring for a fixed measurement window, after which aggregate counters
// are reported.
package bench

import (
	"log"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"github.com/kristoftunner/sigmax/order"
	"github.com/kristoftunner/sigmax/ring"
)

// Params configures one benchmark run.
type Params struct {
	Capacity      int
	ProducerCount int
	Duration      time.Duration
}

// Result is the aggregate outcome of one run: the fields resultsink writes
// to the result file, plus the raw telemetry counters for local
// diagnostics.
type Result struct {
	ProducerCount  int
	Capacity       int
	TotalPops      int64
	SuccessfulPops int64
	PushCount      uint64
	PopCount       uint64
}

// Run constructs a fresh queue of the given capacity, releases P producer
// goroutines and one consumer goroutine through a shared start gate, lets
// them run for the measurement window, then signals stop and joins every
// goroutine before returning the aggregate counters.
//
// Producers tight-loop pushing order events and ignore Full, per the
// harness contract; the consumer counts every Pop attempt and every
// successful one.
func Run(p Params) Result {
	q := ring.New[order.Order](p.Capacity)
	log.Printf("bench: constructed ring capacity=%d producers=%d", q.Cap(), p.ProducerCount)

	var ready sync.WaitGroup
	ready.Add(1)
	var stop atomix.Bool
	var loggedFull sync.Once

	var producers sync.WaitGroup
	producers.Add(p.ProducerCount)
	for i := 0; i < p.ProducerCount; i++ {
		go func(id int) {
			defer producers.Done()
			ready.Wait()
			var counter uint64
			backoff := iox.Backoff{}
			for !stop.LoadAcquire() {
				ev := order.Order{
					ID:           counter,
					InstrumentID: "AAPL",
					Side:         order.Buy,
					State:        order.New,
					Quantity:     100,
					Price:        100,
					Timestamp:    1_000_000_000_000_000_000,
				}
				counter++
				if q.Push(ev) == ring.PushSuccess {
					backoff.Reset()
					continue
				}
				loggedFull.Do(func() { log.Printf("bench: queue reported Full at least once (producer %d)", id) })
				backoff.Wait()
			}
		}(i)
	}

	var consumer sync.WaitGroup
	consumer.Add(1)
	var totalPops, successfulPops int64
	go func() {
		defer consumer.Done()
		ready.Wait()
		backoff := iox.Backoff{}
		for !stop.LoadAcquire() {
			totalPops++
			if _, outcome := q.Pop(); outcome == ring.PopSuccess {
				successfulPops++
				backoff.Reset()
				continue
			}
			backoff.Wait()
		}
	}()

	ready.Done()
	time.Sleep(p.Duration)
	stop.StoreRelease(true)

	producers.Wait()
	consumer.Wait()

	result := Result{
		ProducerCount:  p.ProducerCount,
		Capacity:       p.Capacity,
		TotalPops:      totalPops,
		SuccessfulPops: successfulPops,
		PushCount:      q.PushCount(),
		PopCount:       q.PopCount(),
	}
	log.Printf("bench: run complete producers=%d capacity=%d total_pops=%d successful_pops=%d",
		result.ProducerCount, result.Capacity, result.TotalPops, result.SuccessfulPops)
	return result
}

// Sweep runs one benchmark per (capacity, producerCount) combination in the
// given lists, mirroring the original harness's nested sweep over queue
// sizes and producer counts. Combinations run sequentially; callers that
// want parallel sweeps should fan out over Run themselves.
func Sweep(capacities []int, producerCounts []int, duration time.Duration) []Result {
	results := make([]Result, 0, len(capacities)*len(producerCounts))
	for _, capacity := range capacities {
		for _, producerCount := range producerCounts {
			results = append(results, Run(Params{
				Capacity:      capacity,
				ProducerCount: producerCount,
				Duration:      duration,
			}))
		}
	}
	return results
}
