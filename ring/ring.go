// Package ring implements a bounded, lock-free, multi-producer /
// single-consumer queue for fixed-layout values.
//
// Correctness rests entirely on a per-cell sequence number, not on mutual
// exclusion: producers race each other for the next logical head position
// via a compare-and-swap, the single consumer advances tail on its own, and
// the sequence word published by the producer's commit is what makes the
// payload visible to the consumer. See Push and Pop for the protocol.
package ring

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// line is cache-line-sized padding used to keep hot fields on separate
// cache lines under contention.
type line [unsafe.Sizeof(cpu.CacheLinePad{})]byte

// PushOutcome is the tagged result of Push.
type PushOutcome uint8

const (
	// PushSuccess means the value was committed at the reserved position.
	PushSuccess PushOutcome = iota
	// PushFull means the queue was full from the caller's viewpoint; the
	// value was not enqueued.
	PushFull
)

func (o PushOutcome) String() string {
	if o == PushSuccess {
		return "Success"
	}
	return "Full"
}

// PopOutcome is the tagged result of Pop.
type PopOutcome uint8

const (
	// PopEmpty means no element was available at the current tail.
	PopEmpty PopOutcome = iota
	// PopSuccess means an element was dequeued.
	PopSuccess
)

func (o PopOutcome) String() string {
	if o == PopSuccess {
		return "Success"
	}
	return "Empty"
}

// cell is one ring slot: a payload and the sequence word that gates access
// to it. The payload is touched only while the gate permits it; the access
// itself is a plain, non-atomic load or store.
type cell[T any] struct {
	seq atomix.Uint64
	val T
}

// Ring is a bounded MPSC queue of capacity C. Construct with New; the zero
// value is not usable.
type Ring[T any] struct {
	_          line
	head       atomix.Uint64 // next logical position producers will claim
	_          line
	tail       atomix.Uint64 // next logical position the consumer will claim
	_          line
	cells      []cell[T]
	capacity   uint64
	mask       uint64 // capacity-1, valid only when powerOfTwo
	powerOfTwo bool
	_          line
	pushCount atomix.Uint64
	popCount  atomix.Uint64
}

// New creates a ring of the given capacity. Capacity must be at least 2.
// Power-of-two capacities get a bit-mask index fast path; any other
// capacity falls back to a true modulo (see DESIGN.md for why: the CLI
// surface this queue is built for accepts 10240, which is not a power of
// two).
//
// Panics if capacity < 2.
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}

	n := uint64(capacity)
	r := &Ring[T]{
		cells:      make([]cell[T], n),
		capacity:   n,
		powerOfTwo: n&(n-1) == 0,
	}
	if r.powerOfTwo {
		r.mask = n - 1
	}

	for i := uint64(0); i < n; i++ {
		r.cells[i].seq.StoreRelaxed(i)
	}

	return r
}

func (r *Ring[T]) index(pos uint64) uint64 {
	if r.powerOfTwo {
		return pos & r.mask
	}
	return pos % r.capacity
}

// Push attempts to enqueue value at the current logical head. It never
// blocks, never overwrites an unread slot, and never drops a previously
// committed element.
//
// Safe for concurrent use by any number of producers.
func (r *Ring[T]) Push(value T) PushOutcome {
	sw := spin.Wait{}
	pos := r.head.LoadAcquire()
	for {
		c := &r.cells[r.index(pos)]
		seq := c.seq.LoadAcquire()
		diff := int64(seq) - int64(pos)

		switch {
		case diff == 0:
			if r.head.CompareAndSwapAcqRel(pos, pos+1) {
				c.val = value
				c.seq.StoreRelease(pos + 1)
				r.pushCount.AddAcqRel(1)
				return PushSuccess
			}
			pos = r.head.LoadAcquire()
		case diff < 0:
			return PushFull
		default:
			pos = r.head.LoadAcquire()
			sw.Once()
		}
	}
}

// Pop attempts to dequeue the element at the current logical tail. It
// never blocks. Elements are delivered in the order their producers
// committed them (step 4 of Push).
//
// Must be called from a single consumer goroutine; concurrent callers will
// corrupt the FIFO order (the CAS on tail is retained per the protocol's
// uniformity requirement, not to make this safe for multiple consumers).
func (r *Ring[T]) Pop() (T, PopOutcome) {
	sw := spin.Wait{}
	pos := r.tail.LoadAcquire()
	for {
		c := &r.cells[r.index(pos)]
		seq := c.seq.LoadAcquire()
		diff := int64(seq) - int64(pos+1)

		switch {
		case diff == 0:
			if r.tail.CompareAndSwapAcqRel(pos, pos+1) {
				value := c.val
				var zero T
				c.val = zero
				c.seq.StoreRelease(pos + r.capacity)
				r.popCount.AddAcqRel(1)
				return value, PopSuccess
			}
			pos = r.tail.LoadAcquire()
		case diff < 0:
			var zero T
			return zero, PopEmpty
		default:
			pos = r.tail.LoadAcquire()
			sw.Once()
		}
	}
}

// Cap returns the ring's fixed capacity in elements.
func (r *Ring[T]) Cap() int {
	return int(r.capacity)
}

// PushCount returns the best-effort count of successful Push calls.
// Accurate only once all producer goroutines have quiesced.
func (r *Ring[T]) PushCount() uint64 {
	return r.pushCount.Load()
}

// PopCount returns the best-effort count of successful Pop calls.
// Accurate only once the consumer goroutine has quiesced.
func (r *Ring[T]) PopCount() uint64 {
	return r.popCount.Load()
}
