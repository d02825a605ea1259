// Package gc implements the Garbage Collector: a stop-the-world,
// non-moving, mark-and-sweep collector with a lag-space promotion
// discipline, generalized from the teacher VM's allocation bookkeeping
// (pkg/vm/vm.go's stack/global accounting) to three tracked object lists.
package gc

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/kristofer/hybris/pkg/herror"
	"github.com/kristofer/hybris/pkg/value"
)

// Config enumerates the collector's tunable thresholds.
type Config struct {
	// CollectThreshold is the tracked-byte total, in bytes, that triggers a
	// cycle at the next safe point. Default 2 MB.
	CollectThreshold uint64
	// MMThreshold is the tracked-byte total that is fatal (OutOfMemory) if
	// exceeded. Default 128 MB.
	MMThreshold uint64
	// LagThreshold is the survival-count/collection-count ratio at which a
	// heap object migrates to the lag space. Default 0.7.
	LagThreshold float64
}

// DefaultConfig matches the configuration section's documented defaults.
func DefaultConfig() Config {
	return Config{
		CollectThreshold: 2 * 1024 * 1024,
		MMThreshold:      128 * 1024 * 1024,
		LagThreshold:     0.7,
	}
}

// trackedObject is one entry in a tracked list: the value itself, its
// accounted allocation size, and its per-object survival counter used by
// the lag-space promotion rule.
type trackedObject struct {
	obj       value.Value
	size      uint64
	survivals int
}

// Root is anything the collector can ask for live roots: one or more
// frames plus their temporary-root sets. pkg/frame.Scope implements this.
type Root interface {
	// RootValues returns every value currently bound to a name or pushed
	// as a temporary root across all frames this root owns.
	RootValues() []value.Value
}

// Collector owns the three tracked lists and enforces the single
// statement-boundary collection contract.
type Collector struct {
	mu     *sync.Mutex // the GC mutex named in the five-mutex acquisition order
	cfg    Config
	heap   []*trackedObject
	lag    []*trackedObject
	consts []*trackedObject

	usage      uint64
	cycleCount uint64

	log zerolog.Logger
}

// New constructs a Collector. gcMutex is supplied by pkg/vm.VM so the GC
// mutex's identity (and acquisition order relative to the other four named
// mutexes) is owned by the VM, not duplicated here.
func New(cfg Config, gcMutex *sync.Mutex, logger zerolog.Logger) *Collector {
	return &Collector{mu: gcMutex, cfg: cfg, log: logger}
}

// Track implements the allocation contract: increments usage, appends obj
// to heap, and fails with OutOfMemory if usage would reach mm_threshold.
func (c *Collector) Track(obj value.Value, size uint64) (value.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.usage+size >= c.cfg.MMThreshold {
		return nil, herror.New(herror.OutOfMemory,
			"allocation of %s would exceed the %s memory ceiling",
			humanize.Bytes(size), humanize.Bytes(c.cfg.MMThreshold))
	}
	c.usage += size
	c.heap = append(c.heap, &trackedObject{obj: obj, size: size})
	return obj, nil
}

// TrackConstant records obj directly into the constants list, exempting it
// from collection for the VM's lifetime (predefined constants, class
// prototypes installed at startup).
func (c *Collector) TrackConstant(obj value.Value, size uint64) value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj.Flags().Constant = true
	c.usage += size
	c.consts = append(c.consts, &trackedObject{obj: obj, size: size})
	return obj
}

// Usage reports total tracked bytes across all three lists.
func (c *Collector) Usage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// ShouldCollect reports whether tracked usage has crossed collect_threshold,
// the signal the engine checks at each statement boundary.
func (c *Collector) ShouldCollect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage >= c.cfg.CollectThreshold
}

// mark recursively sets the Referenced flag on v and every value Traverse
// yields from it, short-circuiting when the flag is already in the target
// state to terminate cycles in the object graph.
func mark(v value.Value) {
	if v == nil {
		return
	}
	flags := v.Flags()
	if flags.Referenced {
		return
	}
	flags.Referenced = true
	for i := 0; ; i++ {
		child, ok := v.Traverse(i)
		if !ok {
			break
		}
		mark(child)
	}
}

// Collect runs one full mark-and-sweep cycle. It must only be called at a
// statement boundary (never mid-expression), per the collector's contract,
// so that engine temporaries pushed onto a frame's tmp root set are not
// mistaken for garbage.
func (c *Collector) Collect(root Root) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range root.RootValues() {
		mark(v)
	}

	c.cycleCount++

	var promoted int
	var freedBytes uint64

	if len(c.lag) > len(c.heap) {
		var lagFreed uint64
		var lagPromoted int
		c.lag, lagFreed, lagPromoted = c.sweep(c.lag, true)
		freedBytes += lagFreed
		promoted += lagPromoted
	}

	var heapFreed uint64
	var heapPromoted int
	c.heap, heapFreed, heapPromoted = c.sweep(c.heap, false)
	freedBytes += heapFreed
	promoted += heapPromoted

	c.usage -= freedBytes

	c.log.Debug().
		Uint64("cycle", c.cycleCount).
		Str("reclaimed", humanize.Bytes(freedBytes)).
		Str("usage", humanize.Bytes(c.usage)).
		Int("promoted", promoted).
		Int("heap_len", len(c.heap)).
		Int("lag_len", len(c.lag)).
		Msg("gc cycle complete")
}

// sweep walks one tracked list, migrating survivors (and promoting ones
// that cross the lag threshold, when fromLag is false) and freeing the
// rest. It returns the surviving list, the byte total freed, and the
// number of objects promoted into lag this pass.
func (c *Collector) sweep(list []*trackedObject, fromLag bool) ([]*trackedObject, uint64, int) {
	survivors := list[:0]
	var freedBytes uint64
	var promoted int

	for _, t := range list {
		if t.obj.Flags().Constant {
			c.consts = append(c.consts, t)
			continue
		}
		if t.obj.Flags().Referenced {
			t.obj.Flags().Referenced = false
			t.survivals++
			if !fromLag && c.cycleCount > 0 &&
				float64(t.survivals)/float64(c.cycleCount) >= c.cfg.LagThreshold {
				c.lag = append(c.lag, t)
				promoted++
				continue
			}
			survivors = append(survivors, t)
			continue
		}
		freedBytes += t.size
	}
	return survivors, freedBytes, promoted
}

// Stats reports the current shape of the three tracked lists, for
// diagnostics and tests.
type Stats struct {
	HeapLen, LagLen, ConstLen int
	Usage                     uint64
	Cycles                    uint64
}

func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		HeapLen:  len(c.heap),
		LagLen:   len(c.lag),
		ConstLen: len(c.consts),
		Usage:    c.usage,
		Cycles:   c.cycleCount,
	}
}
