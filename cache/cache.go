/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 10:02:33 2019 mstenber
 * Last modified: Fri Feb 15 09:31:18 2019 mstenber
 * Edit time:     96 min
 *
 */

// cache package provides fixed capacity cache of JBOD blocks keyed by
// (disk, block), with approximate least-frequently-used eviction.
//
// Access counter of an entry grows only on hits (and updates), and
// is reset to 1 whenever a key is (re)inserted. When the cache is
// full, the entry with the smallest counter is evicted; ties go to
// the lowest slot.
package cache

import (
	"container/heap"
	"fmt"
	"io"

	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/pkg/errors"
)

const (
	MinCapacity = 2
	MaxCapacity = 4096
)

var (
	ErrActive          = errors.New("cache already active")
	ErrNotActive       = errors.New("cache not active")
	ErrInvalidCapacity = errors.New("invalid cache capacity")
	ErrInvalidKey      = errors.New("disk or block out of range")
	ErrNoBuffer        = errors.New("buffer missing or too short")
	ErrExists          = errors.New("block already cached")
)

type key struct {
	disk, block int
}

type entry struct {
	key
	valid    bool
	accesses int
	slot     int

	// position in Cache.order, -1 if not there
	heapIndex int

	data [jbod.BlockSize]byte
}

// Cache is not safe for concurrent use. Zero value is an inactive
// cache; use Create to make it useful.
type Cache struct {
	slots    []entry
	index    map[key]*entry
	order    accessOrder
	occupied int

	hits, queries int
}

// Create allocates capacity slots, all invalid.
func (self *Cache) Create(capacity int) error {
	mlog.Printf2("cache/cache", "c.Create %d", capacity)
	if self.slots != nil {
		return ErrActive
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return errors.Wrapf(ErrInvalidCapacity, "%d", capacity)
	}
	self.slots = make([]entry, capacity)
	for i := range self.slots {
		self.slots[i].slot = i
		self.slots[i].heapIndex = -1
	}
	self.index = make(map[key]*entry, capacity)
	self.order = make(accessOrder, 0, capacity)
	self.resetCounters()
	return nil
}

// Destroy releases the slots and returns to inactive state.
func (self *Cache) Destroy() error {
	mlog.Printf2("cache/cache", "c.Destroy")
	if self.slots == nil {
		return ErrNotActive
	}
	self.slots = nil
	self.index = nil
	self.order = nil
	self.resetCounters()
	return nil
}

func (self *Cache) resetCounters() {
	self.hits = 0
	self.queries = 0
	self.occupied = 0
}

// Enabled is true if the cache is usable at all.
func (self *Cache) Enabled() bool {
	return self.slots != nil && len(self.slots) > 0
}

// Len returns the number of valid entries.
func (self *Cache) Len() int {
	return self.occupied
}

// Cap returns the capacity given to Create (0 if inactive).
func (self *Cache) Cap() int {
	return len(self.slots)
}

func validKey(disk, block int) bool {
	return jbod.ValidDisk(disk) && jbod.ValidBlock(block)
}

// Lookup copies cached block (disk, block) to buf. It returns false
// on a miss, or if the cache is not active, buf is too short, the
// cache is empty, or the key is out of range; only genuine lookups
// are counted as queries.
func (self *Cache) Lookup(disk, block int, buf []byte) bool {
	if self.slots == nil || len(buf) < jbod.BlockSize || self.occupied == 0 || !validKey(disk, block) {
		return false
	}
	self.queries++
	e, ok := self.index[key{disk, block}]
	if !ok {
		mlog.Printf2("cache/cache", "c.Lookup %d/%d miss", disk, block)
		return false
	}
	copy(buf, e.data[:])
	self.hits++
	self.touch(e)
	mlog.Printf2("cache/cache", "c.Lookup %d/%d hit (%d accesses)", disk, block, e.accesses)
	return true
}

func (self *Cache) touch(e *entry) {
	e.accesses++
	if e.heapIndex >= 0 {
		heap.Fix(&self.order, e.heapIndex)
	}
}

// Update overwrites the payload of entry (disk, block), if any, and
// counts it as an access. Validity is not checked: slots that were
// never filled carry the zero key (0, 0) and are updated by it too.
func (self *Cache) Update(disk, block int, buf []byte) {
	k := key{disk, block}
	if e, ok := self.index[k]; ok {
		mlog.Printf2("cache/cache", "c.Update %d/%d", disk, block)
		copy(e.data[:], buf)
		self.touch(e)
	}
	if k != (key{}) {
		return
	}
	for i := self.occupied; i < len(self.slots); i++ {
		e := &self.slots[i]
		if !e.valid && e.key == k {
			copy(e.data[:], buf)
			e.accesses++
		}
	}
}

// Insert adds block (disk, block). It fails if the key is already
// cached. When full, the least accessed entry is replaced.
func (self *Cache) Insert(disk, block int, buf []byte) error {
	if self.slots == nil {
		return ErrNotActive
	}
	if len(buf) < jbod.BlockSize {
		return ErrNoBuffer
	}
	if !validKey(disk, block) {
		return errors.Wrapf(ErrInvalidKey, "%d/%d", disk, block)
	}
	k := key{disk, block}
	if _, ok := self.index[k]; ok {
		return ErrExists
	}
	var e *entry
	if self.occupied == len(self.slots) {
		e = self.order[0]
		mlog.Printf2("cache/cache", "c.Insert %d/%d evicting %d/%d from slot %d (%d accesses)", disk, block, e.disk, e.block, e.slot, e.accesses)
		delete(self.index, e.key)
	} else {
		// slots are filled in order and never released one by one,
		// so the first invalid slot is at self.occupied
		e = &self.slots[self.occupied]
		mlog.Printf2("cache/cache", "c.Insert %d/%d to slot %d", disk, block, e.slot)
		e.valid = true
		self.occupied++
	}
	e.key = k
	e.accesses = 1
	copy(e.data[:], buf)
	self.index[k] = e
	if e.heapIndex < 0 {
		heap.Push(&self.order, e)
	} else {
		heap.Fix(&self.order, e.heapIndex)
	}
	return nil
}

type Stats struct {
	Hits, Queries int
}

func (self Stats) HitRate() float64 {
	if self.Queries == 0 {
		return 0
	}
	return 100 * float64(self.Hits) / float64(self.Queries)
}

func (self *Cache) Stats() Stats {
	return Stats{Hits: self.hits, Queries: self.queries}
}

// PrintHitRate writes the hit/query counters to w.
func (self *Cache) PrintHitRate(w io.Writer) {
	st := self.Stats()
	fmt.Fprintf(w, "num_hits: %d, num_queries: %d\n", st.Hits, st.Queries)
	fmt.Fprintf(w, "Hit rate: %5.1f%%\n", st.HitRate())
}

// accessOrder is a min-heap of valid entries by (accesses, slot).
type accessOrder []*entry

func (self accessOrder) Len() int {
	return len(self)
}

func (self accessOrder) Less(i, j int) bool {
	a, b := self[i], self[j]
	if a.accesses != b.accesses {
		return a.accesses < b.accesses
	}
	return a.slot < b.slot
}

func (self accessOrder) Swap(i, j int) {
	self[i], self[j] = self[j], self[i]
	self[i].heapIndex = i
	self[j].heapIndex = j
}

func (self *accessOrder) Push(x interface{}) {
	e := x.(*entry)
	e.heapIndex = len(*self)
	*self = append(*self, e)
}

func (self *accessOrder) Pop() interface{} {
	old := *self
	n := len(old)
	e := old[n-1]
	e.heapIndex = -1
	*self = old[:n-1]
	return e
}
