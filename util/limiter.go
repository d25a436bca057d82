/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Thu Jan 11 07:40:22 2018 mstenber
 * Last modified: Wed Feb 13 11:02:15 2019 mstenber
 * Edit time:     24 min
 *
 */

package util

import (
	"runtime"
	"sync"
)

const DefaultPerCPU = 4

// ParallelLimiter ensures that at most LimitTotal things run at
// once. It is essentially a semaphore with trivial API (either defer
// Limited()(), or Go(func)).
type ParallelLimiter struct {
	// How many things are allowed per CPU (defaults to DefaultPerCPU)
	LimitPerCPU int

	// How many things are allowed in total (by default derived from
	// LimitPerCPU)
	LimitTotal int

	lock    sync.Mutex
	cond    *sync.Cond
	running int
}

func (self *ParallelLimiter) init() {
	if self.LimitTotal == 0 {
		if self.LimitPerCPU == 0 {
			self.LimitPerCPU = DefaultPerCPU
		}
		self.LimitTotal = runtime.NumCPU() * self.LimitPerCPU
	}
	self.cond = sync.NewCond(&self.lock)
}

// Limited reserves one execution slot, blocking until one is free.
func (self *ParallelLimiter) Limited() func() {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.cond == nil {
		self.init()
	}
	for self.running >= self.LimitTotal {
		self.cond.Wait()
	}
	self.running++
	return func() {
		self.lock.Lock()
		defer self.lock.Unlock()
		self.running--
		self.cond.Signal()
	}
}

// Running returns number of slots currently in use.
func (self *ParallelLimiter) Running() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.running
}

func (self *ParallelLimiter) Go(cb func()) {
	unlock := self.Limited()
	go func() {
		defer unlock()
		cb()
	}()
}
