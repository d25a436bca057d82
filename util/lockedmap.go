/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Fri Jan  5 02:05:40 2018 mstenber
 * Last modified: Fri Feb 15 18:31:10 2019 mstenber
 * Edit time:     24 min
 *
 */

package util

import "github.com/fingon/go-jbod/mlog"

// MutexLockedMap provides one mutex per key (e.g. per disk). Mutexes
// exist only while someone holds or waits for them.
type MutexLockedMap struct {
	l     MutexLocked
	locks map[interface{}]*keyLock
}

type keyLock struct {
	MutexLocked
	users int
}

// Len returns number of keys currently in use.
func (self *MutexLockedMap) Len() int {
	defer self.l.Locked()()
	return len(self.locks)
}

// Locked locks key, and returns the function to unlock it.
func (self *MutexLockedMap) Locked(key interface{}) func() {
	self.l.Lock()
	if self.locks == nil {
		self.locks = make(map[interface{}]*keyLock)
	}
	kl := self.locks[key]
	if kl == nil {
		mlog.Printf2("util/lockedmap", "Locked created lock %v", key)
		kl = &keyLock{}
		self.locks[key] = kl
	}
	kl.users++
	self.l.Unlock()

	kl.Lock()
	return func() {
		defer self.l.Locked()()
		kl.users--
		if kl.users == 0 {
			mlog.Printf2("util/lockedmap", "Unlocked %v, last user", key)
			delete(self.locks, key)
		}
		kl.Unlock()
	}
}
