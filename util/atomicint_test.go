/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Wed Mar 21 11:25:02 2018 mstenber
 * Last modified: Tue Feb 12 09:12:01 2019 mstenber
 * Edit time:     3 min
 *
 */

package util

import (
	"testing"

	"github.com/stvp/assert"
)

func TestAtomicInt(t *testing.T) {
	t.Parallel()
	var i AtomicInt
	var wg SimpleWaitGroup
	for j := 0; j < 100; j++ {
		wg.Go(func() {
			i.Inc()
		})
	}
	wg.Wait()
	assert.Equal(t, i.GetInt(), 100)
	i.Set(7)
	assert.Equal(t, i.Add(-2), int64(5))
}
