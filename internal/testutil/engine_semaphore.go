// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// EngineSemaphore returns a process-wide buffered channel that limits how many
// integration tests drive a real engine concurrently. Acquire by sending,
// release by receiving:
//
//	sem := testutil.EngineSemaphore()
//	sem <- struct{}{}
//	defer func() { <-sem }()
//
// Capacity comes from DOCKERINO_TEST_ENGINE_PARALLEL when set to a positive
// integer, otherwise min(GOMAXPROCS, 2).
var EngineSemaphore = sync.OnceValue(func() chan struct{} {
	return make(chan struct{}, engineParallelism())
})

func engineParallelism() int {
	if v := os.Getenv("DOCKERINO_TEST_ENGINE_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return min(runtime.GOMAXPROCS(0), 2)
}
