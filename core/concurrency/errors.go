// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "github.com/momentics/hioload-wsc/api"

var (
	// ErrQueueFull indicates every slot is occupied.
	ErrQueueFull = api.ErrQueueFull

	// ErrQueueEmpty indicates no slot is ready to drain.
	ErrQueueEmpty = api.ErrQueueEmpty
)
