// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_stub.go) guarded by build tags.

package affinity

import (
	"errors"
	"runtime"
)

// ErrNotSupported is returned where thread affinity cannot be set.
var ErrNotSupported = errors.New("affinity: not supported on this platform")

// SetAffinity pins the current OS thread to a given logical CPU/core on supported platforms.
// The caller must hold runtime.LockOSThread for the pin to stick to its goroutine.
func SetAffinity(cpuID int) error {
	if cpuID < 0 {
		return errors.New("affinity: negative cpu id")
	}
	return setAffinityPlatform(cpuID)
}

// PinGoroutine locks the calling goroutine to its OS thread and pins that
// thread to cpuID. The lock is kept for the goroutine's lifetime so the
// pinned thread is retired with it instead of being handed to other work.
func PinGoroutine(cpuID int) error {
	runtime.LockOSThread()
	if err := SetAffinity(cpuID); err != nil {
		runtime.UnlockOSThread()
		return err
	}
	return nil
}
