// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Process-level probes shared by every client.

package control

import "runtime"

// RegisterPlatformProbes adds runtime facts about the host process.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS
	})
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
