// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Runtime introspection points exposed through the debug probe registry.

package control

import (
	"runtime"
)

// RegisterPlatformProbes registers process-level probes.
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
