//go:build !linux

package device

// totalHostMemory reports 0 on platforms without a sysinfo source; callers
// render unknown memory as "n/a".
func totalHostMemory() uint64 {
	return 0
}
