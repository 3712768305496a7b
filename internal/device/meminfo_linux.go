//go:build linux

package device

import "golang.org/x/sys/unix"

// totalHostMemory reports the host's total physical memory in bytes, or 0
// when the kernel will not say.
func totalHostMemory() uint64 {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0
	}
	return uint64(si.Totalram) * uint64(si.Unit)
}
