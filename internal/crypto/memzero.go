package crypto

import "runtime"

// Wipe zeroes each buffer. This is best-effort; the Go runtime may already
// have copied the contents elsewhere.
//
//go:noinline
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
	runtime.KeepAlive(bufs)
}
