package http

import "unsafe"

// weakString returns a string aliasing p without copying. The result is
// only valid while p's backing storage is unchanged; response accessors
// guard this with the buffer generation check.
func weakString(p []byte) string {
	if len(p) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(p), len(p))
}
