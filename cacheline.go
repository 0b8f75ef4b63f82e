package tmap

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// cacheLineSize is used in structure padding to prevent false sharing.
const cacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})
