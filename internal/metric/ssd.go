package metric

import (
	"golang.org/x/sys/cpu"
)

// Sum of squared differences over packed RGB buffers, with the scalar
// variant picked once at startup.
//
// All variants subtract in int32 and accumulate exact integers into a
// float64, so they return identical results. The 8-way unrolled loop only
// pays off on wide-issue cores, which we approximate by the presence of
// AVX2 (x86-64) or ASIMD (arm64).

// Kernel identifies an SSD implementation.
type Kernel int

const (
	KernelNaive     Kernel = iota // one pixel per iteration
	KernelUnrolled4               // four pixels per iteration
	KernelUnrolled8               // eight pixels per iteration
)

func (k Kernel) String() string {
	switch k {
	case KernelNaive:
		return "naive"
	case KernelUnrolled4:
		return "unrolled4"
	case KernelUnrolled8:
		return "unrolled8"
	default:
		return "unknown"
	}
}

// ActiveKernel reports which kernel was selected at initialization.
var ActiveKernel Kernel

// fastSSD is set by init() based on CPU feature detection.
var fastSSD func(a, b []uint8, stride, width, height int) float64

func init() {
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		setKernel(KernelUnrolled8)
	} else {
		setKernel(KernelUnrolled4)
	}
}

func setKernel(k Kernel) {
	ActiveKernel = k
	fastSSD = kernelFunc(k)
}

func kernelFunc(k Kernel) func(a, b []uint8, stride, width, height int) float64 {
	switch k {
	case KernelNaive:
		return ssdNaive
	case KernelUnrolled8:
		return ssdUnrolled8
	default:
		return ssdUnrolled4
	}
}
