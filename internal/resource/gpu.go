package resource

import (
	"os/exec"
	"runtime"

	"correctd/pkg/types"
)

// detectGPU probes the platform once at construction: Metal on Apple, CUDA
// where nvidia-smi is present, otherwise CPU-only.
func detectGPU() types.GPUAcceleration {
	if runtime.GOOS == "darwin" {
		return types.GPUMetal
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return types.GPUCUDA
	}
	return types.GPUNone
}
