package utils

// AverageFloat32 returns the arithmetic mean of the given samples, 0 for an
// empty slice.
func AverageFloat32(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float32
	for _, s := range samples {
		sum += s
	}
	return sum / float32(len(samples))
}
