package audio

// ApplyGain 应用音量增益。volume == 1.0 时原样返回输入切片，不做拷贝；
// 其余情况返回新切片，每个采样乘以增益后硬限幅到 [-1.0, 1.0]，防止削波失真。
func ApplyGain(samples []float32, volume float64) []float32 {
	if volume == 1.0 {
		return samples
	}

	out := make([]float32, len(samples))
	for i, s := range samples {
		v := float64(s) * volume
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		out[i] = float32(v)
	}
	return out
}
