package audio

import (
	"bytes"
	"encoding/binary"
	"math"

	"tts-server-go/internal/platform/errors"
)

// WAV 容器固定参数：单声道 16bit PCM
const (
	wavHeaderSize    = 44
	wavChannels      = 1
	wavBitsPerSample = 16
)

// Encode 将归一化采样编码为完整的 WAV 文件字节(44 字节头 + PCM16 小端数据)。
func Encode(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, errors.New(errors.KindValidation, "audio.encode", "无效的采样率")
	}

	dataLen := len(samples) * wavBitsPerSample / 8
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataLen))

	if err := writeWavHeader(buf, dataLen, sampleRate, wavChannels, wavBitsPerSample); err != nil {
		return nil, errors.Wrap(errors.KindUnknown, "audio.encode", "写入 WAV 头失败", err)
	}

	for _, s := range samples {
		v := float64(s) * 32767.0
		if v > 32767.0 {
			v = 32767.0
		} else if v < -32768.0 {
			v = -32768.0
		}
		if err := binary.Write(buf, binary.LittleEndian, int16(math.Round(v))); err != nil {
			return nil, errors.Wrap(errors.KindUnknown, "audio.encode", "写入 PCM 数据失败", err)
		}
	}

	return buf.Bytes(), nil
}

// Decode 解析 WAV 文件字节，返回归一化采样和采样率。
// 只支持单声道 16bit PCM，遇到其他格式返回错误。
func Decode(data []byte) ([]float32, int, error) {
	const op = "audio.decode"

	if len(data) < wavHeaderSize {
		return nil, 0, errors.New(errors.KindUnknown, op, "WAV 数据过短")
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, 0, errors.New(errors.KindUnknown, op, "不是合法的 WAV 文件")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		pcm           []byte
	)

	// 逐块扫描，跳过 fmt/data 之外的扩展块
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, errors.New(errors.KindUnknown, op, "fmt 块长度不足")
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// 块按 2 字节对齐
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	if sampleRate <= 0 || pcm == nil {
		return nil, 0, errors.New(errors.KindUnknown, op, "缺少 fmt 或 data 块")
	}
	if channels != wavChannels || bitsPerSample != wavBitsPerSample {
		return nil, 0, errors.New(errors.KindUnknown, op,
			"仅支持单声道 16bit PCM")
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(v) / 32767.0
	}
	return samples, sampleRate, nil
}

// writeWavHeader 写入 44 字节标准 WAV 头
func writeWavHeader(buf *bytes.Buffer, dataLen, sampleRate, channels, bitsPerSample int) error {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	if err := binary.Write(buf, binary.LittleEndian, uint32(36+dataLen)); err != nil {
		return err
	}
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	for _, v := range []any{
		uint32(16), // fmt 块长度
		uint16(1),  // PCM
		uint16(channels),
		uint32(sampleRate),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(bitsPerSample),
	} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	buf.WriteString("data")
	return binary.Write(buf, binary.LittleEndian, uint32(dataLen))
}
