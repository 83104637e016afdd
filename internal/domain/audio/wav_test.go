package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncode_HeaderLayout(t *testing.T) {
	samples := make([]float32, 16000)
	data, err := Encode(samples, 16000)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if len(data) != 44+16000*2 {
		t.Fatalf("expected %d bytes (44 header + 32000 data), got %d", 44+32000, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Errorf("sample rate in header = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels in header = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 32000 {
		t.Errorf("data chunk size = %d, want 32000", got)
	}
}

func TestEncode_InvalidSampleRate(t *testing.T) {
	if _, err := Encode([]float32{0}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestEncodeDecode_Roundtrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0, 0.123}
	data, err := Encode(samples, 22050)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, rate, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rate != 22050 {
		t.Errorf("sample rate = %d, want 22050", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		// 16bit 量化误差上限
		if math.Abs(float64(decoded[i]-samples[i])) > 1.0/32000 {
			t.Errorf("sample %d: got %f, want %f", i, decoded[i], samples[i])
		}
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, _, err := Decode([]byte("not a wav file at all, nowhere near")); err == nil {
		t.Error("expected error for non-WAV input")
	}
	if _, _, err := Decode(nil); err == nil {
		t.Error("expected error for empty input")
	}
}
