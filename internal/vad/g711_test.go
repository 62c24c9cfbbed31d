package vad

import "testing"

func TestUlawDecodeSilenceIsNearZero(t *testing.T) {
	// 0xFF is the standard μ-law encoding of (positive) zero.
	got := ulawDecodeTable[0xFF]
	if got < -10 || got > 10 {
		t.Fatalf("decoded silence sample = %d, want near zero", got)
	}
}

func TestUlawRoundTripWithinQuantizationError(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 16000, -16000, 32000, -32000}
	encoded := EncodeUlaw(samples)
	decoded := DecodeUlaw(encoded)

	for i, original := range samples {
		diff := int(decoded[i]) - int(original)
		if diff < 0 {
			diff = -diff
		}
		// μ-law is lossy; at 8-bit encoding, ~4% relative error near full
		// scale is within the standard's expected quantization step.
		maxErr := int(original)/20 + 200
		if maxErr < 0 {
			maxErr = -maxErr
		}
		if diff > maxErr {
			t.Errorf("sample %d: original=%d decoded=%d diff=%d exceeds tolerance %d", i, original, decoded[i], diff, maxErr)
		}
	}
}

func TestDecodeUlawProducesOneSamplePerByte(t *testing.T) {
	frame := make([]byte, 160) // 20ms at 8kHz
	decoded := DecodeUlaw(frame)
	if len(decoded) != 160 {
		t.Fatalf("len(decoded) = %d, want 160", len(decoded))
	}
}
