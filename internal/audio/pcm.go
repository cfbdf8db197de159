package audio

import "encoding/binary"

// Int16ToBytes packs samples as little-endian linear16 PCM.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// BytesToInt16 unpacks little-endian linear16 PCM. A trailing odd byte is
// dropped.
func BytesToInt16(data []byte) []int16 {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

// EstimateSeconds derives playback duration from a linear16 payload size.
func EstimateSeconds(data []byte, sampleRate, channels int) float64 {
	if sampleRate <= 0 || channels <= 0 || len(data) == 0 {
		return 0
	}
	return float64(len(data)) / float64(2*sampleRate*channels)
}
