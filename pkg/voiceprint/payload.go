package voiceprint

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embedding payload format (little-endian):
//
//	[4B magic "VPEB"] [4B version] [4B dim] [dim × 4B float32]
//
// The magic and version guard against decoding foreign or stale bytes after
// a format change.

var payloadMagic = [4]byte{'V', 'P', 'E', 'B'}

const payloadVersion uint32 = 1

// encodeEmbedding serializes an embedding into its payload representation.
func encodeEmbedding(emb []float32) []byte {
	buf := make([]byte, 0, 12+4*len(emb))
	buf = append(buf, payloadMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, payloadVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(emb)))
	for _, v := range emb {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding parses a payload produced by encodeEmbedding.
func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("voiceprint: embedding payload truncated: %d bytes", len(data))
	}
	if [4]byte(data[:4]) != payloadMagic {
		return nil, fmt.Errorf("voiceprint: bad embedding payload magic %q", data[:4])
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != payloadVersion {
		return nil, fmt.Errorf("voiceprint: unsupported embedding payload version %d", v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	if len(data) != 12+4*dim {
		return nil, fmt.Errorf("voiceprint: embedding payload length %d does not match dim %d", len(data), dim)
	}
	emb := make([]float32, dim)
	for i := range emb {
		emb[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[12+4*i:]))
	}
	return emb, nil
}
