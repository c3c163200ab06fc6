package redisearch

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// chunkKey derives a fixed-length hash key for a chunk so document IDs of
// any shape produce valid Redis keys. Identical coordinates always map to
// the same key, which makes re-ingestion overwrite instead of duplicate.
func chunkKey(prefix, documentID string, chunkIndex int) string {
	h, _ := blake2b.New(16, nil)
	fmt.Fprintf(h, "%s:%d", documentID, chunkIndex)
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// encodeVector packs a float32 vector into the little-endian byte layout
// RediSearch expects for FLOAT32 vector fields.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian FLOAT32 blob.
func decodeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

// escapeTag escapes punctuation in TAG query values. RediSearch treats
// unescaped punctuation as separators inside {...} groups.
func escapeTag(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
