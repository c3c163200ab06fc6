package badger

import (
	"fmt"
	"strings"
)

// Key prefixes for stored data
const (
	chunkPrefix = "chunk"
)

// makeChunkKey generates the key for one chunk of a document.
// Format: chunk:<documentID>:<index as zero-padded hex> so that chunks of a
// document iterate in chunk order.
func makeChunkKey(documentID string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%08x", chunkPrefix, documentID, index))
}

// makeDocumentPrefix generates the key prefix covering every chunk of a
// document.
func makeDocumentPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, documentID))
}

// makeScanPrefix generates the key prefix covering all chunks.
func makeScanPrefix() []byte {
	return []byte(chunkPrefix + ":")
}

// documentIDFromKey extracts the document ID from a chunk key.
// Returns an empty string for keys that do not match the chunk layout.
func documentIDFromKey(key []byte) string {
	s := string(key)
	s, ok := strings.CutPrefix(s, chunkPrefix+":")
	if !ok {
		return ""
	}
	idx := strings.LastIndexByte(s, ':')
	if idx <= 0 {
		return ""
	}
	return s[:idx]
}
