package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultCollectionPrefix is prepended to sanitised pack ids to form
// the backing collection name.
const DefaultCollectionPrefix = "context_pack_"

// DefaultRegistryCollection holds registry entries, one per pack.
const DefaultRegistryCollection = "pack_registry"

// MakeDocumentID derives the deterministic document identifier for a chunk.
// The format is <pack_id>-<source_index:02>-<chunk_index:04>. Indices wider
// than the padding are printed in full, so the mapping stays injective.
func MakeDocumentID(packID string, sourceIndex, chunkIndex int) string {
	return fmt.Sprintf("%s-%02d-%04d", packID, sourceIndex, chunkIndex)
}

// SanitisePackID lowercases the pack id and replaces every character that is
// not a letter, digit, '_' or '-' with '_'.
func SanitisePackID(packID string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(packID) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// CollectionName returns the store collection backing a pack.
// An empty prefix falls back to DefaultCollectionPrefix.
func CollectionName(prefix, packID string) string {
	if prefix == "" {
		prefix = DefaultCollectionPrefix
	}
	return prefix + SanitisePackID(packID)
}
