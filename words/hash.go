package words

import (
	"strconv"
	"unicode/utf16"
)

const offsetBasis uint32 = 0x811c9dc5

// Hash derives an entry id from word text.
//
// It is a 32-bit FNV-1a variant that mixes with a sum of shifted copies of
// the running hash instead of multiplying by the FNV prime, and it consumes
// UTF-16 code units rather than bytes. The result is the unpadded lowercase
// hex form of the final value. Ids persisted by the browser version of
// words-log were produced by this exact function, so any change here orphans
// existing data.
func Hash(s string) string {
	h := offsetBasis
	for _, c := range utf16.Encode([]rune(s)) {
		h ^= uint32(c)
		h += (h << 1) + (h << 4) + (h << 7) + (h << 8) + (h << 24)
	}
	return strconv.FormatUint(uint64(h), 16)
}
