package pngcodec

import "sync"

// Reflected CRC-32 as required by the PNG chunk layer: polynomial
// 0xEDB88320, initial and final XOR 0xFFFFFFFF. The 256-entry table is
// built on first use and read-only afterwards, so concurrent decodes and
// encodes can share it without locking.
var (
	crcTable     [256]uint32
	crcTableOnce sync.Once
)

func buildCRCTable() {
	for n := range crcTable {
		c := uint32(n)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = 0xEDB88320 ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		crcTable[n] = c
	}
}

// crc32Update extends a running checksum over data. seed is the value
// returned by a previous call, or 0 to start a fresh checksum; chaining
// calls over consecutive spans yields the checksum of their concatenation.
func crc32Update(seed uint32, data []byte) uint32 {
	crcTableOnce.Do(buildCRCTable)
	c := seed ^ 0xFFFFFFFF
	for _, b := range data {
		c = crcTable[byte(c)^b] ^ (c >> 8)
	}
	return c ^ 0xFFFFFFFF
}
