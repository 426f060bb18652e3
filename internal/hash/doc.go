// Package hash computes the CRC32-Castagnoli checksums that protect segment
// section tables.
//
//	checksum := hash.CRC32C(table)
//
// Streaming use:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
