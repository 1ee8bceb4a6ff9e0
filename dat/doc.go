// Package dat decodes the game's DAT tables.
//
// A DAT file is a u32 row count, a run of fixed-width rows, a marker of
// 0xBB bytes, and a variable data section holding strings and list
// elements. The row width is not stored anywhere; [New] infers it from the
// marker position. Column types come from an external [Schema].
//
// Decoding is tolerant per field: a truncated row yields [KindUnknown]
// values and an out-of-range string offset yields an empty string. Only a
// file whose row layout cannot be established at all is an error.
package dat
