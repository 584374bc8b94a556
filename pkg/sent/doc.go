// Package sent decodes SAE J2716 SENT (Single Edge Nibble Transmission)
// pulse trains into fast-channel frames and slow-channel values.
package sent

// The decoder is fed one edge-to-edge interval, measured in raw timer
// clocks, per call. It calibrates the protocol unit time from the
// stream itself, synchronizes on the 56-tick sync pulse, assembles the
// 8-nibble fast-channel frame and validates it against three CRC-4
// dialects used by different sensor vendors. Bits 2 and 3 of every
// valid status nibble feed the slow channel decoder which recognizes
// Short and Enhanced serial messages.
//
// A Decoder does no I/O and no allocation. It is not safe for concurrent
// use: the caller owns one Decoder per physical input and serializes
// calls into it.
