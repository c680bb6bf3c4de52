// Package sysex parses DX7 bulk voice-bank SysEx dumps (32 packed voices
// plus header and checksum) into Patch values, grounded on
// original_source/src/fm/patch.rs's PatchBank/HEADER_BANK constants.
package sysex

import (
	"fmt"

	"github.com/spacejam/dx7render/internal/patch"
)

// NumPatches is the number of voices in one DX7 bulk bank dump.
const NumPatches = 32

// header is the fixed six-byte bulk-dump SysEx preamble DX7 bank files
// begin with: F0 (start of exclusive), 43 (Yamaha), channel 00, format 09
// (32-voice bulk), and the 14-bit byte count 0x20 0x00 (4096 data bytes).
var header = [6]byte{0xF0, 0x43, 0x00, 0x09, 0x20, 0x00}

// BulkSize is the total size in bytes of one 32-voice bulk dump: the
// 6-byte header, 32 packed 128-byte voices, and a 2-byte trailer
// (checksum + end-of-exclusive).
const BulkSize = len(header) + NumPatches*patch.SyxSize + 2

// Bank is a parsed 32-voice DX7 bulk dump.
type Bank struct {
	Patches [NumPatches]patch.Patch
}

// ParseBank decodes a full 4104-byte bulk voice-bank dump.
func ParseBank(data []byte) (Bank, error) {
	if len(data) != BulkSize {
		return Bank{}, fmt.Errorf("sysex: bank must be exactly %d bytes, got %d", BulkSize, len(data))
	}
	for i, b := range header {
		if data[i] != b {
			return Bank{}, fmt.Errorf("sysex: bank header mismatch at byte %d: got %#x want %#x", i, data[i], b)
		}
	}

	var bank Bank
	voices := data[len(header):]
	for i := 0; i < NumPatches; i++ {
		start := i * patch.SyxSize
		p, err := patch.Unpack(voices[start : start+patch.SyxSize])
		if err != nil {
			return Bank{}, fmt.Errorf("sysex: voice %d: %w", i, err)
		}
		bank.Patches[i] = p
	}
	return bank, nil
}
