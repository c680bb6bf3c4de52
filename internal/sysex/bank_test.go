package sysex

import (
	"testing"

	"github.com/spacejam/dx7render/internal/patch"
	"github.com/stretchr/testify/require"
)

func TestParseBankRejectsWrongSize(t *testing.T) {
	_, err := ParseBank(make([]byte, 10))
	require.Error(t, err)
}

func TestParseBankRejectsBadHeader(t *testing.T) {
	data := make([]byte, BulkSize)
	_, err := ParseBank(data)
	require.Error(t, err)
}

func TestParseBankRoundTripsThirtyTwoVoices(t *testing.T) {
	data := make([]byte, BulkSize)
	copy(data, header[:])

	want := make([]patch.Patch, NumPatches)
	for i := 0; i < NumPatches; i++ {
		var p patch.Patch
		p.Algorithm = uint8(i % 32)
		p.Feedback = uint8(i % 8)
		packed := patch.Pack(p)
		copy(data[len(header)+i*patch.SyxSize:], packed)
		unpacked, err := patch.Unpack(packed)
		require.NoError(t, err)
		want[i] = unpacked
	}

	bank, err := ParseBank(data)
	require.NoError(t, err)
	for i := range want {
		require.Equal(t, want[i], bank.Patches[i], "voice %d", i)
	}
}
