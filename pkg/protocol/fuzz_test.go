package protocol

import (
	"testing"

	"github.com/vango-dev/vsync/pkg/dom"
)

// FuzzDecodeFrame checks that frame decoding never panics and that accepted
// frames re-encode to the bytes they were decoded from.
func FuzzDecodeFrame(f *testing.F) {
	f.Add([]byte{0x02, 0x04, 0x00, 0x00})
	f.Add([]byte{0x05, 0x04, 0x00, 0x02, 0x00, 0x01})
	f.Add([]byte{0x02, 0x00, 0xFF, 0xFF})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		frame, err := DecodeFrame(data)
		if err != nil {
			return
		}
		encoded := frame.Encode()
		if string(encoded) != string(data[:len(encoded)]) {
			t.Errorf("re-encoded frame %x does not prefix input %x", encoded, data)
		}
	})
}

// FuzzDecodeMutations checks that decoding arbitrary payloads never panics
// and that accepted payloads survive a round trip.
func FuzzDecodeMutations(f *testing.F) {
	f.Add(EncodeMutations(&MutationsFrame{Seq: 1, Mutations: allOps()}))
	f.Add(EncodeMutations(&MutationsFrame{}))
	f.Add([]byte{0x00, 0xFF, 0xFF, 0xFF, 0x0F})
	f.Add([]byte{0x01, 0x01, byte(dom.OpSetProperty), 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x0F})

	f.Fuzz(func(t *testing.T, data []byte) {
		mf, err := DecodeMutations(data)
		if err != nil {
			return
		}
		again, err := DecodeMutations(EncodeMutations(mf))
		if err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		if len(again.Mutations) != len(mf.Mutations) || again.Seq != mf.Seq {
			t.Errorf("round trip changed batch: %d/%d mutations", len(again.Mutations), len(mf.Mutations))
		}
	})
}
