package protocol

import (
	"testing"

	"github.com/vango-dev/vsync/pkg/dom"
)

func benchMutations(n int) []dom.Mutation {
	muts := make([]dom.Mutation, 0, n)
	for i := 0; len(muts) < n; i++ {
		id := uint64(i + 2)
		muts = append(muts,
			dom.Mutation{Op: dom.OpCreateElement, Node: id, Name: "li"},
			dom.Mutation{Op: dom.OpSetProperty, Node: id, Name: "class", Value: "item"},
			dom.Mutation{Op: dom.OpInsertBefore, Node: id, Parent: 1, Ref: 0},
		)
	}
	return muts[:n]
}

func BenchmarkEncodeMutations(b *testing.B) {
	mf := &MutationsFrame{Seq: 1, Mutations: benchMutations(1000)}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = EncodeMutations(mf)
	}
}

func BenchmarkDecodeMutations(b *testing.B) {
	payload := EncodeMutations(&MutationsFrame{Seq: 1, Mutations: benchMutations(1000)})
	b.SetBytes(int64(len(payload)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeMutations(payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFrames(b *testing.B) {
	mf := &MutationsFrame{Seq: 1, Mutations: benchMutations(20000)}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := mf.Frames(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFrameEncode(b *testing.B) {
	f := NewFrame(FrameMutations, make([]byte, 1024))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = f.Encode()
	}
}
