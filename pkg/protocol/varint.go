package protocol

import "github.com/vango-dev/vsync/pkg/dom"

// MaxVarintLen is the maximum number of bytes a varint can occupy.
// A uint64 requires at most 10 bytes in varint encoding.
const MaxVarintLen = 10

// UvarintLen returns the number of bytes needed to encode v as a varint.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

func stringLen(s string) int {
	return UvarintLen(uint64(len(s))) + len(s)
}

// MutationSize returns the encoded size of m in bytes.
func MutationSize(m dom.Mutation) int {
	n := 1 + UvarintLen(m.Node)
	switch m.Op {
	case dom.OpCreateElement, dom.OpRemoveProperty, dom.OpClearStyle:
		n += stringLen(m.Name)
	case dom.OpCreateText, dom.OpSetText:
		n += stringLen(m.Value)
	case dom.OpAppendChild, dom.OpRemoveChild:
		n += UvarintLen(m.Parent)
	case dom.OpInsertBefore, dom.OpMove:
		n += UvarintLen(m.Parent) + UvarintLen(m.Ref)
	case dom.OpSetProperty:
		n += stringLen(m.Name) + stringLen(m.Value) + 1
	case dom.OpSetStyle:
		n += stringLen(m.Name) + stringLen(m.Value)
	}
	return n
}
