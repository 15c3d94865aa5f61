package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vsync/pkg/dom"
)

// Mutation stream errors.
var (
	ErrUnknownMutationOp = errors.New("protocol: unknown mutation op")
	ErrSequenceMismatch  = errors.New("protocol: frame sequence does not match pending batch")
	ErrTrailingBytes     = errors.New("protocol: trailing bytes after mutations")
)

// MutationsFrame is one batch of document mutations, usually the journal of a
// single reconciliation pass.
//
// Payload format:
//
//	[Seq: varint][Count: varint][Mutation...]
//
// Each mutation starts with [Op: byte][Node: varint] followed by the fields
// its op uses:
//
//	CreateElement, RemoveProperty, ClearStyle  [Name: string]
//	CreateText, SetText                        [Value: string]
//	AppendChild, RemoveChild                   [Parent: varint]
//	InsertBefore, Move                         [Parent: varint][Ref: varint]
//	SetProperty                                [Name: string][Value: string][Bool: byte]
//	SetStyle                                   [Name: string][Value: string]
//	ClearChildren                              (nothing)
type MutationsFrame struct {
	Seq       uint64
	Snapshot  bool // Carried in FlagSnapshot, not in the payload
	Mutations []dom.Mutation
}

// EncodeMutations encodes the payload of mf as a single buffer.
func EncodeMutations(mf *MutationsFrame) []byte {
	size := UvarintLen(mf.Seq) + UvarintLen(uint64(len(mf.Mutations)))
	for _, m := range mf.Mutations {
		size += MutationSize(m)
	}
	e := NewEncoderWithCap(size)
	EncodeMutationsTo(e, mf.Seq, mf.Mutations)
	return e.Bytes()
}

// EncodeMutationsTo encodes a payload using the provided encoder.
func EncodeMutationsTo(e *Encoder, seq uint64, muts []dom.Mutation) {
	e.WriteUvarint(seq)
	e.WriteUvarint(uint64(len(muts)))
	for _, m := range muts {
		encodeMutation(e, m)
	}
}

func encodeMutation(e *Encoder, m dom.Mutation) {
	e.PutByte(byte(m.Op))
	e.WriteUvarint(m.Node)
	switch m.Op {
	case dom.OpCreateElement, dom.OpRemoveProperty, dom.OpClearStyle:
		e.WriteString(m.Name)
	case dom.OpCreateText, dom.OpSetText:
		e.WriteString(m.Value)
	case dom.OpAppendChild, dom.OpRemoveChild:
		e.WriteUvarint(m.Parent)
	case dom.OpInsertBefore, dom.OpMove:
		e.WriteUvarint(m.Parent)
		e.WriteUvarint(m.Ref)
	case dom.OpSetProperty:
		e.WriteString(m.Name)
		e.WriteString(m.Value)
		e.WriteBool(m.Bool)
	case dom.OpSetStyle:
		e.WriteString(m.Name)
		e.WriteString(m.Value)
	}
}

// DecodeMutations decodes a payload with DefaultLimits. Snapshot is left
// false; it is a frame flag.
func DecodeMutations(data []byte) (*MutationsFrame, error) {
	d := NewDecoder(data)
	mf, err := DecodeMutationsFrom(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, ErrTrailingBytes
	}
	return mf, nil
}

// DecodeMutationsFrom decodes a payload from a decoder.
func DecodeMutationsFrom(d *Decoder) (*MutationsFrame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	muts := make([]dom.Mutation, 0, count)
	for i := 0; i < count; i++ {
		m, err := decodeMutation(d)
		if err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
		muts = append(muts, m)
	}

	return &MutationsFrame{Seq: seq, Mutations: muts}, nil
}

func decodeMutation(d *Decoder) (dom.Mutation, error) {
	var m dom.Mutation

	op, err := d.ReadByte()
	if err != nil {
		return m, err
	}
	m.Op = dom.MutationOp(op)
	if !m.Op.Valid() {
		return m, fmt.Errorf("%w: 0x%02x", ErrUnknownMutationOp, op)
	}
	if m.Node, err = d.ReadUvarint(); err != nil {
		return m, err
	}

	switch m.Op {
	case dom.OpCreateElement, dom.OpRemoveProperty, dom.OpClearStyle:
		m.Name, err = d.ReadString()
	case dom.OpCreateText, dom.OpSetText:
		m.Value, err = d.ReadString()
	case dom.OpAppendChild, dom.OpRemoveChild:
		m.Parent, err = d.ReadUvarint()
	case dom.OpInsertBefore, dom.OpMove:
		if m.Parent, err = d.ReadUvarint(); err == nil {
			m.Ref, err = d.ReadUvarint()
		}
	case dom.OpSetProperty:
		if m.Name, err = d.ReadString(); err != nil {
			break
		}
		if m.Value, err = d.ReadString(); err != nil {
			break
		}
		m.Bool, err = d.ReadBool()
	case dom.OpSetStyle:
		if m.Name, err = d.ReadString(); err == nil {
			m.Value, err = d.ReadString()
		}
	}
	return m, err
}

// payloadBudget is the room left for mutations in one frame after the
// sequence number and count.
const payloadBudget = MaxPayloadSize - 2*MaxVarintLen

// Frames splits mf into FrameMutations frames that each fit MaxPayloadSize.
// Every frame repeats the sequence number; the last one carries FlagFinal.
// An empty batch still produces one frame. A single mutation too large for a
// frame yields ErrFrameTooLarge.
func (mf *MutationsFrame) Frames() ([]*Frame, error) {
	var flags FrameFlags
	if mf.Snapshot {
		flags |= FlagSnapshot
	}

	var frames []*Frame
	start, size := 0, 0
	flush := func(end int) {
		payload := EncodeMutations(&MutationsFrame{Seq: mf.Seq, Mutations: mf.Mutations[start:end]})
		frames = append(frames, NewFrameWithFlags(FrameMutations, flags, payload))
		start, size = end, 0
	}

	for i, m := range mf.Mutations {
		n := MutationSize(m)
		if n > payloadBudget {
			return nil, fmt.Errorf("%w: mutation %d (%s) needs %d bytes", ErrFrameTooLarge, i, m.Op, n)
		}
		if size+n > payloadBudget {
			flush(i)
		}
		size += n
	}
	flush(len(mf.Mutations))

	frames[len(frames)-1].Flags |= FlagFinal
	return frames, nil
}

// Assembler rebuilds mutation batches from a stream of frames.
// It is not safe for concurrent use.
type Assembler struct {
	limits  Limits
	pending *MutationsFrame
}

// NewAssembler creates an Assembler enforcing limits on every frame and on
// the total size of a batch.
func NewAssembler(limits Limits) *Assembler {
	return &Assembler{limits: limits.clamp()}
}

// Add consumes one FrameMutations frame. It returns the complete batch when
// the frame carries FlagFinal, and nil otherwise. After an error the pending
// batch is discarded.
func (a *Assembler) Add(f *Frame) (*MutationsFrame, error) {
	if f.Type != FrameMutations {
		a.pending = nil
		return nil, fmt.Errorf("%w: %s", ErrInvalidFrameType, f.Type)
	}

	d := NewDecoderWithLimits(f.Payload, a.limits)
	part, err := DecodeMutationsFrom(d)
	if err == nil && !d.EOF() {
		err = ErrTrailingBytes
	}
	if err != nil {
		a.pending = nil
		return nil, err
	}
	part.Snapshot = f.Flags.Has(FlagSnapshot)

	if a.pending == nil {
		a.pending = part
	} else {
		if part.Seq != a.pending.Seq {
			a.pending = nil
			return nil, ErrSequenceMismatch
		}
		a.pending.Mutations = append(a.pending.Mutations, part.Mutations...)
	}

	if len(a.pending.Mutations) > a.limits.MaxMutations {
		a.pending = nil
		return nil, ErrCollectionTooLarge
	}

	if !f.Flags.Has(FlagFinal) {
		return nil, nil
	}
	done := a.pending
	a.pending = nil
	return done, nil
}

// Pending reports whether a batch is partially assembled.
func (a *Assembler) Pending() bool {
	return a.pending != nil
}
