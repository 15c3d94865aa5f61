// Package protocol implements the binary wire format used to stream document
// mutations from a server to its viewers.
//
// The format is small and reflection free: varints for node IDs and counts,
// length-prefixed strings, and a one-byte opcode per mutation.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameMutations (0x02): a batch, or part of a batch, of dom.Mutations
//   - FrameError (0x05): an ErrorMessage
//
// # Batches
//
// A batch larger than one frame is split by MutationsFrame.Frames. Every part
// repeats the batch sequence number and the last part carries FlagFinal. A
// batch flagged FlagSnapshot rebuilds the document from nothing; viewers
// discard their state before applying it. Assembler joins the parts back.
//
// # Limits
//
// Decoders bound string sizes and mutation counts (see Limits) so a hostile
// length prefix cannot force a large allocation.
package protocol
