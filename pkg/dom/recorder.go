package dom

// Recorder is a Document that forwards every call to another Document and
// journals it. Inserting a node that is already attached is journaled as
// OpMove so callers can tell reorders from new content.
type Recorder struct {
	doc     Document
	journal []Mutation
	stats   Stats
}

var _ Document = (*Recorder)(nil)

// NewRecorder wraps doc.
func NewRecorder(doc Document) *Recorder {
	return &Recorder{doc: doc}
}

// Document returns the wrapped document.
func (r *Recorder) Document() Document { return r.doc }

// Journal returns the mutations recorded since the last Drain or Reset.
func (r *Recorder) Journal() []Mutation {
	out := make([]Mutation, len(r.journal))
	copy(out, r.journal)
	return out
}

// Drain returns the journal and clears it. Counters are kept.
func (r *Recorder) Drain() []Mutation {
	out := r.journal
	r.journal = nil
	return out
}

// Stats returns the counters accumulated since the last Reset.
func (r *Recorder) Stats() Stats { return r.stats }

// Reset clears both the journal and the counters.
func (r *Recorder) Reset() {
	r.journal = nil
	r.stats = Stats{}
}

func (r *Recorder) record(m Mutation) {
	r.journal = append(r.journal, m)
	r.stats.add(m.Op)
}

// CreateElement implements Document.
func (r *Recorder) CreateElement(tag string) Node {
	n := r.doc.CreateElement(tag)
	r.record(Mutation{Op: OpCreateElement, Node: n.ID(), Name: tag})
	return n
}

// CreateText implements Document.
func (r *Recorder) CreateText(text string) Node {
	n := r.doc.CreateText(text)
	r.record(Mutation{Op: OpCreateText, Node: n.ID(), Value: text})
	return n
}

// AppendChild implements Document.
func (r *Recorder) AppendChild(parent, child Node) {
	op := OpAppendChild
	if r.doc.Parent(child) != nil {
		op = OpMove
	}
	r.doc.AppendChild(parent, child)
	r.record(Mutation{Op: op, Node: child.ID(), Parent: parent.ID()})
}

// InsertBefore implements Document.
func (r *Recorder) InsertBefore(parent, child, ref Node) {
	op := OpInsertBefore
	if r.doc.Parent(child) != nil {
		op = OpMove
	}
	r.doc.InsertBefore(parent, child, ref)
	r.record(Mutation{Op: op, Node: child.ID(), Parent: parent.ID(), Ref: idOf(ref)})
}

// RemoveChild implements Document.
func (r *Recorder) RemoveChild(parent, child Node) {
	r.doc.RemoveChild(parent, child)
	r.record(Mutation{Op: OpRemoveChild, Node: child.ID(), Parent: parent.ID()})
}

// ClearChildren implements Document.
func (r *Recorder) ClearChildren(node Node) {
	r.doc.ClearChildren(node)
	r.record(Mutation{Op: OpClearChildren, Node: node.ID()})
}

// SetProperty implements Document.
func (r *Recorder) SetProperty(node Node, name string, value any) {
	r.doc.SetProperty(node, name, value)
	_, isBool := value.(bool)
	r.record(Mutation{Op: OpSetProperty, Node: node.ID(), Name: name, Value: FormatValue(value), Bool: isBool})
}

// RemoveProperty implements Document.
func (r *Recorder) RemoveProperty(node Node, name string) {
	r.doc.RemoveProperty(node, name)
	r.record(Mutation{Op: OpRemoveProperty, Node: node.ID(), Name: name})
}

// SetStyle implements Document.
func (r *Recorder) SetStyle(node Node, name, value string) {
	r.doc.SetStyle(node, name, value)
	r.record(Mutation{Op: OpSetStyle, Node: node.ID(), Name: name, Value: value})
}

// ClearStyle implements Document.
func (r *Recorder) ClearStyle(node Node, name string) {
	r.doc.ClearStyle(node, name)
	r.record(Mutation{Op: OpClearStyle, Node: node.ID(), Name: name})
}

// SetText implements Document.
func (r *Recorder) SetText(node Node, text string) {
	r.doc.SetText(node, text)
	r.record(Mutation{Op: OpSetText, Node: node.ID(), Value: text})
}

// Parent implements Document. Reads are not journaled.
func (r *Recorder) Parent(node Node) Node { return r.doc.Parent(node) }

// NextSibling implements Document. Reads are not journaled.
func (r *Recorder) NextSibling(node Node) Node { return r.doc.NextSibling(node) }
