// internal/app/store/docstore/memory.go
package docstore

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is the in-process Store used by tests and local tooling. A
// single mutex serializes all access, which trivially satisfies the
// snapshot and atomicity guarantees of the Store contract.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Fields // document path -> body

	subMu sync.Mutex
	subs  map[int]*memSub
	next  int
}

type memSub struct {
	collectionPath string
	ch             chan Event
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]Fields),
		subs: make(map[int]*memSub),
	}
}

func (m *Memory) Get(ctx context.Context, path string) (Document, error) {
	p, err := parseDocPath(path)
	if err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(path, p)
}

func (m *Memory) getLocked(path string, p parsedPath) (Document, error) {
	fields, ok := m.docs[path]
	if !ok {
		return Document{}, ErrNoDocument
	}
	cloned, err := cloneFields(fields)
	if err != nil {
		return Document{}, err
	}
	return Document{Path: path, ID: p.id(), Fields: cloned}, nil
}

func (m *Memory) Put(ctx context.Context, path string, fields Fields) error {
	p, err := parseDocPath(path)
	if err != nil {
		return err
	}
	cloned, err := cloneFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[path] = cloned
	m.mu.Unlock()
	m.notify(p, EventPut)
	return nil
}

func (m *Memory) Update(ctx context.Context, path string, fields Fields) error {
	p, err := parseDocPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.updateLocked(path, fields); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()
	m.notify(p, EventPut)
	return nil
}

func (m *Memory) updateLocked(path string, fields Fields) error {
	current, ok := m.docs[path]
	if !ok {
		return ErrNoDocument
	}
	merged, err := mergeFields(current, fields)
	if err != nil {
		return err
	}
	m.docs[path] = merged
	return nil
}

// mergeFields applies an update on top of a current body without
// touching either input, returning the new body.
func mergeFields(current, fields Fields) (Fields, error) {
	merged, err := cloneFields(current)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		switch op := v.(type) {
		case Union:
			merged[k] = setUnion(merged[k], op.Values)
		case Remove:
			merged[k] = setRemove(merged[k], op.Values)
		default:
			merged[k] = v
		}
	}
	return cloneFields(merged)
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	p, err := parseDocPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	_, existed := m.docs[path]
	delete(m.docs, path)
	m.mu.Unlock()
	if existed {
		m.notify(p, EventDelete)
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, collectionPath string, filter Fields) ([]Document, error) {
	if _, err := parseCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for path := range m.docs {
		p, err := parseDocPath(path)
		if err != nil {
			continue
		}
		if p.collectionPath() != collectionPath {
			continue
		}
		doc, err := m.getLocked(path, p)
		if err != nil {
			return nil, err
		}
		if matches(doc.Fields, filter) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *Memory) RunTxn(ctx context.Context, fn func(tx Txn) error) error {
	m.mu.Lock()

	tx := &memTxn{store: m}
	if err := fn(tx); err != nil {
		m.mu.Unlock()
		return err // staged writes discarded: no partial state
	}

	// Resolve every staged op against an overlay first. Nothing in
	// m.docs changes until the whole set is known to apply cleanly, so a
	// failing op cannot leave a partial commit behind.
	overlay := make(map[string]Fields)
	dropped := make(map[string]bool)
	var events []pendingEvent

	resolve := func(path string) (Fields, bool) {
		if f, ok := overlay[path]; ok {
			return f, true
		}
		if dropped[path] {
			return nil, false
		}
		f, ok := m.docs[path]
		return f, ok
	}

	for _, op := range tx.ops {
		p, err := parseDocPath(op.path)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		switch op.kind {
		case opPut:
			cloned, err := cloneFields(op.fields)
			if err != nil {
				m.mu.Unlock()
				return err
			}
			overlay[op.path] = cloned
			delete(dropped, op.path)
			events = append(events, pendingEvent{p, EventPut})
		case opUpdate:
			current, ok := resolve(op.path)
			if !ok {
				m.mu.Unlock()
				return ErrNoDocument
			}
			merged, err := mergeFields(current, op.fields)
			if err != nil {
				m.mu.Unlock()
				return err
			}
			overlay[op.path] = merged
			events = append(events, pendingEvent{p, EventPut})
		case opDelete:
			delete(overlay, op.path)
			dropped[op.path] = true
			events = append(events, pendingEvent{p, EventDelete})
		}
	}

	for path, fields := range overlay {
		m.docs[path] = fields
	}
	for path := range dropped {
		delete(m.docs, path)
	}
	m.mu.Unlock()

	for _, ev := range events {
		m.notify(ev.path, ev.typ)
	}
	return nil
}

type pendingEvent struct {
	path parsedPath
	typ  EventType
}

type opKind int

const (
	opPut opKind = iota
	opUpdate
	opDelete
)

type stagedOp struct {
	kind   opKind
	path   string
	fields Fields
}

// memTxn stages writes until the callback returns nil. Reads see the
// committed state plus this transaction's own staged puts, which is all
// the snapshot consistency a single-lock store needs.
type memTxn struct {
	store *Memory
	ops   []stagedOp
}

func (t *memTxn) Get(path string) (Document, error) {
	p, err := parseDocPath(path)
	if err != nil {
		return Document{}, err
	}
	for i := len(t.ops) - 1; i >= 0; i-- {
		if t.ops[i].path != path {
			continue
		}
		switch t.ops[i].kind {
		case opDelete:
			return Document{}, ErrNoDocument
		case opPut:
			cloned, err := cloneFields(t.ops[i].fields)
			if err != nil {
				return Document{}, err
			}
			return Document{Path: path, ID: p.id(), Fields: cloned}, nil
		}
	}
	return t.store.getLocked(path, p)
}

func (t *memTxn) Put(path string, fields Fields) {
	t.ops = append(t.ops, stagedOp{kind: opPut, path: path, fields: fields})
}

func (t *memTxn) Update(path string, fields Fields) {
	t.ops = append(t.ops, stagedOp{kind: opUpdate, path: path, fields: fields})
}

func (t *memTxn) Delete(path string) {
	t.ops = append(t.ops, stagedOp{kind: opDelete, path: path})
}

// memBatch is an atomic multi-delete: all paths vanish in one critical
// section, so no reader observes a partial cascade.
type memBatch struct {
	store *Memory
	paths []string
}

func (m *Memory) Batch() Batch {
	return &memBatch{store: m}
}

func (b *memBatch) Delete(path string) {
	b.paths = append(b.paths, path)
}

func (b *memBatch) Commit(ctx context.Context) error {
	parsed := make([]parsedPath, 0, len(b.paths))
	for _, path := range b.paths {
		p, err := parseDocPath(path)
		if err != nil {
			return err
		}
		parsed = append(parsed, p)
	}

	b.store.mu.Lock()
	for _, path := range b.paths {
		delete(b.store.docs, path)
	}
	b.store.mu.Unlock()

	for _, p := range parsed {
		b.store.notify(p, EventDelete)
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context, collectionPath string) (<-chan Event, error) {
	if _, err := parseCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	ch := make(chan Event, 16)
	m.subMu.Lock()
	id := m.next
	m.next++
	m.subs[id] = &memSub{collectionPath: collectionPath, ch: ch}
	m.subMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subMu.Lock()
		delete(m.subs, id)
		close(ch)
		m.subMu.Unlock()
	}()

	return ch, nil
}

// notify fans an event out to matching subscribers. When a subscriber's
// buffer is full the oldest queued event is discarded to make room, so a
// lagging watcher loses intermediate states but always receives the most
// recent one, deletes included.
func (m *Memory) notify(p parsedPath, typ EventType) {
	path := DocPath(p.segments...)

	var doc Document
	if typ != EventDelete {
		m.mu.Lock()
		d, err := m.getLocked(path, p)
		m.mu.Unlock()
		if err == nil {
			doc = d
		}
	}

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, sub := range m.subs {
		if sub.collectionPath != p.collectionPath() {
			continue
		}
		ev := Event{Type: typ, Path: path, Doc: doc}
		for {
			select {
			case sub.ch <- ev:
			default:
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func (m *Memory) NewID() string {
	return uuid.NewString()
}

// cloneFields deep-copies a document body via a BSON round trip, which
// also normalizes value types to what the Mongo backend would return.
func cloneFields(f Fields) (Fields, error) {
	if f == nil {
		return Fields{}, nil
	}
	doc := Document{Fields: f}
	var out Fields
	if err := doc.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(fields, filter Fields) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares a stored (BSON-normalized) value against a filter
// value supplied by the caller.
func looseEqual(got, want any) bool {
	if gs, ok := got.(string); ok {
		if ws, ok := want.(string); ok {
			return gs == ws
		}
	}
	return reflect.DeepEqual(got, want)
}

func setUnion(current any, values []string) []any {
	out := toAnySlice(current)
	for _, v := range values {
		found := false
		for _, existing := range out {
			if s, ok := existing.(string); ok && s == v {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	return out
}

func setRemove(current any, values []string) []any {
	drop := make(map[string]struct{}, len(values))
	for _, v := range values {
		drop[v] = struct{}{}
	}
	var out []any
	for _, existing := range toAnySlice(current) {
		if s, ok := existing.(string); ok {
			if _, gone := drop[s]; gone {
				continue
			}
		}
		out = append(out, existing)
	}
	if out == nil {
		out = []any{}
	}
	return out
}

func toAnySlice(v any) []any {
	switch vv := v.(type) {
	case nil:
		return []any{}
	case []any:
		return vv
	case primitive.A: // what a BSON round trip produces for arrays
		return []any(vv)
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	default:
		return []any{}
	}
}
