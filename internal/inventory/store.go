// Package inventory holds the active virtual inventory document and gates
// every change to it through schema validation.
package inventory

import (
	"fmt"
	"log/slog"

	"github.com/vinv-group/vinv-go/internal/codec"
	"github.com/vinv-group/vinv-go/internal/metrics"
	"github.com/vinv-group/vinv-go/internal/notify"
	"github.com/vinv-group/vinv-go/internal/schema"
	"github.com/vinv-group/vinv-go/pkg/types"
)

// State is the lifecycle state of a Store.
type State int

// Store states.
const (
	StateUninitialized State = iota
	StateBound
)

func (s State) String() string {
	if s == StateBound {
		return "bound"
	}
	return "uninitialized"
}

// maxIDAttempts bounds retries when a generated id is already taken.
const maxIDAttempts = 8

// recordRef points at the record definition of whatever set is bound.
var recordRef = schema.Inline(map[string]any{"$ref": schema.RecordSchema})

// Store owns one inventory Document. Every document it holds was valid
// against its version's root schema when it became active.
//
// A Store is not safe for concurrent use; callers serialize their calls.
// Change handlers run on the caller's goroutine before the triggering
// operation returns.
type Store struct {
	catalog   *schema.Catalog
	registry  *schema.Registry
	validator *schema.Validator
	codec     *codec.Codec
	notifier  *notify.Notifier[types.Document]
	doc       types.Document

	logger        *slog.Logger
	newID         func() string
	transactional bool
	metrics       *metrics.Metrics
}

var _ types.Inventory = (*Store)(nil)

// New returns an uninitialized Store resolving version tags in catalog.
func New(catalog *schema.Catalog, opts ...Option) *Store {
	s := &Store{
		catalog:  catalog,
		notifier: notify.New[types.Document](),
		logger:   slog.New(slog.DiscardHandler),
		newID:    generateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = codec.New(s.logger)
	return s
}

// State returns the lifecycle state.
func (s *Store) State() State {
	if s.doc == nil {
		return StateUninitialized
	}
	return StateBound
}

// Version returns the version tag of the active document, or "".
func (s *Store) Version() string {
	if s.registry == nil {
		return ""
	}
	return s.registry.Version()
}

// Initialize replaces the active document with the one described by src.
//
// No source, or text that cannot be decoded, yields the default document.
// The candidate must carry a version tag (ErrMissingVersion) that the
// catalog knows (ErrUnsupportedVersion) and must validate against that
// version's root schema (ErrInvalidDocument). On any error the Store keeps
// its previous document and schema set. On success the "change" event
// fires with the new document.
func (s *Store) Initialize(src types.Source) (err error) {
	defer func() { s.metrics.ObserveInitialize(err) }()

	candidate, err := s.candidate(src)
	if err != nil {
		return err
	}
	version, ok := candidate.Version()
	if !ok {
		return types.ErrMissingVersion
	}

	registry := schema.NewRegistry(s.catalog)
	if err := registry.Bind(version); err != nil {
		return err
	}
	validator := schema.NewValidator(registry)
	res, err := validator.Validate(schema.Named(schema.RootSchema), map[string]any(candidate))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if !res.Valid {
		return &types.ValidationError{Kind: types.ErrInvalidDocument, Schema: schema.RootSchema, Issues: res.Issues}
	}

	s.registry = registry
	s.validator = validator
	s.doc = candidate
	s.metrics.SetRecords(s.doc.RecordCount())
	s.logger.Debug("inventory initialized", "source", src.Kind, "version", version, "records", s.doc.RecordCount())
	s.notifier.Fire(types.EventChange, s.doc)
	return nil
}

func (s *Store) candidate(src types.Source) (types.Document, error) {
	switch src.Kind {
	case types.SourceNone:
		return types.DefaultDocument(), nil
	case types.SourceText:
		return s.codec.DecodeOrDefault(src.Text), nil
	case types.SourceDocument:
		if src.Document == nil {
			return types.Document{}, nil
		}
		doc, err := s.codec.NormalizeDocument(src.Document)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidDocument, err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown source kind %d", src.Kind)
	}
}

// AddRecord validates attrs against the record schema and inserts them
// under id, or under a generated id when id is empty. It returns the
// effective id.
//
// Invalid attributes yield ErrInvalidRecord and a taken id ErrDuplicateID;
// in both cases the document is unchanged and no event fires. After the
// insertion the "change" event fires and the whole document is checked
// again. A failed recheck is logged and the record stays in place.
// With WithTransactionalAdd the recheck runs first instead, and a failure
// removes the record again and returns ErrInvalidDocument without an event.
func (s *Store) AddRecord(attrs map[string]any, id string) (_ string, err error) {
	defer func() { s.metrics.ObserveAdd(err) }()

	if s.doc == nil {
		return "", types.ErrUninitialized
	}
	value, err := s.codec.Normalize(attrs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidRecord, err)
	}
	res, err := s.validator.Validate(recordRef, value)
	if err != nil {
		return "", fmt.Errorf("validate record: %w", err)
	}
	if !res.Valid {
		return "", &types.ValidationError{Kind: types.ErrInvalidRecord, Schema: schema.RecordSchema, Issues: res.Issues}
	}

	records, created, err := s.recordTable()
	if err != nil {
		return "", err
	}
	id, err = s.effectiveID(records, id)
	if err != nil {
		return "", err
	}
	records[id] = value
	s.metrics.SetRecords(len(records))

	if !s.transactional {
		s.notifier.Fire(types.EventChange, s.doc)
		if iss := s.recheck(); len(iss) > 0 {
			s.logger.Warn("document no longer matches its schema after adding a record",
				"id", id, "version", s.Version(), "issues", iss.Error())
		}
		return id, nil
	}

	if iss := s.recheck(); len(iss) > 0 {
		delete(records, id)
		if created {
			delete(s.doc, types.TreesKey)
		}
		s.metrics.SetRecords(len(records))
		return "", &types.ValidationError{Kind: types.ErrInvalidDocument, Schema: schema.RootSchema, Issues: iss}
	}
	s.notifier.Fire(types.EventChange, s.doc)
	return id, nil
}

// recordTable returns the id mapping of the active document, creating the
// table when the document has none yet.
func (s *Store) recordTable() (records map[string]any, created bool, err error) {
	raw, ok := s.doc[types.TreesKey]
	if !ok {
		table := types.NewRecordTable()
		s.doc[types.TreesKey] = table
		return table[0].(map[string]any), true, nil
	}
	table, ok := raw.([]any)
	if !ok || len(table) == 0 {
		return nil, false, fmt.Errorf("%w: %q is not a record table", types.ErrInvalidDocument, types.TreesKey)
	}
	records, ok = table[0].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q has no id mapping", types.ErrInvalidDocument, types.TreesKey)
	}
	return records, false, nil
}

func (s *Store) effectiveID(records map[string]any, id string) (string, error) {
	if id != "" {
		if _, taken := records[id]; taken {
			return "", fmt.Errorf("%w: %q", types.ErrDuplicateID, id)
		}
		return id, nil
	}
	for range maxIDAttempts {
		id = s.newID()
		if _, taken := records[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: generator kept returning taken ids", types.ErrDuplicateID)
}

// recheck validates the whole active document. Evaluation errors are
// reported as a single issue.
func (s *Store) recheck() types.Issues {
	res, err := s.validator.Validate(schema.Named(schema.RootSchema), map[string]any(s.doc))
	if err != nil {
		return types.Issues{{Message: err.Error()}}
	}
	if !res.Valid {
		s.metrics.ObserveRecheckFailure()
	}
	return res.Issues
}

// Document returns a copy of the active document, or nil when uninitialized.
func (s *Store) Document() types.Document {
	return s.doc.Clone()
}

// Records returns a copy of the id-to-attributes mapping.
func (s *Store) Records() map[string]any {
	records := s.doc.Records()
	if records == nil {
		return map[string]any{}
	}
	return types.CloneValue(records).(map[string]any)
}

// DocumentText returns the interchange encoding of the active document.
func (s *Store) DocumentText() (string, error) {
	if s.doc == nil {
		return "", types.ErrUninitialized
	}
	data, err := s.codec.Encode(s.doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RecordSchema returns the record schema of the bound set with every
// reference into the set inlined.
func (s *Store) RecordSchema() (any, error) {
	if s.registry == nil {
		return nil, types.ErrUninitialized
	}
	return s.registry.Dereference(schema.RecordSchema)
}

// On registers h for event. Handlers receive the Store's own document and
// must not modify it.
func (s *Store) On(event string, h types.Handler) {
	if h == nil {
		return
	}
	s.notifier.On(event, h)
}
