package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	xsdvalidate "github.com/terminalstatic/go-xsd-validate"
	"go.uber.org/zap"
)

// Validator loads every supported message family's XSD once at startup
// and validates inbound documents against the matching schema. The
// parsed-schema cache is read-only after Load returns (spec §5: "the
// schema cache is process-global ... the cache is read-only after
// startup"); it's still backed by go-cache so the cache surface is
// uniform with the Addressing Correlator's in-flight index.
type Validator struct {
	logger  *zap.Logger
	schemas *cache.Cache
	mu      sync.Mutex // guards xsdvalidate's libxml2 init/cleanup lifecycle
	inited  bool
}

// New constructs an unloaded Validator. Call Load before serving traffic.
func New(logger *zap.Logger) *Validator {
	return &Validator{
		logger:  logger,
		schemas: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// Load parses every XSD named "<messageType>.xsd" under dir. Failure is
// fatal to the process (spec §4.1): the caller should treat a non-nil
// error as a reason to abort startup.
func (v *Validator) Load(dir string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := xsdvalidate.Init(); err != nil {
		return fmt.Errorf("init libxml2: %w", err)
	}
	v.inited = true

	for _, mt := range SupportedMessageTypes {
		path := filepath.Join(dir, string(mt)+".xsd")
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("schema %s: %w", mt, err)
		}
		handler, err := xsdvalidate.NewXsdHandlerUrl(path, xsdvalidate.ParsErrDefault)
		if err != nil {
			return fmt.Errorf("parse schema %s: %w", mt, err)
		}
		v.schemas.Set(string(mt), handler, cache.NoExpiration)
		v.logger.Info("loaded XSD schema", zap.String("message_type", string(mt)), zap.String("path", path))
	}
	return nil
}

// Close releases the libxml2 schema handlers and global state. Call
// once at process shutdown.
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, item := range v.schemas.Items() {
		if h, ok := item.Object.(*xsdvalidate.XsdHandler); ok {
			h.Free()
		}
	}
	if v.inited {
		xsdvalidate.Cleanup()
		v.inited = false
	}
}

// Validate validates xmlBytes against messageType's schema, or against
// the auto-detected type if messageType is "". It never returns an
// error to the caller — every failure mode is represented in Result
// (spec §4.1 contract).
func (v *Validator) Validate(xmlBytes []byte, messageType MessageType) Result {
	if len(xmlBytes) == 0 {
		return Result{Valid: false, Errors: []ValidationError{{Kind: ErrKindXMLParseError, Message: "empty document"}}}
	}
	if len(xmlBytes) > MaxDocumentSize {
		return Result{Valid: false, Errors: []ValidationError{{Kind: ErrKindXMLParseError, Message: "document exceeds maximum size"}}}
	}

	mt := messageType
	if mt == "" {
		detected, ok := DetectMessageType(xmlBytes)
		if !ok {
			return Result{Valid: false, Errors: []ValidationError{{Kind: ErrKindXMLParseError, Message: "could not auto-detect message type from xmlns"}}}
		}
		mt = detected
	}

	item, found := v.schemas.Get(string(mt))
	if !found {
		return Result{Valid: false, MessageType: mt, Errors: []ValidationError{{Kind: ErrKindSchemaNotLoaded, Message: fmt.Sprintf("no schema loaded for %s", mt)}}}
	}
	handler := item.(*xsdvalidate.XsdHandler)

	if err := handler.ValidateMem(xmlBytes, xsdvalidate.ValidErrDefault); err != nil {
		return Result{
			Valid:       false,
			MessageType: mt,
			Errors:      toValidationErrors(err),
		}
	}

	return Result{Valid: true, MessageType: mt}
}

func toValidationErrors(err error) []ValidationError {
	if verr, ok := err.(xsdvalidate.ValidationError); ok {
		out := make([]ValidationError, 0, len(verr.Errors))
		for _, e := range verr.Errors {
			out = append(out, ValidationError{
				Kind:    ErrKindXSDValidationFailed,
				Line:    e.Line,
				Message: e.Message,
			})
		}
		if len(out) > 0 {
			return out
		}
	}
	return []ValidationError{{Kind: ErrKindXSDValidationFailed, Message: err.Error()}}
}

// loadTimeout is 30 seconds. Load does not read it, so loading schema
// files (from a slow network mount, for example) has no deadline.
const loadTimeout = 30 * time.Second
