package edisync

import (
	"fmt"
	"slices"

	"github.com/erp/edisync/internal/domain/edi"
)

// Registry maps document codes to their handlers. It is filled at startup and
// read-only afterwards.
type Registry struct {
	handlers map[edi.DocumentCode]DocumentHandler
}

// NewRegistry builds a registry from handlers
func NewRegistry(handlers ...DocumentHandler) (*Registry, error) {
	r := &Registry{handlers: make(map[edi.DocumentCode]DocumentHandler, len(handlers))}
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a handler. A code can only be registered once.
func (r *Registry) Register(h DocumentHandler) error {
	if h == nil {
		return fmt.Errorf("%w: nil handler", ErrInvalidHandler)
	}
	code := h.Code()
	if code == "" {
		return fmt.Errorf("%w: empty document code", ErrInvalidHandler)
	}
	if _, exists := r.handlers[code]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, code)
	}
	r.handlers[code] = h
	return nil
}

// Resolve looks up the handler for code
func (r *Registry) Resolve(code edi.DocumentCode) (DocumentHandler, bool) {
	h, ok := r.handlers[code]
	return h, ok
}

// Codes returns the registered codes, sorted
func (r *Registry) Codes() []edi.DocumentCode {
	codes := make([]edi.DocumentCode, 0, len(r.handlers))
	for code := range r.handlers {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
