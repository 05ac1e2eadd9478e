package edi

import (
	"fmt"
	"strings"

	"github.com/erp/edisync/internal/domain/shared"
)

// OpType is the direction of a document exchange
type OpType string

const (
	// OpTypeImport downloads files from the partner
	OpTypeImport OpType = "in"
	// OpTypeImportMove downloads files and moves them aside afterwards
	OpTypeImportMove OpType = "in-mv"
	// OpTypeExport uploads files to the partner
	OpTypeExport OpType = "out"
)

// IsValid checks if the op type is known
func (o OpType) IsValid() bool {
	switch o {
	case OpTypeImport, OpTypeImportMove, OpTypeExport:
		return true
	}
	return false
}

// IsImport reports whether files flow from the partner to us
func (o OpType) IsImport() bool {
	return o == OpTypeImport || o == OpTypeImportMove
}

// IsExport reports whether files flow from us to the partner
func (o OpType) IsExport() bool {
	return o == OpTypeExport
}

// String returns the string representation
func (o OpType) String() string {
	return string(o)
}

// DocumentCode identifies the handler that processes a document type
type DocumentCode string

// String returns the string representation
func (c DocumentCode) String() string {
	return string(c)
}

// Well-known document codes
const (
	DocumentCodeExportSaleOrder DocumentCode = "export_sale_order_document"
	DocumentCodeImportSaleOrder DocumentCode = "import_sale_order_document"
)

// DocumentType names a kind of document exchanged with partners
type DocumentType struct {
	shared.BaseEntity
	Name   string
	Active bool
	OpType OpType
	Code   DocumentCode
}

// NewDocumentType creates an active document type
func NewDocumentType(name string, opType OpType, code DocumentCode) (*DocumentType, error) {
	if !opType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOpType, opType)
	}
	if strings.TrimSpace(string(code)) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "document code cannot be empty")
	}
	return &DocumentType{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Active:     true,
		OpType:     opType,
		Code:       code,
	}, nil
}
