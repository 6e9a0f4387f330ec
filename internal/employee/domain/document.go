package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentIdentity DocumentType = "identity"
	DocumentContract DocumentType = "contract"
	DocumentTaxForm  DocumentType = "tax_form"
)

// RequiredDocumentTypes es el juego mínimo que el paso de revisión documental exige.
var RequiredDocumentTypes = []DocumentType{DocumentIdentity, DocumentContract, DocumentTaxForm}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// Document es un fichero subido por el empleado durante la verificación.
type Document struct {
	ID         uuid.UUID      `json:"id"`
	EmployeeID uuid.UUID      `json:"employee_id"`
	DocType    DocumentType   `json:"doc_type"`
	FileName   string         `json:"file_name"`
	Status     DocumentStatus `json:"status"`
	UploadedAt time.Time      `json:"uploaded_at"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
}

func NewDocument(employeeID uuid.UUID, docType DocumentType, fileName string) *Document {
	return &Document{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		DocType:    docType,
		FileName:   fileName,
		Status:     DocumentPending,
		UploadedAt: time.Now().UTC(),
	}
}

// Approve marca el documento como revisado y válido.
func (d *Document) Approve() {
	now := time.Now().UTC()
	d.Status = DocumentApproved
	d.ReviewedAt = &now
}

// Reject marca el documento como revisado y no válido.
func (d *Document) Reject() {
	now := time.Now().UTC()
	d.Status = DocumentRejected
	d.ReviewedAt = &now
}

// DocumentsComplete: cada tipo requerido tiene al menos un documento aprobado.
func DocumentsComplete(docs []*Document) bool {
	return len(MissingDocumentTypes(docs)) == 0
}

// MissingDocumentTypes devuelve los tipos requeridos sin documento aprobado,
// para poder explicárselo al revisor en lugar de un simple "no".
func MissingDocumentTypes(docs []*Document) []DocumentType {
	approved := make(map[DocumentType]bool, len(docs))
	for _, d := range docs {
		if d.Status == DocumentApproved {
			approved[d.DocType] = true
		}
	}

	var missing []DocumentType
	for _, required := range RequiredDocumentTypes {
		if !approved[required] {
			missing = append(missing, required)
		}
	}
	return missing
}
