package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmployee(t *testing.T) *Employee {
	t.Helper()
	e, err := NewEmployee(uuid.New(), "laura@empresa.com", "Laura")
	require.NoError(t, err)
	return e
}

func TestNewEmployee_Validation(t *testing.T) {
	_, err := NewEmployee(uuid.New(), "sin-arroba", "Laura")
	assert.ErrorIs(t, err, ErrInvalidEmployee)

	_, err = NewEmployee(uuid.New(), "laura@empresa.com", "  ")
	assert.ErrorIs(t, err, ErrInvalidEmployee)

	_, err = NewEmployee(uuid.Nil, "laura@empresa.com", "Laura")
	assert.ErrorIs(t, err, ErrInvalidEmployee)

	e := newTestEmployee(t)
	assert.Equal(t, VerificationNotSubmitted, e.Status)
	assert.Equal(t, 1, e.Version)
}

func TestEmployee_PipelineHappyPath(t *testing.T) {
	e := newTestEmployee(t)

	// El pipeline es estrictamente lineal: cada paso exige su predecesor.
	require.NoError(t, e.SubmitProfile())
	assert.Equal(t, VerificationPendingDetailsReview, e.Status)

	require.NoError(t, e.ApproveDetailsReview())
	assert.Equal(t, VerificationPendingDocumentsReview, e.Status)

	require.NoError(t, e.ApproveDocumentsReview())
	assert.Equal(t, VerificationPendingRoleAssignment, e.Status)

	require.NoError(t, e.AssignRoleAndAdvance("backend engineer"))
	assert.Equal(t, VerificationPendingFinalApproval, e.Status)
	assert.Equal(t, "backend engineer", e.Role)

	require.NoError(t, e.FinalApprove())
	assert.Equal(t, VerificationVerified, e.Status)

	// 1 inicial + 5 transiciones
	assert.Equal(t, 6, e.Version)
}

func TestEmployee_StepsRequireExactPredecessor(t *testing.T) {
	e := newTestEmployee(t)

	// Saltarse pasos no está permitido, en ninguna dirección.
	assert.ErrorIs(t, e.ApproveDetailsReview(), ErrInvalidVerificationState)
	assert.ErrorIs(t, e.ApproveDocumentsReview(), ErrInvalidVerificationState)
	assert.ErrorIs(t, e.AssignRoleAndAdvance("rol"), ErrInvalidVerificationState)
	assert.ErrorIs(t, e.FinalApprove(), ErrInvalidVerificationState)

	require.NoError(t, e.SubmitProfile())
	assert.ErrorIs(t, e.SubmitProfile(), ErrInvalidVerificationState)
	assert.ErrorIs(t, e.ApproveDocumentsReview(), ErrInvalidVerificationState)
}

func TestEmployee_RejectFromAnyPending(t *testing.T) {
	advanceTo := map[VerificationStatus]func(e *Employee){
		VerificationPendingDetailsReview: func(e *Employee) {
			require.NoError(t, e.SubmitProfile())
		},
		VerificationPendingDocumentsReview: func(e *Employee) {
			require.NoError(t, e.SubmitProfile())
			require.NoError(t, e.ApproveDetailsReview())
		},
		VerificationPendingRoleAssignment: func(e *Employee) {
			require.NoError(t, e.SubmitProfile())
			require.NoError(t, e.ApproveDetailsReview())
			require.NoError(t, e.ApproveDocumentsReview())
		},
		VerificationPendingFinalApproval: func(e *Employee) {
			require.NoError(t, e.SubmitProfile())
			require.NoError(t, e.ApproveDetailsReview())
			require.NoError(t, e.ApproveDocumentsReview())
			require.NoError(t, e.AssignRoleAndAdvance("rol"))
		},
	}

	for status, advance := range advanceTo {
		t.Run(string(status), func(t *testing.T) {
			e := newTestEmployee(t)
			advance(e)
			require.Equal(t, status, e.Status)

			require.NoError(t, e.RejectProfile("datos inconsistentes"))
			assert.Equal(t, VerificationRejected, e.Status)
			assert.Equal(t, "datos inconsistentes", e.RejectionReason)
		})
	}
}

func TestEmployee_RejectNotReachableOutsidePending(t *testing.T) {
	e := newTestEmployee(t)
	assert.ErrorIs(t, e.RejectProfile("motivo"), ErrInvalidVerificationState, "not_submitted no es rechazable")

	// Llevarlo hasta verified y comprobar que tampoco
	require.NoError(t, e.SubmitProfile())
	require.NoError(t, e.ApproveDetailsReview())
	require.NoError(t, e.ApproveDocumentsReview())
	require.NoError(t, e.AssignRoleAndAdvance("rol"))
	require.NoError(t, e.FinalApprove())
	assert.ErrorIs(t, e.RejectProfile("motivo"), ErrInvalidVerificationState)
}

func TestEmployee_RejectRequiresReason(t *testing.T) {
	e := newTestEmployee(t)
	require.NoError(t, e.SubmitProfile())

	assert.ErrorIs(t, e.RejectProfile("   "), ErrInvalidEmployee)
	assert.Equal(t, VerificationPendingDetailsReview, e.Status, "el estado no debe cambiar")
}

func TestEmployee_ResubmitGate(t *testing.T) {
	e := newTestEmployee(t)

	// Solo un perfil rechazado puede reenviar.
	assert.False(t, e.CanResubmit())
	assert.ErrorIs(t, e.Resubmit(), ErrInvalidVerificationState)

	require.NoError(t, e.SubmitProfile())
	assert.False(t, e.CanResubmit())

	require.NoError(t, e.RejectProfile("foto ilegible"))
	assert.True(t, e.CanResubmit())

	require.NoError(t, e.Resubmit())
	assert.Equal(t, VerificationPendingDetailsReview, e.Status)
	assert.Empty(t, e.RejectionReason, "el motivo anterior se limpia al reenviar")
}

func TestEmployee_AssignRoleRequiresRole(t *testing.T) {
	e := newTestEmployee(t)
	require.NoError(t, e.SubmitProfile())
	require.NoError(t, e.ApproveDetailsReview())
	require.NoError(t, e.ApproveDocumentsReview())

	assert.ErrorIs(t, e.AssignRoleAndAdvance("  "), ErrInvalidEmployee)
	assert.Equal(t, VerificationPendingRoleAssignment, e.Status)
}

func TestEmployee_UpdateContact(t *testing.T) {
	e := newTestEmployee(t)
	versionBefore := e.Version

	name := "Laura G."
	email := "laura.g@empresa.com"
	dept := uuid.New()
	require.NoError(t, e.UpdateContact(UpdateContactParams{Name: &name, Email: &email, DepartmentID: &dept}))

	assert.Equal(t, "Laura G.", e.Name)
	assert.Equal(t, "laura.g@empresa.com", e.Email)
	assert.Equal(t, dept, *e.DepartmentID)
	assert.Equal(t, versionBefore+1, e.Version)

	bad := "no-es-email"
	assert.ErrorIs(t, e.UpdateContact(UpdateContactParams{Email: &bad}), ErrInvalidEmployee)
}

// -------------------- Documentos --------------------

func TestDocumentsComplete(t *testing.T) {
	employeeID := uuid.New()

	var docs []*Document
	assert.False(t, DocumentsComplete(docs))
	assert.Len(t, MissingDocumentTypes(docs), len(RequiredDocumentTypes))

	// Subidos pero pendientes: no cuentan.
	for _, dt := range RequiredDocumentTypes {
		docs = append(docs, NewDocument(employeeID, dt, string(dt)+".pdf"))
	}
	assert.False(t, DocumentsComplete(docs))

	// Aprobamos todos menos el contrato.
	for _, d := range docs {
		if d.DocType != DocumentContract {
			d.Approve()
		}
	}
	assert.False(t, DocumentsComplete(docs))
	assert.Equal(t, []DocumentType{DocumentContract}, MissingDocumentTypes(docs))

	// Un documento rechazado no sustituye a uno aprobado.
	docs[1].Reject()
	extra := NewDocument(employeeID, DocumentContract, "contrato_v2.pdf")
	extra.Approve()
	docs = append(docs, extra)
	assert.True(t, DocumentsComplete(docs))
}
