package application

import (
	"context"
	"testing"

	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	"github.com/davicafu/hrlab/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEmployeeService() (*EmployeeService, *mocks.InMemoryEmployeeRepo, *mocks.InMemoryDocumentRepo) {
	repo := mocks.NewInMemoryEmployeeRepo()
	docs := mocks.NewInMemoryDocumentRepo()
	service := NewEmployeeService(repo, docs, mocks.NewDummyCache(), zap.NewNop())
	return service, repo, docs
}

func TestCreateEmployee_Success(t *testing.T) {
	service, repo, _ := newEmployeeService()

	employee, err := service.CreateEmployee(context.Background(), uuid.New(), "nuevo@empresa.com", "Nuevo")
	require.NoError(t, err)
	assert.Equal(t, employeeDomain.VerificationNotSubmitted, employee.Status)

	// ✅ Verificar que se creó un evento Outbox
	assert.Len(t, repo.Outbox, 1)
	assert.Equal(t, employeeDomain.EmployeeCreated, repo.Outbox[0].EventType)
	assert.Equal(t, employee.ID.String(), repo.Outbox[0].AggregateID)
}

func TestCreateEmployee_InvalidEmail(t *testing.T) {
	service, _, _ := newEmployeeService()

	_, err := service.CreateEmployee(context.Background(), uuid.New(), "sin-arroba", "Nuevo")
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidEmployee)
}

func TestGetEmployeeByID_NotFound(t *testing.T) {
	service, _, _ := newEmployeeService()

	_, err := service.GetEmployeeByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
}

func TestGetEmployeeByUserID_AndResolve(t *testing.T) {
	service, _, _ := newEmployeeService()
	userID := uuid.New()

	employee, err := service.CreateEmployee(context.Background(), userID, "res@empresa.com", "Resoluble")
	require.NoError(t, err)

	got, err := service.GetEmployeeByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, got.ID)

	resolved, err := service.ResolveEmployeeID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, resolved)

	_, err = service.ResolveEmployeeID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
}

func TestUpdateEmployee_VersionConflict(t *testing.T) {
	service, _, _ := newEmployeeService()

	employee, err := service.CreateEmployee(context.Background(), uuid.New(), "cas@empresa.com", "Concurrente")
	require.NoError(t, err)

	// Versión correcta: pasa.
	name := "Concurrente I"
	updated, err := service.UpdateEmployee(context.Background(), employee.ID, employeeDomain.UpdateContactParams{Name: &name}, &employee.Version)
	require.NoError(t, err)
	assert.Equal(t, employee.Version+1, updated.Version)

	// Versión desfasada: conflicto y sin escritura.
	name2 := "Concurrente II"
	stale := employee.Version // ya no es la versión almacenada
	_, err = service.UpdateEmployee(context.Background(), employee.ID, employeeDomain.UpdateContactParams{Name: &name2}, &stale)
	assert.ErrorIs(t, err, employeeDomain.ErrVersionConflict)

	stored, _ := service.GetEmployeeByID(context.Background(), employee.ID)
	assert.Equal(t, "Concurrente I", stored.Name)

	// Sin versión esperada el CAS no se aplica.
	_, err = service.UpdateEmployee(context.Background(), employee.ID, employeeDomain.UpdateContactParams{Name: &name2}, nil)
	assert.NoError(t, err)
}

func TestSubmitProfile_StartsPipeline(t *testing.T) {
	service, repo, _ := newEmployeeService()

	employee, err := service.CreateEmployee(context.Background(), uuid.New(), "sub@empresa.com", "Entregado")
	require.NoError(t, err)

	updated, err := service.SubmitProfile(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employeeDomain.VerificationPendingDetailsReview, updated.Status)
	assert.Equal(t, employeeDomain.EmployeeProfileSubmitted, repo.LastOutboxEventType())

	// Reenviar sin haber sido rechazado no está permitido.
	_, err = service.ResubmitProfile(context.Background(), employee.ID)
	assert.ErrorIs(t, err, employeeDomain.ErrInvalidVerificationState)
}

func TestDeleteEmployee_Success(t *testing.T) {
	service, repo, _ := newEmployeeService()

	employee, err := service.CreateEmployee(context.Background(), uuid.New(), "baja@empresa.com", "Baja")
	require.NoError(t, err)

	require.NoError(t, service.DeleteEmployee(context.Background(), employee.ID))
	_, err = repo.GetByID(context.Background(), employee.ID)
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
	assert.Equal(t, employeeDomain.EmployeeDeleted, repo.LastOutboxEventType())
}

func TestUploadAndListDocuments(t *testing.T) {
	service, _, _ := newEmployeeService()

	employee, err := service.CreateEmployee(context.Background(), uuid.New(), "docs@empresa.com", "Documentado")
	require.NoError(t, err)

	_, err = service.UploadDocument(context.Background(), employee.ID, employeeDomain.DocumentIdentity, "dni.pdf")
	require.NoError(t, err)
	_, err = service.UploadDocument(context.Background(), employee.ID, employeeDomain.DocumentContract, "contrato.pdf")
	require.NoError(t, err)

	docs, err := service.ListDocuments(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, employeeDomain.DocumentPending, d.Status)
	}

	// Empleado inexistente
	_, err = service.UploadDocument(context.Background(), uuid.New(), employeeDomain.DocumentTaxForm, "irpf.pdf")
	assert.ErrorIs(t, err, employeeDomain.ErrEmployeeNotFound)
}
