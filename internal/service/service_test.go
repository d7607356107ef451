package service

import (
	"testing"

	"pharmacy/internal/database"
	"pharmacy/internal/events"
	"pharmacy/internal/model"
	"pharmacy/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:pharmacy_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// testEnv wires the full service graph against an in-memory database.
type testEnv struct {
	db            *gorm.DB
	bus           *events.Bus
	audit         AuditService
	medicines     MedicineService
	prescriptions PrescriptionService
	payments      PaymentService
	users         UserService
	patients      PatientService
	suppliers     SupplierService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	bus := events.NewBus()
	txManager := repository.NewTransactionManager(db)

	medicineRepo := repository.NewMedicineRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)

	audit := NewAuditService(auditRepo)
	prescriptions := NewPrescriptionService(prescriptionRepo, medicineRepo, patientRepo, audit, txManager, bus)

	return &testEnv{
		db:            db,
		bus:           bus,
		audit:         audit,
		medicines:     NewMedicineService(medicineRepo, supplierRepo, audit, txManager, bus),
		prescriptions: prescriptions,
		payments:      NewPaymentService(paymentRepo, prescriptionRepo, prescriptions, audit, txManager, bus),
		users:         NewUserService(userRepo, audit, txManager),
		patients:      NewPatientService(patientRepo, audit, txManager),
		suppliers:     NewSupplierService(supplierRepo, audit, txManager),
	}
}

func seedMedicine(t *testing.T, db *gorm.DB, name, price string, stock, minStock int) *model.Medicine {
	t.Helper()
	parsed, err := decimal.NewFromString(price)
	require.NoError(t, err)
	medicine := &model.Medicine{
		Name:     name,
		Price:    parsed,
		Stock:    stock,
		MinStock: minStock,
	}
	require.NoError(t, db.Create(medicine).Error)
	return medicine
}

func seedPatient(t *testing.T, db *gorm.DB, name, phone string) *model.Patient {
	t.Helper()
	patient := &model.Patient{Name: name, Phone: phone}
	require.NoError(t, db.Create(patient).Error)
	return patient
}

func currentStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var medicine model.Medicine
	require.NoError(t, db.First(&medicine, "id = ?", id).Error)
	return medicine.Stock
}
