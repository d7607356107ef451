package service

import (
	"context"
	"strings"
	"testing"

	"pharmacy/internal/model"
	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreatePrescriptionDeductsStockAndTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Amoxicillin 500mg", "15.99", 20, 5)
	patient := seedPatient(t, env.db, "Jordan Reyes", "555-0101")

	res, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		PatientID: patient.ID.String(),
		Items: []PrescriptionItemRequest{
			{MedicineID: medicine.ID.String(), Quantity: 2, Instructions: "After meals"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "31.98", res.Subtotal)
	require.Equal(t, "2.56", res.Tax)
	require.Equal(t, "34.54", res.Total)
	require.Equal(t, model.PrescriptionPending, res.Status)
	require.Equal(t, "Jordan Reyes", res.CustomerName)
	require.True(t, strings.HasPrefix(res.OrderNo, "RX-"))
	require.Len(t, res.Items, 1)
	require.Equal(t, "15.99", res.Items[0].UnitPrice)

	require.Equal(t, 18, currentStock(t, env.db, medicine.ID))
}

func TestCreatePrescriptionInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plenty := seedMedicine(t, env.db, "Paracetamol", "2.50", 50, 5)
	scarce := seedMedicine(t, env.db, "Insulin", "89.00", 5, 2)

	_, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items: []PrescriptionItemRequest{
			{MedicineID: plenty.ID.String(), Quantity: 10},
			{MedicineID: scarce.ID.String(), Quantity: 10},
		},
	})
	require.Error(t, err)
	require.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	typed := apperror.As(err)
	require.NotNil(t, typed)
	require.Equal(t, 5, typed.Details()["available"])
	require.Equal(t, 10, typed.Details()["required"])

	// No partial deduction: both rows keep their original stock.
	require.Equal(t, 50, currentStock(t, env.db, plenty.ID))
	require.Equal(t, 5, currentStock(t, env.db, scarce.ID))

	var count int64
	require.NoError(t, env.db.Model(&model.Prescription{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreatePrescriptionRequiresPatientOrWalkIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Ibuprofen", "5.00", 10, 2)

	_, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		Items: []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.True(t, apperror.Is(err, apperror.CodeValidation))

	res, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn:       true,
		CustomerName: "Walk-in customer",
		Items:        []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.OrderNo, "ORD-"))
}

func TestSequentialOrderNumbers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Cetirizine", "3.20", 100, 5)
	patient := seedPatient(t, env.db, "Sam Okafor", "555-0102")

	first, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		PatientID: patient.ID.String(),
		Items:     []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		PatientID: patient.ID.String(),
		Items:     []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	require.Equal(t, "RX-0001", first.OrderNo)
	require.Equal(t, "RX-0002", second.OrderNo)
}

func TestOrderNumbersNotReissuedAfterDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Lisinopril", "5.60", 100, 5)
	patient := seedPatient(t, env.db, "Priya Nair", "555-0103")

	first, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		PatientID: patient.ID.String(),
		Items:     []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		PatientID: patient.ID.String(),
		Items:     []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "RX-0001", first.OrderNo)
	require.Equal(t, "RX-0002", second.OrderNo)

	// Deleting an older order must not shrink the sequence: the next number
	// continues past the highest ever issued instead of colliding with RX-0002.
	require.NoError(t, env.prescriptions.Delete(ctx, uuid.NewString(), first.ID))

	third, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		PatientID: patient.ID.String(),
		Items:     []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "RX-0003", third.OrderNo)
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Metformin", "8.40", 30, 5)

	res, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 12}},
	})
	require.NoError(t, err)
	require.Equal(t, 18, currentStock(t, env.db, medicine.ID))

	cancelled, err := env.prescriptions.UpdateStatus(ctx, uuid.NewString(), res.ID, UpdateStatusRequest{Status: model.PrescriptionCancelled})
	require.NoError(t, err)
	require.Equal(t, model.PrescriptionCancelled, cancelled.Status)
	require.Equal(t, 30, currentStock(t, env.db, medicine.ID))

	// A second cancel must not restore stock again.
	_, err = env.prescriptions.UpdateStatus(ctx, uuid.NewString(), res.ID, UpdateStatusRequest{Status: model.PrescriptionCancelled})
	require.True(t, apperror.Is(err, apperror.CodeInvalidTransition))
	require.Equal(t, 30, currentStock(t, env.db, medicine.ID))
}

func TestCancelRecordsUnrestoredQuantityForDeletedMedicine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	kept := seedMedicine(t, env.db, "Atorvastatin", "9.80", 20, 5)
	removed := seedMedicine(t, env.db, "Recalled batch", "3.00", 20, 5)

	res, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items: []PrescriptionItemRequest{
			{MedicineID: kept.ID.String(), Quantity: 2},
			{MedicineID: removed.ID.String(), Quantity: 3},
		},
	})
	require.NoError(t, err)

	require.NoError(t, env.medicines.Delete(ctx, uuid.NewString(), removed.ID.String()))

	_, err = env.prescriptions.UpdateStatus(ctx, uuid.NewString(), res.ID, UpdateStatusRequest{Status: model.PrescriptionCancelled})
	require.NoError(t, err)

	// The surviving medicine gets its quantity back; the deleted one cannot
	// be restored, and the audit entry records the dropped quantity.
	require.Equal(t, 20, currentStock(t, env.db, kept.ID))

	var entry model.AuditLog
	require.NoError(t, env.db.Where("action = ?", model.ActionCancelPrescription).First(&entry).Error)
	require.Contains(t, entry.Details, `"unrestored"`)
	require.Contains(t, entry.Details, `"Recalled batch":3`)
}

func TestDispenseRequiresPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Omeprazole", "6.75", 10, 2)

	res, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.prescriptions.UpdateStatus(ctx, uuid.NewString(), res.ID, UpdateStatusRequest{Status: model.PrescriptionDispensed})
	require.True(t, apperror.Is(err, apperror.CodeInvalidTransition))

	_, err = env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: res.ID,
		Method:         model.PaymentMethodCard,
	})
	require.NoError(t, err)

	dispensed, err := env.prescriptions.UpdateStatus(ctx, uuid.NewString(), res.ID, UpdateStatusRequest{Status: model.PrescriptionDispensed})
	require.NoError(t, err)
	require.Equal(t, model.PrescriptionDispensed, dispensed.Status)
}

func TestDeleteRestoresStockOnlyWhenPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Aspirin", "1.99", 40, 5)

	pending, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, 30, currentStock(t, env.db, medicine.ID))

	require.NoError(t, env.prescriptions.Delete(ctx, uuid.NewString(), pending.ID))
	require.Equal(t, 40, currentStock(t, env.db, medicine.ID))

	// A paid order already consumed its stock; deleting it must not restore.
	paid, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 10}},
	})
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: paid.ID,
		Method:         model.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	require.NoError(t, env.prescriptions.Delete(ctx, uuid.NewString(), paid.ID))
	require.Equal(t, 30, currentStock(t, env.db, medicine.ID))

	_, err = env.prescriptions.Get(ctx, paid.ID)
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestPrescriptionListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Loratadine", "4.10", 100, 5)

	created, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.prescriptions.UpdateStatus(ctx, uuid.NewString(), created.ID, UpdateStatusRequest{Status: model.PrescriptionCancelled})
	require.NoError(t, err)

	pending, total, err := env.prescriptions.List(ctx, PrescriptionFilter{Status: model.PrescriptionPending})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	require.Equal(t, model.PrescriptionPending, pending[0].Status)
}
