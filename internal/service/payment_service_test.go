package service

import (
	"context"
	"testing"

	"pharmacy/internal/model"
	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createPendingPrescription(t *testing.T, env *testEnv) PrescriptionResponse {
	t.Helper()
	medicine := seedMedicine(t, env.db, "Amoxicillin 500mg", "15.99", 20, 5)
	res, err := env.prescriptions.Create(context.Background(), uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "34.54", res.Total)
	return res
}

func TestCashPaymentReturnsChange(t *testing.T) {
	env := newTestEnv(t)
	prescription := createPendingPrescription(t, env)

	payment, err := env.payments.ProcessPayment(context.Background(), uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodCash,
		Tendered:       "40.00",
	})
	require.NoError(t, err)

	require.Equal(t, "34.54", payment.Amount)
	require.Equal(t, "40.00", payment.Tendered)
	require.Equal(t, "5.46", payment.Change)
	require.Equal(t, prescription.OrderNo, payment.OrderNo)

	updated, err := env.prescriptions.Get(context.Background(), prescription.ID)
	require.NoError(t, err)
	require.Equal(t, model.PrescriptionPaid, updated.Status)
	require.Equal(t, model.PaymentMethodCash, updated.PaymentMethod)
	require.NotNil(t, updated.PaidAt)
}

func TestCashPaymentRejectsInsufficientTender(t *testing.T) {
	env := newTestEnv(t)
	prescription := createPendingPrescription(t, env)

	_, err := env.payments.ProcessPayment(context.Background(), uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodCash,
		Tendered:       "30.00",
	})
	require.True(t, apperror.Is(err, apperror.CodeInsufficientPayment))

	typed := apperror.As(err)
	require.NotNil(t, typed)
	require.Equal(t, "34.54", typed.Details()["due"])
	require.Equal(t, "30.00", typed.Details()["tendered"])

	// The prescription must still be payable.
	updated, err := env.prescriptions.Get(context.Background(), prescription.ID)
	require.NoError(t, err)
	require.Equal(t, model.PrescriptionPending, updated.Status)
}

func TestCardPaymentSettlesExactAmount(t *testing.T) {
	env := newTestEnv(t)
	prescription := createPendingPrescription(t, env)

	payment, err := env.payments.ProcessPayment(context.Background(), uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.Equal(t, "34.54", payment.Tendered)
	require.Equal(t, "0.00", payment.Change)
}

func TestDoublePaymentRejected(t *testing.T) {
	env := newTestEnv(t)
	prescription := createPendingPrescription(t, env)
	ctx := context.Background()

	_, err := env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	_, err = env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodTransfer,
	})
	require.True(t, apperror.Is(err, apperror.CodeInvalidState))

	var count int64
	require.NoError(t, env.db.Model(&model.Payment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPaymentForCancelledPrescriptionRejected(t *testing.T) {
	env := newTestEnv(t)
	prescription := createPendingPrescription(t, env)
	ctx := context.Background()

	_, err := env.prescriptions.UpdateStatus(ctx, uuid.NewString(), prescription.ID, UpdateStatusRequest{Status: model.PrescriptionCancelled})
	require.NoError(t, err)

	_, err = env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodCash,
		Tendered:       "100.00",
	})
	require.True(t, apperror.Is(err, apperror.CodeInvalidState))
}

func TestPaymentListReturnsSettledPayments(t *testing.T) {
	env := newTestEnv(t)
	prescription := createPendingPrescription(t, env)
	ctx := context.Background()

	_, err := env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: prescription.ID,
		Method:         model.PaymentMethodCard,
	})
	require.NoError(t, err)

	payments, total, err := env.payments.List(ctx, PaymentFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, payments, 1)
}
