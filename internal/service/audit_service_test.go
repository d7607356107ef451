package service

import (
	"context"
	"fmt"
	"testing"

	"pharmacy/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuditTrailEvictsOldestBeyondCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < model.AuditLogLimit+20; i++ {
		err := env.audit.Append(ctx, uuid.NewString(), model.ActionCreateMedicine, uuid.NewString(), fmt.Sprintf("entry-%d", i), nil)
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, env.db.Model(&model.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, model.AuditLogLimit, count)

	// Newest entries survive; the first 20 were evicted.
	logs, total, err := env.audit.List(ctx, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, model.AuditLogLimit, total)
	require.Equal(t, fmt.Sprintf("entry-%d", model.AuditLogLimit+19), logs[0].EntityName)

	var oldest model.AuditLog
	require.NoError(t, env.db.Order("id ASC").First(&oldest).Error)
	require.Equal(t, "entry-20", oldest.EntityName)
}

func TestAuditUnknownActorRecordedAsSystem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.audit.Append(ctx, "not-a-uuid", model.ActionDeleteMedicine, uuid.NewString(), "Expired batch", nil))

	logs, _, err := env.audit.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "System", logs[0].Username)
	require.Empty(t, logs[0].UserID)
}

func TestAuditUnmarshalableDetailsStillRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	details := map[string]interface{}{"stream": make(chan int)}
	require.NoError(t, env.audit.Append(ctx, uuid.NewString(), model.ActionCreateMedicine, uuid.NewString(), "Bad payload", details))

	logs, _, err := env.audit.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Contains(t, logs[0].Details, "marshal_error")
}

func TestBusinessOperationsLeaveAuditEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Amlodipine", "7.25", 30, 5)
	res, err := env.prescriptions.Create(ctx, uuid.NewString(), CreatePrescriptionRequest{
		WalkIn: true,
		Items:  []PrescriptionItemRequest{{MedicineID: medicine.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(ctx, uuid.NewString(), ProcessPaymentRequest{
		PrescriptionID: res.ID,
		Method:         model.PaymentMethodCard,
	})
	require.NoError(t, err)

	var actions []string
	require.NoError(t, env.db.Model(&model.AuditLog{}).Order("id ASC").Pluck("action", &actions).Error)
	require.Equal(t, []string{model.ActionCreatePrescription, model.ActionProcessPayment}, actions)
}
