package service

import (
	"context"
	"testing"

	"pharmacy/internal/events"
	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateMedicineValidatesPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.medicines.Create(ctx, uuid.NewString(), CreateMedicineRequest{Name: "Aspirin", Price: "abc"})
	require.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = env.medicines.Create(ctx, uuid.NewString(), CreateMedicineRequest{Name: "Aspirin", Price: "-1.00"})
	require.True(t, apperror.Is(err, apperror.CodeValidation))

	created, err := env.medicines.Create(ctx, uuid.NewString(), CreateMedicineRequest{
		Name:     "Aspirin",
		Category: "Analgesic",
		Price:    "1.99",
		Stock:    40,
		MinStock: 5,
	})
	require.NoError(t, err)
	require.Equal(t, "1.99", created.Price)
	require.Equal(t, 40, created.Stock)
	require.False(t, created.LowStock)
}

func TestFindMedicineByBarcode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.medicines.Create(ctx, uuid.NewString(), CreateMedicineRequest{
		Name:    "Vitamin C",
		Barcode: "8901234567890",
		Price:   "3.50",
		Stock:   12,
	})
	require.NoError(t, err)

	found, err := env.medicines.FindByBarcode(ctx, "8901234567890")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = env.medicines.FindByBarcode(ctx, "0000000000000")
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Insulin", "89.00", 5, 2)

	_, err := env.medicines.AdjustStock(ctx, uuid.NewString(), medicine.ID.String(), AdjustStockRequest{Delta: -8, Reason: "damaged"})
	require.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
	require.Equal(t, 5, currentStock(t, env.db, medicine.ID))

	adjusted, err := env.medicines.AdjustStock(ctx, uuid.NewString(), medicine.ID.String(), AdjustStockRequest{Delta: -3, Reason: "damaged"})
	require.NoError(t, err)
	require.Equal(t, 2, adjusted.Stock)
}

func TestAdjustStockPublishesLowStockEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Epinephrine", "120.00", 10, 4)

	var lowEvents []MedicineResponse
	unsubscribe := env.bus.Subscribe(events.StockLow, func(payload interface{}) {
		lowEvents = append(lowEvents, payload.(MedicineResponse))
	})
	defer unsubscribe()

	_, err := env.medicines.AdjustStock(ctx, uuid.NewString(), medicine.ID.String(), AdjustStockRequest{Delta: -2})
	require.NoError(t, err)
	require.Empty(t, lowEvents)

	adjusted, err := env.medicines.AdjustStock(ctx, uuid.NewString(), medicine.ID.String(), AdjustStockRequest{Delta: -4})
	require.NoError(t, err)
	require.Equal(t, 4, adjusted.Stock)
	require.True(t, adjusted.LowStock)
	require.Len(t, lowEvents, 1)
	require.Equal(t, medicine.ID.String(), lowEvents[0].ID)
}

func TestMedicineListLowStockFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedMedicine(t, env.db, "Paracetamol", "2.50", 50, 5)
	seedMedicine(t, env.db, "Insulin", "89.00", 2, 5)

	low, total, err := env.medicines.List(ctx, MedicineFilter{LowStock: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, low, 1)
	require.Equal(t, "Insulin", low[0].Name)
	require.True(t, low[0].LowStock)
}

func TestDeletedMedicineHiddenFromLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	medicine := seedMedicine(t, env.db, "Codeine", "14.00", 6, 2)

	require.NoError(t, env.medicines.Delete(ctx, uuid.NewString(), medicine.ID.String()))

	_, err := env.medicines.Get(ctx, medicine.ID.String())
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}
