package service

import (
	"context"
	"testing"

	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSupplierCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := uuid.NewString()

	active := true
	inactive := false
	created, err := env.suppliers.Create(ctx, actor, SupplierRequest{
		Name:          "MedSource Wholesale",
		ContactPerson: "Dana Liu",
		Phone:         "555-0200",
		IsActive:      &active,
	})
	require.NoError(t, err)

	fetched, err := env.suppliers.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "MedSource Wholesale", fetched.Name)
	require.True(t, fetched.IsActive)

	updated, err := env.suppliers.Update(ctx, actor, created.ID, SupplierRequest{
		Name:     "MedSource Wholesale",
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	require.NoError(t, env.suppliers.Delete(ctx, actor, created.ID))
	_, err = env.suppliers.Get(ctx, created.ID)
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestMedicineCreateLinksSupplier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	active := true
	supplier, err := env.suppliers.Create(ctx, uuid.NewString(), SupplierRequest{Name: "MedSource Wholesale", IsActive: &active})
	require.NoError(t, err)

	medicine, err := env.medicines.Create(ctx, uuid.NewString(), CreateMedicineRequest{
		Name:       "Amoxicillin 500mg",
		Price:      "15.99",
		Stock:      10,
		SupplierID: supplier.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, medicine.SupplierID)
	require.Equal(t, supplier.ID, *medicine.SupplierID)

	_, err = env.medicines.Create(ctx, uuid.NewString(), CreateMedicineRequest{
		Name:       "Ibuprofen",
		Price:      "5.00",
		SupplierID: uuid.NewString(),
	})
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}
