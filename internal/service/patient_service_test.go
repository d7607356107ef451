package service

import (
	"context"
	"testing"

	"pharmacy/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPatientCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := uuid.NewString()

	dob := "1988-04-12"
	created, err := env.patients.Create(ctx, actor, PatientRequest{
		Name:        "Jordan Reyes",
		Phone:       "555-0101",
		DateOfBirth: &dob,
		Allergies:   "penicillin",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := env.patients.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Jordan Reyes", fetched.Name)
	require.Equal(t, "penicillin", fetched.Allergies)

	updated, err := env.patients.Update(ctx, actor, created.ID, PatientRequest{
		Name:  "Jordan Reyes",
		Phone: "555-0199",
	})
	require.NoError(t, err)
	require.Equal(t, "555-0199", updated.Phone)

	require.NoError(t, env.patients.Delete(ctx, actor, created.ID))
	_, err = env.patients.Get(ctx, created.ID)
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestPatientCreateRejectsBadDateOfBirth(t *testing.T) {
	env := newTestEnv(t)

	dob := "12/04/1988"
	_, err := env.patients.Create(context.Background(), uuid.NewString(), PatientRequest{
		Name:        "Jordan Reyes",
		DateOfBirth: &dob,
	})
	require.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestPatientListSearchesByName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedPatient(t, env.db, "Jordan Reyes", "555-0101")
	seedPatient(t, env.db, "Sam Okafor", "555-0102")

	results, total, err := env.patients.List(ctx, 1, 20, "jordan")
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, results, 1)
	require.Equal(t, "Jordan Reyes", results[0].Name)
}
