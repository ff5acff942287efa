package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psiclinic/platform/internal/auth"
	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/patients"
)

func TestDirectoryResolverFindsProfessionalByUserID(t *testing.T) {
	users := auth.NewInMemoryRepository()
	patientRepo := patients.NewInMemoryRepository()
	require.NoError(t, users.Create(context.Background(), &auth.User{
		ID:    "prof-1",
		Name:  "Dra. Silva",
		Email: "silva@clinic.example",
		Role:  identity.RoleProfessional,
	}))

	resolver := NewDirectoryResolver(users, patientRepo)

	address, name, err := resolver.EmailFor(context.Background(), "prof-1")
	require.NoError(t, err)
	assert.Equal(t, "silva@clinic.example", address)
	assert.Equal(t, "Dra. Silva", name)
}

func TestDirectoryResolverFallsBackToPatientProfile(t *testing.T) {
	users := auth.NewInMemoryRepository()
	patientRepo := patients.NewInMemoryRepository()
	created, err := patientRepo.Create(context.Background(), &patients.CreatePatientRequest{
		ProfessionalID: "prof-1",
		Name:           "Ana Souza",
		Email:          "ana@example.com",
		LGPDConsent:    true,
	})
	require.NoError(t, err)

	resolver := NewDirectoryResolver(users, patientRepo)

	address, name, err := resolver.EmailFor(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", address)
	assert.Equal(t, "Ana Souza", name)
}

func TestDirectoryResolverUnknownRecipient(t *testing.T) {
	resolver := NewDirectoryResolver(auth.NewInMemoryRepository(), patients.NewInMemoryRepository())

	_, _, err := resolver.EmailFor(context.Background(), "nobody")
	assert.Error(t, err)
}
