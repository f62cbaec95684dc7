package service

import (
	"testing"
	"time"

	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionSettingsReloadAfterTTLAcrossInstances(t *testing.T) {
	env := setupServiceTestEnv(t, "settings_ttl")
	defaults := config.SettlementConfig{
		TransferProcessingDay:   "monday",
		FinanceEmail:            "old@example.com",
		SettingsCacheTTLSeconds: 60,
	}
	clock := time.Date(2026, 3, 16, 8, 0, 0, 0, time.Local)
	now := func() time.Time { return clock }

	repo := repository.NewCommissionSettingsRepository(env.db)
	worker := NewCommissionSettingsService(repo, defaults)
	worker.now = now
	api := NewCommissionSettingsService(repo, defaults)
	api.now = now

	loaded, err := worker.Get(testContext())
	require.NoError(t, err)
	assert.Equal(t, "monday", loaded.TransferProcessingDay)

	day, email := "friday", "new@example.com"
	_, err = api.Update(testContext(), 1, CommissionSettingsInput{TransferProcessingDay: &day, FinanceEmail: &email})
	require.NoError(t, err)

	cached, err := worker.Get(testContext())
	require.NoError(t, err)
	assert.Equal(t, "monday", cached.TransferProcessingDay, "within ttl the process copy is served")

	clock = clock.Add(61 * time.Second)
	reloaded, err := worker.Get(testContext())
	require.NoError(t, err)
	assert.Equal(t, "friday", reloaded.TransferProcessingDay)
	assert.Equal(t, "new@example.com", reloaded.FinanceEmail)
}

func TestCommissionSettingsUpdateValidation(t *testing.T) {
	env := setupServiceTestEnv(t, "settings_validation")
	bad := "someday"
	_, err := env.settings.Update(testContext(), 1, CommissionSettingsInput{TransferProcessingDay: &bad})
	require.ErrorIs(t, err, ErrInvalidTransferDay)

	email := "not-an-email"
	_, err = env.settings.Update(testContext(), 1, CommissionSettingsInput{FinanceEmail: &email})
	require.ErrorIs(t, err, ErrInvalidEmail)
}
