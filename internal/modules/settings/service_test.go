package settings

import (
	"testing"

	"github.com/aristath/bankmirror/internal/domain"
	testingpkg "github.com/aristath/bankmirror/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (*Service, *testingpkg.MockEventPublisher) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "")
	t.Cleanup(cleanup)
	events := &testingpkg.MockEventPublisher{}
	return NewService(NewRepository(db, zerolog.Nop()), events, zerolog.Nop()), events
}

func TestGetConfiguration_Empty(t *testing.T) {
	service, _ := newTestService(t)

	cfg, err := service.GetConfiguration()
	require.NoError(t, err)
	assert.Nil(t, cfg.APIKey)
	assert.Nil(t, cfg.UserID)
	assert.Nil(t, cfg.AccountID)
}

func TestUpdateConfiguration(t *testing.T) {
	service, events := newTestService(t)

	cfg, err := service.UpdateConfiguration(SettingsUpdate{
		"user_id":    strPtr(" U1 "),
		"account_id": strPtr("A1"),
		"api_key":    nil,
	})
	require.NoError(t, err)
	require.NotNil(t, cfg.UserID)
	assert.Equal(t, "U1", *cfg.UserID)
	assert.Equal(t, "A1", *cfg.AccountID)
	assert.Nil(t, cfg.APIKey)
	assert.Equal(t, []string{EventSettingsChanged}, events.Events())
}

func TestUpdateConfiguration_RejectsUnknownKeys(t *testing.T) {
	service, events := newTestService(t)

	_, err := service.UpdateConfiguration(SettingsUpdate{
		"user_id":      strPtr("U1"),
		"trading_mode": strPtr("live"),
	})
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "trading_mode", valErr.Field)

	cfg, err := service.GetConfiguration()
	require.NoError(t, err)
	assert.Nil(t, cfg.UserID, "nothing is written when any key is rejected")
	assert.Empty(t, events.Events())
}

func TestAppConfiguration_Masked(t *testing.T) {
	cfg := AppConfiguration{APIKey: strPtr("secret"), UserID: strPtr("U1")}

	masked := cfg.Masked()
	assert.Equal(t, "********", *masked.APIKey)
	assert.Equal(t, "U1", *masked.UserID)
	assert.Equal(t, "secret", *cfg.APIKey)
}
