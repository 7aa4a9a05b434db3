package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

func newTestConnectionService(conns ...model.Connection) (*ConnectionService, *memConnectionStore, *memStateStore) {
	cs := newMemConnectionStore(conns...)
	ss := newMemStateStore()
	svc := NewConnectionService(cs, ss, reverseCipher{}, stubAuthURLs{}, 5*time.Minute)
	svc.now = fixedClock
	return svc, cs, ss
}

func TestConnectionService_Initiate(t *testing.T) {
	svc, cs, ss := newTestConnectionService()

	conn, authURL, err := svc.Initiate(context.Background(), "u1", "Gmail")

	require.NoError(t, err)
	assert.Equal(t, model.ProviderGmail, conn.Provider)
	assert.Equal(t, model.ConnectionStatusPending, conn.Status)
	assert.False(t, conn.IsActive)
	assert.Contains(t, cs.conns, conn.ID)

	require.Len(t, ss.states, 1)
	for token, st := range ss.states {
		assert.Equal(t, conn.ID, st.ConnectionID)
		assert.Equal(t, "u1", st.UserID)
		assert.Equal(t, fixedNow.Add(5*time.Minute), st.ExpiresAt)
		assert.True(t, strings.HasSuffix(authURL, "state="+token))
		assert.GreaterOrEqual(t, len(token), 43)
	}
}

func TestConnectionService_InitiateRejects(t *testing.T) {
	svc, cs, ss := newTestConnectionService()
	ctx := context.Background()

	_, _, err := svc.Initiate(ctx, "u1", "myspace")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Initiate(ctx, "u1", "slack")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)

	assert.Empty(t, cs.conns, "no connection should be created on rejection")
	assert.Empty(t, ss.states)
}

func TestConnectionService_InitiateStateFailureRemovesConnection(t *testing.T) {
	svc, cs, ss := newTestConnectionService()
	ss.saveErr = errors.New("disk full")

	_, _, err := svc.Initiate(context.Background(), "u1", "gmail")

	require.Error(t, err)
	assert.Empty(t, cs.conns)
	assert.Len(t, cs.deleted, 1)
}

func TestConnectionService_Update(t *testing.T) {
	svc, _, _ := newTestConnectionService(model.Connection{ID: "c1", UserID: "u1", Provider: model.ProviderGmail})
	ctx := context.Background()
	active := true

	got, err := svc.Update(ctx, "u1", "c1", model.ConnectionPatch{DisplayName: strPtr(" Work inbox "), IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Work inbox", got.DisplayName)
	assert.True(t, got.IsActive)

	_, err = svc.Update(ctx, "u2", "c1", model.ConnectionPatch{})
	assert.ErrorIs(t, err, driven.ErrConnectionNotFound)

	_, err = svc.Update(ctx, "u1", "c1", model.ConnectionPatch{DisplayName: strPtr(strings.Repeat("x", 101))})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConnectionService_Test(t *testing.T) {
	past := fixedNow.Add(-time.Minute)
	future := fixedNow.Add(time.Hour)

	base := model.Connection{
		ID:                "c1",
		UserID:            "u1",
		Provider:          model.ProviderGmail,
		Status:            model.ConnectionStatusActive,
		AccessToken:       "enc:ya29",
		AccessTokenExpiry: &future,
		IsActive:          true,
	}

	tests := []struct {
		name       string
		mutate     func(c *model.Connection)
		wantValid  bool
		wantReason string
	}{
		{"valid", func(*model.Connection) {}, true, ""},
		{"no expiry is valid", func(c *model.Connection) { c.AccessTokenExpiry = nil }, true, ""},
		{"pending", func(c *model.Connection) { c.Status = model.ConnectionStatusPending }, false, "connection status is pending"},
		{"disabled", func(c *model.Connection) { c.IsActive = false }, false, "connection is disabled"},
		{"no token", func(c *model.Connection) { c.AccessToken = "" }, false, "no access token stored"},
		{"tampered", func(c *model.Connection) { c.AccessToken = "garbage" }, false, "stored access token cannot be decrypted"},
		{"expired", func(c *model.Connection) { c.AccessTokenExpiry = &past }, false, "access token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			svc, _, _ := newTestConnectionService(c)

			check, err := svc.Test(context.Background(), "u1", "c1")

			require.NoError(t, err)
			assert.Equal(t, "c1", check.ConnectionID)
			assert.Equal(t, tt.wantValid, check.Valid)
			assert.Equal(t, tt.wantReason, check.Reason)
		})
	}
}

func TestConnectionService_RefreshNotImplemented(t *testing.T) {
	svc, _, _ := newTestConnectionService(model.Connection{ID: "c1", UserID: "u1"})
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "u1", "c1")
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = svc.Refresh(ctx, "u1", "missing")
	assert.ErrorIs(t, err, driven.ErrConnectionNotFound)
}

func TestConnectionService_Delete(t *testing.T) {
	svc, cs, _ := newTestConnectionService(model.Connection{ID: "c1", UserID: "u1"})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "u2", "c1"), driven.ErrConnectionNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", "c1"))
	assert.Empty(t, cs.conns)
}
