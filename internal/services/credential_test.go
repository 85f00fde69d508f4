package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherpass/internal/domain"
)

func TestCredentialService_EnsureCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a credential for an attendee without one", func(t *testing.T) {
		repo := newFakeAttendeeRepo()
		attendee := repo.add(&domain.Attendee{EventID: "evt-1"})
		svc := NewCredentialService(repo, fakeQRRenderer{})

		token, err := svc.EnsureCredential(ctx, attendee.ID)
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.True(t, strings.HasPrefix(token, domain.CredentialPrefix+":evt-1:"+attendee.ID+":"))

		stored := repo.get(attendee.ID)
		assert.Equal(t, token, stored.CredentialToken)
		assert.NotEmpty(t, stored.CredentialImage)
		assert.NotNil(t, stored.CredentialIssuedAt)
	})

	t.Run("is idempotent", func(t *testing.T) {
		repo := newFakeAttendeeRepo()
		attendee := repo.add(&domain.Attendee{EventID: "evt-1"})
		svc := NewCredentialService(repo, fakeQRRenderer{})

		first, err := svc.EnsureCredential(ctx, attendee.ID)
		require.NoError(t, err)
		second, err := svc.EnsureCredential(ctx, attendee.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("never rotates an existing credential", func(t *testing.T) {
		repo := newFakeAttendeeRepo()
		attendee := repo.add(&domain.Attendee{EventID: "evt-1", CredentialToken: "GPASS-EVENT:evt-1:x:1"})
		svc := NewCredentialService(repo, fakeQRRenderer{})

		token, err := svc.EnsureCredential(ctx, attendee.ID)
		require.NoError(t, err)
		assert.Equal(t, "GPASS-EVENT:evt-1:x:1", token)
	})

	t.Run("unknown attendee", func(t *testing.T) {
		svc := NewCredentialService(newFakeAttendeeRepo(), fakeQRRenderer{})
		_, err := svc.EnsureCredential(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
