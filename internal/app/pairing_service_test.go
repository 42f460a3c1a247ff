package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairingService_Check(t *testing.T) {
	repo := &mockPairingRepo{}
	svc := NewPairingService(repo, "open sesame", 3)
	ctx := context.Background()
	anna := ChatIdentity{ID: 7, FirstName: "Anna"}

	res, err := svc.Check(ctx, anna, "hi")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, pairingPrompt, res.Reply)
	assert.Zero(t, repo.pairings[7].LoginAttempts, "the first prompt is free")

	res, _ = svc.Check(ctx, anna, "abracadabra")
	assert.Equal(t, "This was the wrong secret phrase, please try again. You have 2 attempts left:", res.Reply)

	res, _ = svc.Check(ctx, anna, "  open sesame ")
	assert.False(t, res.Allowed)
	assert.Equal(t, pairingWelcome, res.Reply)
	assert.True(t, repo.pairings[7].Allowed)

	res, _ = svc.Check(ctx, anna, "how much formula")
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Reply)
	assert.Equal(t, "Anna", repo.pairings[7].FirstName)
}

func TestPairingService_LocksAfterMaxAttempts(t *testing.T) {
	repo := &mockPairingRepo{}
	svc := NewPairingService(repo, "open sesame", 2)
	ctx := context.Background()
	who := ChatIdentity{ID: 9}

	svc.Check(ctx, who, "hello")
	res, _ := svc.Check(ctx, who, "wrong")
	assert.Contains(t, res.Reply, "1 attempts left")
	res, _ = svc.Check(ctx, who, "wrong again")
	assert.Equal(t, "This was the wrong secret phrase. You have no attempts left.", res.Reply)

	res, err := svc.Check(ctx, who, "open sesame")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, pairingLocked, res.Reply)
	assert.Equal(t, 2, repo.pairings[9].LoginAttempts)
}

func TestPairingService_EmptySecretNeverMatches(t *testing.T) {
	svc := NewPairingService(&mockPairingRepo{}, "", 3)
	svc.Check(context.Background(), ChatIdentity{ID: 1}, "")
	res, _ := svc.Check(context.Background(), ChatIdentity{ID: 1}, "")
	assert.False(t, res.Allowed)
	assert.NotEqual(t, pairingWelcome, res.Reply)
}

func TestPairingService_RepoError(t *testing.T) {
	svc := NewPairingService(&mockPairingRepo{getErr: errors.New("down")}, "x", 3)
	_, err := svc.Check(context.Background(), ChatIdentity{ID: 1}, "x")
	assert.Error(t, err)
}
