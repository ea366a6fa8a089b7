package notifications

import (
	"testing"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/models"
	"asset-tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyAndRead(t *testing.T) {
	store, _ := testutil.Store(t)
	svc := NewService(store)
	alice := testutil.CreateUser(t, store, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, store, "bob", models.RoleUser)

	require.NoError(t, svc.Notify(store.DB(), []uint{alice.ID, bob.ID}, models.NotificationLowStock, "Low stock", "Computer: 0"))
	require.NoError(t, svc.Notify(store.DB(), []uint{alice.ID}, models.NotificationOverdue, "Overdue", "OUT-1"))
	require.NoError(t, svc.Notify(store.DB(), nil, models.NotificationOverdue, "nobody", ""))

	unread, err := svc.Unread(alice.ID)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, models.NotificationOverdue, unread[0].Type)

	// users only touch their own notifications
	assert.True(t, apperr.Is(svc.MarkRead(unread[0].ID, bob.ID), apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(unread[0].ID, bob.ID), apperr.KindNotFound))

	require.NoError(t, svc.MarkRead(unread[0].ID, alice.ID))
	unread, err = svc.Unread(alice.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	n, err := svc.MarkAllRead(alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	unread, err = svc.Unread(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	bobs, err := svc.Unread(bob.ID)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	require.NoError(t, svc.Delete(bobs[0].ID, bob.ID))
	assert.True(t, apperr.Is(svc.Delete(bobs[0].ID, bob.ID), apperr.KindNotFound))
}
