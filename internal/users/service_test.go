package users

import (
	"testing"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/logger"
	"asset-tracker/internal/models"
	"asset-tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*Service, models.User) {
	t.Helper()
	store, _ := testutil.Store(t)
	return NewService(store, logger.Discard()), testutil.Admin(t, store)
}

func TestCreateDefaultsToUserRole(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Create(CreateRequest{Username: "alice", Password: "secret1", Name: "Alice", Branch: "Eng"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))

	_, err = svc.Create(CreateRequest{Username: "alice", Password: "secret2"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Create(CreateRequest{Username: "bob", Password: "123"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(CreateRequest{Username: "carol", Password: "secret1", Role: "root"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteLastAdminIsRejected(t *testing.T) {
	svc, admin := newService(t)

	err := svc.Delete(admin.Username)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.GetByID(admin.ID)
	assert.NoError(t, err)
}

func TestDeleteAdminWhenAnotherExists(t *testing.T) {
	svc, admin := newService(t)
	testutil.CreateUser(t, svc.store, "second", models.RoleAdmin)

	require.NoError(t, svc.Delete(admin.Username))
	_, err := svc.GetByID(admin.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// the survivor is now the last admin
	assert.True(t, apperr.Is(svc.Delete("second"), apperr.KindConflict))
}

func TestDeleteRegularUserAndMissing(t *testing.T) {
	svc, _ := newService(t)
	testutil.CreateUser(t, svc.store, "temp", models.RoleUser)

	require.NoError(t, svc.Delete("temp"))
	assert.True(t, apperr.Is(svc.Delete("temp"), apperr.KindNotFound))
}

func TestUpdateCannotDemoteLastAdmin(t *testing.T) {
	svc, admin := newService(t)
	role := models.RoleUser

	_, err := svc.Update(admin.Username, UpdateRequest{Role: &role})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	testutil.CreateUser(t, svc.store, "backup-admin", models.RoleAdmin)
	u, err := svc.Update(admin.Username, UpdateRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := newService(t)
	testutil.CreateUser(t, svc.store, "dave", models.RoleUser)

	branch := "Ops"
	pw := "newpass"
	u, err := svc.Update("dave", UpdateRequest{Branch: &branch, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "Ops", u.Branch)
	assert.Equal(t, "dave", u.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpass")))

	_, err = svc.Update("nobody", UpdateRequest{Branch: &branch})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListIncludesSeededAdmin(t *testing.T) {
	svc, admin := newService(t)
	testutil.CreateUser(t, svc.store, "erin", models.RoleUser)

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "erin", list[0].Username)
	assert.Equal(t, admin.Username, list[1].Username)
}
