package assettypes

import (
	"testing"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededTypes(t *testing.T) {
	store, _ := testutil.Store(t)
	svc := NewService(store)

	types, err := svc.List()
	require.NoError(t, err)
	codes := make([]string, 0, len(types))
	for _, tt := range types {
		codes = append(codes, tt.Code)
	}
	assert.ElementsMatch(t, []string{"computer", "monitor", "host", "accessory"}, codes)
}

func TestCreateUpdateDelete(t *testing.T) {
	store, _ := testutil.Store(t)
	svc := NewService(store)

	typ, err := svc.Create(CreateRequest{Code: "phone", Name: "Phone", Threshold: 2})
	require.NoError(t, err)

	_, err = svc.Create(CreateRequest{Code: "phone", Name: "Another"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	name := "Mobile phone"
	threshold := 5
	updated, err := svc.Update(typ.ID, UpdateRequest{Name: &name, Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, "phone", updated.Code)
	assert.Equal(t, "Mobile phone", updated.Name)
	assert.Equal(t, 5, updated.Threshold)

	negative := -1
	_, err = svc.Update(typ.ID, UpdateRequest{Threshold: &negative})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.Delete(typ.ID))
	_, err = svc.Get(typ.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteTypeInUse(t *testing.T) {
	store, _ := testutil.Store(t)
	svc := NewService(store)
	testutil.CreateAsset(t, store, "Laptop", "computer", "")

	types, err := svc.List()
	require.NoError(t, err)
	for _, tt := range types {
		if tt.Code == "computer" {
			assert.True(t, apperr.Is(svc.Delete(tt.ID), apperr.KindConflict))
			return
		}
	}
	t.Fatal("computer type not seeded")
}
