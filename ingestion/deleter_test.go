package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattydevs/core/core"
)

func TestNewDeleter_RequiresStore(t *testing.T) {
	_, err := NewDeleter(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestDeleteProject_Validation(t *testing.T) {
	d, err := NewDeleter(&fakeStore{})
	require.NoError(t, err)

	_, err = d.DeleteProject(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDeleteProject_ScansAllPages(t *testing.T) {
	store := &fakeStore{pages: [][]string{
		{"a", "b", "c"},
		{"d", "e"},
	}}
	d, err := NewDeleter(store, WithScrollPageSize(3))
	require.NoError(t, err)

	count, err := d.DeleteProject(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	require.Len(t, store.deleted, 1, "a single bulk delete covers every page")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, store.deleted[0])
}

func TestDeleteProject_NoVectors(t *testing.T) {
	store := &fakeStore{}
	d, err := NewDeleter(store)
	require.NoError(t, err)

	count, err := d.DeleteProject(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.deleted, "no delete call for an empty project")
}

func TestDeleteProject_ScrollFailure(t *testing.T) {
	store := &fakeStore{scrollErr: errors.New("qdrant down")}
	d, err := NewDeleter(store)
	require.NoError(t, err)

	_, err = d.DeleteProject(context.Background(), "proj-1")
	assert.ErrorIs(t, err, core.ErrProvider)
}

func TestDeleteProject_DeleteFailure(t *testing.T) {
	store := &fakeStore{
		pages:     [][]string{{"a"}},
		deleteErr: errors.New("qdrant down"),
	}
	d, err := NewDeleter(store)
	require.NoError(t, err)

	_, err = d.DeleteProject(context.Background(), "proj-1")
	assert.ErrorIs(t, err, core.ErrProvider)
}
