package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/docstore"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

func TestBookmarkRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewBookmarkRepository(docstore.NewMemoryStore())

	_, err := repo.Create(ctx, "alice", "1111111111")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", "2222222222")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "alice", "1111111111")
	assert.ErrorIs(t, err, model.ErrAlreadyBookmarked)

	marks, err := repo.GetByUserID(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, "2222222222", marks[0].ISBN)
	assert.True(t, repo.IsBookmarked(ctx, "alice", "1111111111"))
	assert.False(t, repo.IsBookmarked(ctx, "bob", "1111111111"))

	require.NoError(t, repo.Delete(ctx, "alice", "1111111111"))
	assert.False(t, repo.IsBookmarked(ctx, "alice", "1111111111"))
	assert.ErrorIs(t, repo.Delete(ctx, "alice", "1111111111"), model.ErrBookmarkNotFound)
}

func TestBookmarkRepository_UnderscoreIDsDoNotCollide(t *testing.T) {
	// ARRANGE
	ctx := context.Background()
	repo := repository.NewBookmarkRepository(docstore.NewMemoryStore())

	// ACT
	firstID, err := repo.Create(ctx, "x_1234567890", "123")
	require.NoError(t, err)
	secondID, err := repo.Create(ctx, "x", "1234567890_123")

	// ASSERT
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)
	assert.True(t, repo.IsBookmarked(ctx, "x_1234567890", "123"))
	assert.True(t, repo.IsBookmarked(ctx, "x", "1234567890_123"))
}
