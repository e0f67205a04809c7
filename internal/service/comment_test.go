package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"socialnet/internal/model"
)

func commentFixture(c model.Comment) *mockCommentRepository {
	return &mockCommentRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Comment, error) {
			if id != c.ID {
				return nil, model.ErrCommentNotFound
			}
			cp := c
			return &cp, nil
		},
	}
}

func TestCommentService_Create(t *testing.T) {
	var saved model.Comment
	repo := &mockCommentRepository{
		createFn: func(ctx context.Context, c *model.Comment) error {
			c.ID = 5
			saved = *c
			return nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*model.Comment, error) {
			c := saved
			c.Creator = model.UserSummary{ID: c.CreatorID, UserName: "alice"}
			return &c, nil
		},
	}
	svc := NewCommentService(repo, zap.NewNop())

	c, err := svc.Create(context.Background(), model.Identity{UserID: 1}, 9, "  nice post ")
	require.NoError(t, err)
	assert.Equal(t, "nice post", c.Text)
	assert.Equal(t, int64(9), c.PostID)
	assert.Equal(t, "alice", c.Creator.UserName)
}

func TestCommentService_Create_MissingPost(t *testing.T) {
	repo := &mockCommentRepository{
		createFn: func(ctx context.Context, c *model.Comment) error { return model.ErrPostNotFound },
	}
	svc := NewCommentService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), model.Identity{UserID: 1}, 9, "hello")
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}

func TestCommentService_Update(t *testing.T) {
	base := model.Comment{ID: 5, PostID: 9, CreatorID: 1, Text: "old"}

	t.Run("owner", func(t *testing.T) {
		repo := commentFixture(base)
		var gotText string
		repo.updateFn = func(ctx context.Context, id int64, text string) error {
			gotText = text
			return nil
		}
		svc := NewCommentService(repo, zap.NewNop())

		_, err := svc.Update(context.Background(), model.Identity{UserID: 1}, 9, 5, " new ")
		require.NoError(t, err)
		assert.Equal(t, "new", gotText)
	})

	t.Run("admin is not the owner", func(t *testing.T) {
		svc := NewCommentService(commentFixture(base), zap.NewNop())
		_, err := svc.Update(context.Background(), model.Identity{UserID: 2, IsAdmin: true}, 9, 5, "x")
		assert.ErrorIs(t, err, model.ErrNotCommentOwner)
	})

	t.Run("wrong post", func(t *testing.T) {
		svc := NewCommentService(commentFixture(base), zap.NewNop())
		_, err := svc.Update(context.Background(), model.Identity{UserID: 1}, 10, 5, "x")
		assert.ErrorIs(t, err, model.ErrCommentNotFound)
	})
}

func TestCommentService_ToggleLike(t *testing.T) {
	liked := false
	repo := commentFixture(model.Comment{ID: 5, PostID: 9, CreatorID: 1})
	repo.toggleLikeFn = func(ctx context.Context, id, userID int64) (bool, error) {
		liked = !liked
		return liked, nil
	}
	svc := NewCommentService(repo, zap.NewNop())
	ctx := context.Background()

	_, first, err := svc.ToggleLike(ctx, model.Identity{UserID: 2}, 9, 5)
	require.NoError(t, err)
	_, second, err := svc.ToggleLike(ctx, model.Identity{UserID: 2}, 9, 5)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)

	_, _, err = svc.ToggleLike(ctx, model.Identity{UserID: 2}, 9, 6)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

func TestCommentService_Delete(t *testing.T) {
	base := model.Comment{ID: 5, PostID: 9, CreatorID: 1}

	tests := []struct {
		name    string
		actor   model.Identity
		wantErr error
	}{
		{name: "owner", actor: model.Identity{UserID: 1}},
		{name: "admin", actor: model.Identity{UserID: 3, IsAdmin: true}},
		{name: "stranger", actor: model.Identity{UserID: 2}, wantErr: model.ErrNotCommentOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := commentFixture(base)
			svc := NewCommentService(repo, zap.NewNop())

			err := svc.Delete(context.Background(), tt.actor, 9, 5)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				assert.Equal(t, []int64{5}, repo.deleteCalls)
			} else {
				assert.Empty(t, repo.deleteCalls)
			}
		})
	}
}

func TestCommentService_ListForUser(t *testing.T) {
	repo := &mockCommentRepository{
		listByCreatorFn: func(ctx context.Context, userID int64) ([]model.Comment, error) {
			return []model.Comment{{ID: 1, CreatorID: userID}}, nil
		},
	}
	svc := NewCommentService(repo, zap.NewNop())

	_, err := svc.ListForUser(context.Background(), model.Identity{UserID: 1, IsAdmin: true}, 2)
	assert.ErrorIs(t, err, model.ErrCommentsNotVisible)

	comments, err := svc.ListForUser(context.Background(), model.Identity{UserID: 2}, 2)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}
