package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlock_RestoredEdges(t *testing.T) {
	incoming := Follow{FollowerID: 2, FolloweeID: 1}
	outgoing := Follow{FollowerID: 1, FolloweeID: 2}

	tests := []struct {
		name   string
		block  Block
		policy UnblockPolicy
		want   []Follow
	}{
		{
			name:   "always restores blocked->blocker even if it never existed",
			block:  Block{BlockerID: 1, BlockedID: 2},
			policy: UnblockRestoreAlways,
			want:   []Follow{incoming},
		},
		{
			name:   "severed restores nothing when nothing was severed",
			block:  Block{BlockerID: 1, BlockedID: 2},
			policy: UnblockRestoreSevered,
			want:   nil,
		},
		{
			name:   "severed restores both directions",
			block:  Block{BlockerID: 1, BlockedID: 2, SeveredIncoming: true, SeveredOutgoing: true},
			policy: UnblockRestoreSevered,
			want:   []Follow{incoming, outgoing},
		},
		{
			name:   "severed restores only outgoing",
			block:  Block{BlockerID: 1, BlockedID: 2, SeveredOutgoing: true},
			policy: UnblockRestoreSevered,
			want:   []Follow{outgoing},
		},
		{
			name:   "never",
			block:  Block{BlockerID: 1, BlockedID: 2, SeveredIncoming: true},
			policy: UnblockRestoreNever,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.block.RestoredEdges(tt.policy))
		})
	}
}

func TestUnblockPolicy_Valid(t *testing.T) {
	assert.True(t, UnblockRestoreAlways.Valid())
	assert.True(t, UnblockRestoreSevered.Valid())
	assert.True(t, UnblockRestoreNever.Valid())
	assert.False(t, UnblockPolicy("").Valid())
	assert.False(t, UnblockPolicy("sometimes").Valid())
}

func TestIdentity_CanModify(t *testing.T) {
	assert.True(t, Identity{UserID: 1}.CanModify(1))
	assert.False(t, Identity{UserID: 1}.CanModify(2))
	assert.True(t, Identity{UserID: 1, IsAdmin: true}.CanModify(2))
}

func TestPost_LikedBy(t *testing.T) {
	p := Post{Likes: []int64{3, 5}}
	assert.True(t, p.LikedBy(5))
	assert.False(t, p.LikedBy(4))

	c := Comment{}
	assert.False(t, c.LikedBy(1))
}

func TestImageKind(t *testing.T) {
	assert.EqualValues(t, MaxAvatarSizeBytes, ImageKindAvatar.MaxSize())
	assert.EqualValues(t, MaxPostImageSizeBytes, ImageKindPost.MaxSize())
	assert.Equal(t, "avatars", ImageKindAvatar.Folder())
	assert.Equal(t, "posts", ImageKindPost.Folder())
	assert.True(t, IsAllowedImageType("image/png"))
	assert.False(t, IsAllowedImageType("image/svg+xml"))
}
