package model

import (
	"errors"
	"time"
)

// Follow is a directed edge: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"followerId"`
	FolloweeID int64     `db:"followee_id" json:"followeeId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Block records a block and which follow edges it severed.
type Block struct {
	BlockerID int64 `db:"blocker_id"`
	BlockedID int64 `db:"blocked_id"`
	// SeveredIncoming: the blocked user was following the blocker.
	SeveredIncoming bool `db:"severed_incoming"`
	// SeveredOutgoing: the blocker was following the blocked user.
	SeveredOutgoing bool      `db:"severed_outgoing"`
	CreatedAt       time.Time `db:"created_at"`
}

type UserSummary struct {
	ID           int64   `db:"id" json:"id"`
	UserName     string  `db:"user_name" json:"userName"`
	ProfileImage *string `db:"profile_image" json:"profileImage"`
}

// UnblockPolicy decides which follow edges an unblock puts back.
type UnblockPolicy string

const (
	// UnblockRestoreAlways re-adds blocked -> blocker whether or not it existed before.
	UnblockRestoreAlways UnblockPolicy = "always"
	// UnblockRestoreSevered restores exactly the edges the block removed.
	UnblockRestoreSevered UnblockPolicy = "severed"
	// UnblockRestoreNever leaves the pair unconnected.
	UnblockRestoreNever UnblockPolicy = "never"
)

func (p UnblockPolicy) Valid() bool {
	switch p {
	case UnblockRestoreAlways, UnblockRestoreSevered, UnblockRestoreNever:
		return true
	}
	return false
}

// RestoredEdges lists the follow edges to re-create when b is lifted under policy p.
func (b Block) RestoredEdges(p UnblockPolicy) []Follow {
	incoming := Follow{FollowerID: b.BlockedID, FolloweeID: b.BlockerID}
	outgoing := Follow{FollowerID: b.BlockerID, FolloweeID: b.BlockedID}

	switch p {
	case UnblockRestoreAlways:
		return []Follow{incoming}
	case UnblockRestoreSevered:
		var edges []Follow
		if b.SeveredIncoming {
			edges = append(edges, incoming)
		}
		if b.SeveredOutgoing {
			edges = append(edges, outgoing)
		}
		return edges
	default:
		return nil
	}
}

var (
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")

	ErrAlreadyBlocked    = errors.New("user already blocked")
	ErrNotBlocked        = errors.New("user not blocked")
	ErrCannotBlock       = errors.New("cannot block yourself or admin")
	ErrNoBlockedUsers    = errors.New("no blocked users found")
	ErrCannotUnblockSelf = errors.New("cannot unblock yourself")
)
