package service

import (
	"context"

	"go.uber.org/zap"

	"socialnet/internal/metrics"
	"socialnet/internal/model"
	"socialnet/internal/repository"
)

// GraphService owns follow and block relationships between users.
type GraphService struct {
	users  repository.UserRepository
	graph  repository.GraphRepository
	policy model.UnblockPolicy
	log    *zap.Logger
}

func NewGraphService(
	users repository.UserRepository,
	graph repository.GraphRepository,
	policy model.UnblockPolicy,
	log *zap.Logger,
) *GraphService {
	if !policy.Valid() {
		policy = model.UnblockRestoreAlways
	}
	return &GraphService{
		users:  users,
		graph:  graph,
		policy: policy,
		log:    log,
	}
}

func (s *GraphService) Follow(ctx context.Context, actor model.Identity, targetID int64) error {
	if actor.UserID == targetID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	inserted, err := s.graph.Follow(ctx, actor.UserID, targetID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyFollowing
	}

	metrics.GraphChanges.WithLabelValues("follow").Inc()
	s.log.Debug("followed", zap.Int64("follower", actor.UserID), zap.Int64("followee", targetID))
	return nil
}

func (s *GraphService) Unfollow(ctx context.Context, actor model.Identity, targetID int64) error {
	if actor.UserID == targetID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	removed, err := s.graph.Unfollow(ctx, actor.UserID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrNotFollowing
	}

	metrics.GraphChanges.WithLabelValues("unfollow").Inc()
	s.log.Debug("unfollowed", zap.Int64("follower", actor.UserID), zap.Int64("followee", targetID))
	return nil
}

// Block severs follow edges between the pair. Admins cannot be blocked.
func (s *GraphService) Block(ctx context.Context, actor model.Identity, targetID int64) error {
	if actor.UserID == targetID {
		return model.ErrCannotBlock
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsAdmin {
		return model.ErrCannotBlock
	}

	inserted, err := s.graph.Block(ctx, actor.UserID, targetID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyBlocked
	}

	metrics.GraphChanges.WithLabelValues("block").Inc()
	s.log.Info("user blocked", zap.Int64("blocker", actor.UserID), zap.Int64("blocked", targetID))
	return nil
}

// Unblock lifts a block and restores follow edges according to the configured policy.
func (s *GraphService) Unblock(ctx context.Context, actor model.Identity, targetID int64) error {
	if actor.UserID == targetID {
		return model.ErrCannotUnblockSelf
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	removed, err := s.graph.Unblock(ctx, actor.UserID, targetID, s.policy)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrNotBlocked
	}

	metrics.GraphChanges.WithLabelValues("unblock").Inc()
	s.log.Info("user unblocked",
		zap.Int64("blocker", actor.UserID),
		zap.Int64("blocked", targetID),
		zap.String("policy", string(s.policy)))
	return nil
}

// BlockedUsers lists whom the actor has blocked; an empty list is ErrNoBlockedUsers.
func (s *GraphService) BlockedUsers(ctx context.Context, actor model.Identity) ([]model.UserSummary, error) {
	users, err := s.graph.Blocked(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, model.ErrNoBlockedUsers
	}
	return users, nil
}
