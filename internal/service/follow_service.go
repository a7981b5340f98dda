package service

import (
	"context"
	"log/slog"

	"blogsphere/internal/cache"
	"blogsphere/internal/models"
	"blogsphere/internal/notifications"
	"blogsphere/internal/observability"
	"blogsphere/internal/pagination"
	"blogsphere/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EventPublisher delivers notifications to a user's channel.
// *notifications.Notifier satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, recipientID uint, ev notifications.Event) error
}

type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	publisher  EventPublisher
	clock      Clock
}

// FollowPage is one page of a followers or followed listing.
type FollowPage struct {
	User       models.UserSummary   `json:"user"`
	Entries    []models.FollowEntry `json:"items"`
	Pagination pagination.Page      `json:"pagination"`
}

type followCounts struct {
	Followers int64 `json:"followers"`
	Followed  int64 `json:"followed"`
}

func NewFollowService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	publisher EventPublisher,
	clock Clock,
) *FollowService {
	return &FollowService{
		userRepo:   userRepo,
		followRepo: followRepo,
		publisher:  publisher,
		clock:      clockOrSystem(clock),
	}
}

// IsFollowing reports whether followerID follows the user named username.
func (s *FollowService) IsFollowing(ctx context.Context, followerID uint, username string) (bool, error) {
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, followerID, target.ID)
}

// Follow makes followerID follow username. Following someone already
// followed is reported as OutcomeAlreadyFollowing, not as an error.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (outcome models.FollowOutcome, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FollowService", "Follow",
		attribute.Int64("follower.id", int64(followerID)))
	defer func() { observability.EndSpan(span, err) }()

	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if target.ID == followerID {
		return "", models.NewValidationError("You cannot follow yourself")
	}

	created, err := s.followRepo.Create(ctx, followerID, target.ID, s.clock.Now())
	if err != nil {
		return "", err
	}

	outcome = models.OutcomeAlreadyFollowing
	if created {
		outcome = models.OutcomeFollowed
		cache.InvalidateFollowCounts(ctx, followerID, target.ID)
		s.notify(ctx, notifications.EventFollowCreated, followerID, target.ID)
	}
	observability.FollowOperations.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

// Unfollow removes the edge from followerID to username if there is one.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (outcome models.FollowOutcome, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FollowService", "Unfollow",
		attribute.Int64("follower.id", int64(followerID)))
	defer func() { observability.EndSpan(span, err) }()

	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	deleted, err := s.followRepo.Delete(ctx, followerID, target.ID)
	if err != nil {
		return "", err
	}

	outcome = models.OutcomeNotFollowing
	if deleted {
		outcome = models.OutcomeUnfollowed
		cache.InvalidateFollowCounts(ctx, followerID, target.ID)
		s.notify(ctx, notifications.EventFollowRemoved, followerID, target.ID)
	}
	observability.FollowOperations.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

// Followers lists who follows username, oldest edge first.
func (s *FollowService) Followers(ctx context.Context, username string, page, size int) (*FollowPage, error) {
	return s.listing(ctx, username, page, size, s.followRepo.CountFollowers, s.followRepo.Followers)
}

// Followed lists whom username follows, oldest edge first.
func (s *FollowService) Followed(ctx context.Context, username string, page, size int) (*FollowPage, error) {
	return s.listing(ctx, username, page, size, s.followRepo.CountFollowed, s.followRepo.Followed)
}

func (s *FollowService) listing(
	ctx context.Context,
	username string,
	page, size int,
	count func(context.Context, uint) (int64, error),
	list func(context.Context, uint, int, int) ([]models.FollowEntry, error),
) (*FollowPage, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	total, err := count(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	p := pagination.Paginate(int(total), page, size)
	entries := []models.FollowEntry{}
	if !p.Empty() {
		if entries, err = list(ctx, user.ID, p.Len(), p.Start); err != nil {
			return nil, err
		}
	}
	return &FollowPage{User: user.Summary(), Entries: entries, Pagination: p}, nil
}

// Counts returns how many users follow userID and how many it follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, followed int64, err error) {
	var c followCounts
	err = cache.Aside(ctx, cache.FollowCountsKey(userID), &c, cache.FollowCountsTTL, func() error {
		var err error
		if c.Followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
			return err
		}
		c.Followed, err = s.followRepo.CountFollowed(ctx, userID)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return c.Followers, c.Followed, nil
}

// Profile returns username together with its follow counts.
func (s *FollowService) Profile(ctx context.Context, username string) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	followers, followed, err := s.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{User: *user, FollowersCount: followers, FollowedCount: followed}, nil
}

// notify is best effort: a lost notification never fails the graph change.
func (s *FollowService) notify(ctx context.Context, eventType string, actorID, recipientID uint) {
	if s.publisher == nil {
		return
	}
	ev := notifications.Event{
		Type:      eventType,
		ActorID:   actorID,
		SubjectID: recipientID,
		At:        s.clock.Now(),
	}
	if actor, err := s.userRepo.GetByID(ctx, actorID); err == nil {
		ev.ActorName = actor.Username
	}
	if err := s.publisher.Publish(ctx, recipientID, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish follow event",
			"type", eventType, "recipient_id", recipientID, "err", err)
	}
}
