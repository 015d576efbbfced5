package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"liftly.app/liftly/internal/model"
	notifRepo "liftly.app/liftly/internal/modules/notification/repository"
	"liftly.app/liftly/pkg/push"
)

// template maps each notification type to its push title and message format.
// The message format receives the actor handle and a short content preview.
type template struct {
	Title  string
	Format string
}

var templates = map[string]template{
	model.NotifLike:    {Title: "New like", Format: "@%s liked your post: %s"},
	model.NotifReply:   {Title: "New reply", Format: "@%s replied: %s"},
	model.NotifRepost:  {Title: "Reposted", Format: "@%s reposted your post: %s"},
	model.NotifQuote:   {Title: "Quoted", Format: "@%s quoted your post: %s"},
	model.NotifFollow:  {Title: "New follower", Format: "@%s started following you%s"},
	model.NotifMention: {Title: "You were mentioned", Format: "@%s mentioned you: %s"},
}

const previewLen = 80

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	// Notify builds a notification from the type's template, stores it and
	// attempts push delivery. The push attempt is best effort: its failure
	// never unwinds the stored record.
	Notify(ctx context.Context, recipientID uuid.UUID, notifType string, actor *model.User, post *model.Post) error
	// Fanout runs Notify for every recipient as an independent unit of work.
	// One recipient failing never affects the others.
	Fanout(recipientIDs []uuid.UUID, notifType string, actor *model.User, post *model.Post)
	GetNotifications(recipientID uuid.UUID, limit, offset int) ([]model.Notification, error)
	MarkAsRead(recipientID uuid.UUID, ids []uuid.UUID) error
	MarkAllAsRead(recipientID uuid.UUID) error
	UnreadCount(recipientID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	deliverer   push.Deliverer
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client, deliverer push.Deliverer) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		deliverer:   deliverer,
	}
}

// Preview truncates on rune boundaries so multibyte content never yields an
// invalid tail.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) > previewLen {
		return string(runes[:previewLen]) + "..."
	}
	return body
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *model.Notification) error {
	// 1. Save to DB
	if err := s.repo.Create(notification); err != nil {
		return err
	}

	// 2. Publish to Redis if Redis is available
	if s.redisClient != nil {
		channel := fmt.Sprintf("user_notifications:%s", notification.RecipientID.String())

		payload, err := json.Marshal(notification)
		if err == nil {
			s.redisClient.Publish(ctx, channel, payload)
		}
	}

	return nil
}

func (s *notificationService) Notify(ctx context.Context, recipientID uuid.UUID, notifType string, actor *model.User, post *model.Post) error {
	tpl, ok := templates[notifType]
	if !ok {
		return fmt.Errorf("unknown notification type: %s", notifType)
	}

	preview := ""
	var postID *uuid.UUID
	deepLink := "/"
	if post != nil {
		preview = Preview(post.Body)
		postID = &post.ID
		deepLink = fmt.Sprintf("/posts/%s", post.ID)
	}

	notification := &model.Notification{
		RecipientID: recipientID,
		ActorID:     actor.ID,
		PostID:      postID,
		Type:        notifType,
		Message:     fmt.Sprintf(tpl.Format, actor.Handle, preview),
	}

	if err := s.CreateNotification(ctx, notification); err != nil {
		return err
	}

	if s.deliverer != nil {
		if err := s.deliverer.Deliver(ctx, recipientID, push.Message{
			Title:    tpl.Title,
			Body:     notification.Message,
			DeepLink: deepLink,
		}); err != nil {
			// Record stays; delivery is fire and forget per recipient.
			log.Printf("[notification] push delivery to %s failed: %v", recipientID, err)
		}
	}

	return nil
}

func (s *notificationService) Fanout(recipientIDs []uuid.UUID, notifType string, actor *model.User, post *model.Post) {
	for _, recipientID := range recipientIDs {
		recipientID := recipientID
		go func() {
			if err := s.Notify(context.Background(), recipientID, notifType, actor, post); err != nil {
				log.Printf("[notification] fanout to %s failed: %v", recipientID, err)
			}
		}()
	}
}

func (s *notificationService) GetNotifications(recipientID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	return s.repo.GetByRecipientID(recipientID, limit, offset)
}

func (s *notificationService) MarkAsRead(recipientID uuid.UUID, ids []uuid.UUID) error {
	return s.repo.MarkAsRead(recipientID, ids)
}

func (s *notificationService) MarkAllAsRead(recipientID uuid.UUID) error {
	return s.repo.MarkAllAsRead(recipientID)
}

func (s *notificationService) UnreadCount(recipientID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(recipientID)
}
