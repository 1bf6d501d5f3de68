package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	authrepo "triage-backend/internal/auth/repository"
	"triage-backend/internal/workitem/domain"
	"triage-backend/internal/workitem/usecase"
	"triage-backend/pkg/fcm"
	"triage-backend/pkg/sse"
)

// gmailNotification is the payload Gmail publishes on the watch topic.
type gmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service bridges external push signals into the system. It listens on the
// Gmail watch Pub/Sub topic and triggers an ingestion run for the affected
// user, and it delivers FCM pushes for high-urgency items.
type Service struct {
	pubsubClient *pubsub.Client
	sseManager   *sse.Manager
	accountRepo  authrepo.AccountRepository
	fcmRepo      authrepo.FCMTokenRepository
	fcmClient    *fcm.Client
	syncUsecase  usecase.SyncUsecase
	topicName    string
	subName      string

	// Gmail redelivers watch notifications; track the last historyId per
	// account so one inbox change triggers one sync.
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(
	projectID, topicName, credentialsFile string,
	sseManager *sse.Manager,
	accountRepo authrepo.AccountRepository,
	fcmRepo authrepo.FCMTokenRepository,
	fcmClient *fcm.Client,
) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		sseManager:    sseManager,
		accountRepo:   accountRepo,
		fcmRepo:       fcmRepo,
		fcmClient:     fcmClient,
		topicName:     topicName,
		subName:       topicName + "-sub",
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// SetSyncUsecase injects the ingestion pipeline. The pipeline also holds this
// service as its notifier, so the link is completed after both exist.
func (s *Service) SetSyncUsecase(syncUsecase usecase.SyncUsecase) {
	s.syncUsecase = syncUsecase
}

// Start blocks receiving watch notifications until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic does not exist, cannot create subscription")
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification gmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	account, err := s.accountRepo.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding account for %s: %v", notification.EmailAddress, err)
		return
	}
	if account == nil {
		log.Printf("[PubSub] No connected account for: %s", notification.EmailAddress)
		return
	}

	if s.syncUsecase == nil {
		return
	}
	if !s.advanceHistory(account.UserID, notification.HistoryID) {
		log.Printf("[PubSub] Skipping duplicate notification for user %s (historyId %d)", account.UserID, notification.HistoryID)
		return
	}

	log.Printf("[PubSub] Inbox change for user %s (historyId %d), triggering sync", account.UserID, notification.HistoryID)

	// Scope the triggered run to today; the dedup gate absorbs overlap with
	// any concurrent manual sync.
	today := time.Now().UTC()
	result, err := s.syncUsecase.Sync(ctx, account.UserID, domain.SourceGmail, &today)
	if err != nil {
		log.Printf("[PubSub] Triggered sync failed for user %s: %v", account.UserID, err)
		return
	}
	log.Printf("[PubSub] Triggered sync for user %s: created=%d skipped=%d errors=%d",
		account.UserID, result.Created, result.Skipped, result.Errors)
}

// advanceHistory reports whether historyID is new for this user and records it.
func (s *Service) advanceHistory(userID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[userID]; ok && historyID <= last {
		return false
	}
	s.lastHistoryID[userID] = historyID
	return true
}

// NotifyHighUrgency sends an FCM push for a newly created high-urgency item.
// Implements the pipeline's Notifier interface.
func (s *Service) NotifyHighUrgency(ctx context.Context, userID string, item *domain.WorkItem) {
	if s.fcmClient == nil || s.fcmRepo == nil {
		return
	}

	tokens, err := s.fcmRepo.TokensForUser(userID)
	if err != nil {
		log.Printf("[FCM] Error getting tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := fmt.Sprintf("Urgent: %s", item.Sender)
	body := item.Summary
	if body == "" {
		body = item.Subject
	}
	if body == "" {
		body = "A high-urgency item needs your attention"
	}
	if len(body) > 100 {
		body = body[:97] + "..."
	}

	failedTokens, err := s.fcmClient.SendToDevices(ctx, tokens, fcm.NotificationData{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":    "item_created",
			"item_id": item.ID,
			"urgency": fmt.Sprintf("%d", item.UrgencyScore),
		},
	})
	if err != nil {
		log.Printf("[FCM] Error sending notifications: %v", err)
		return
	}

	for _, token := range failedTokens {
		if err := s.fcmRepo.Unregister(token); err != nil {
			log.Printf("[FCM] Failed to clean up token: %v", err)
		}
	}
}
