package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"triage-backend/internal/auth/repository"
	"triage-backend/internal/metrics"
	"triage-backend/internal/workitem/cache"
	"triage-backend/internal/workitem/domain"
	workitemrepo "triage-backend/internal/workitem/repository"
	"triage-backend/pkg/ai"
	"triage-backend/pkg/dates"

	"github.com/google/uuid"
)

// syncBatchSize bounds how many messages are classified concurrently. The
// classifier backends rate-limit aggressively, so batches stay small.
const syncBatchSize = 3

type processOutcome int

const (
	outcomeCreated processOutcome = iota
	outcomeSkipped
	outcomeError
)

type syncUsecase struct {
	repo       workitemrepo.WorkItemRepository
	accounts   repository.AccountRepository
	providers  map[domain.SourceType]domain.SourceProvider
	classifier ai.Classifier
	cache      *cache.QueryCache
	events     EventService
	notifier   Notifier
}

// NewSyncUsecase wires the ingestion pipeline. events and notifier may be nil.
func NewSyncUsecase(
	repo workitemrepo.WorkItemRepository,
	accounts repository.AccountRepository,
	providers []domain.SourceProvider,
	classifier ai.Classifier,
	queryCache *cache.QueryCache,
	events EventService,
	notifier Notifier,
) SyncUsecase {
	byType := make(map[domain.SourceType]domain.SourceProvider, len(providers))
	for _, p := range providers {
		byType[p.Source()] = p
	}
	return &syncUsecase{
		repo:       repo,
		accounts:   accounts,
		providers:  byType,
		classifier: classifier,
		cache:      queryCache,
		events:     events,
		notifier:   notifier,
	}
}

type candidate struct {
	msg        domain.RawMessage
	sourceDate *time.Time
}

func (u *syncUsecase) Sync(ctx context.Context, userID string, source domain.SourceType, targetDay *time.Time) (domain.SyncResult, error) {
	var result domain.SyncResult

	if userID == "" {
		return result, fmt.Errorf("user id is required")
	}
	provider, ok := u.providers[source]
	if !ok {
		return result, domain.ErrUnknownSource
	}

	// An unusable target day downgrades to an unfiltered fetch rather than
	// failing the run.
	var dayStart, dayEnd time.Time
	if targetDay != nil {
		var okDay bool
		dayStart, dayEnd, okDay = dates.UTCDayBounds(*targetDay)
		if !okDay {
			log.Printf("[Sync] Ignoring unusable target day for user %s", userID)
			targetDay = nil
		}
	}

	creds := u.credentialsFor(userID, source)
	messages, err := provider.FetchMessages(ctx, creds, targetDay)
	if err != nil {
		metrics.SyncRuns.WithLabelValues(string(source), "error").Inc()
		result.Errors = 1
		return result, fmt.Errorf("unable to fetch %s messages: %w", source, err)
	}

	candidates := u.selectCandidates(messages, targetDay, dayStart, dayEnd)
	log.Printf("[Sync] User %s source %s: %d fetched, %d candidates", userID, source, len(messages), len(candidates))

	for i := 0; i < len(candidates); i += syncBatchSize {
		end := i + syncBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		u.processBatch(ctx, userID, source, candidates[i:end], &result)
		u.sendEvent(userID, "sync_progress", map[string]interface{}{
			"source":    source,
			"processed": end,
			"total":     len(candidates),
		})
	}

	metrics.SyncRuns.WithLabelValues(string(source), "ok").Inc()
	metrics.ItemsCreated.WithLabelValues(string(source)).Add(float64(result.Created))
	metrics.ItemsSkipped.WithLabelValues(string(source)).Add(float64(result.Skipped))
	metrics.ItemErrors.WithLabelValues(string(source)).Add(float64(result.Errors))

	u.sendEvent(userID, "sync_complete", result)
	return result, nil
}

// selectCandidates filters fetched messages down to the ones worth
// classifying. With a target day set, a message must carry a parsable
// timestamp inside [dayStart, dayEnd); source-side day queries are only
// approximate, so the window is re-checked here.
func (u *syncUsecase) selectCandidates(messages []domain.RawMessage, targetDay *time.Time, dayStart, dayEnd time.Time) []candidate {
	candidates := make([]candidate, 0, len(messages))
	for _, msg := range messages {
		if !validRawMessage(msg) {
			continue
		}
		var sourceDate *time.Time
		ts, parsed := parseNativeTimestamp(msg.Timestamp)
		if parsed {
			t := ts
			sourceDate = &t
		}
		if targetDay != nil {
			if !parsed {
				continue
			}
			if ts.Before(dayStart) || !ts.Before(dayEnd) {
				continue
			}
		}
		candidates = append(candidates, candidate{msg: msg, sourceDate: sourceDate})
	}
	return candidates
}

// processBatch runs one batch concurrently and folds the outcomes into
// result. A failing message never aborts its siblings.
func (u *syncUsecase) processBatch(ctx context.Context, userID string, source domain.SourceType, batch []candidate, result *domain.SyncResult) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, cand := range batch {
		wg.Add(1)
		go func(cand candidate) {
			defer wg.Done()
			outcome := u.processMessage(ctx, userID, source, cand)
			mu.Lock()
			switch outcome {
			case outcomeCreated:
				result.Created++
			case outcomeSkipped:
				result.Skipped++
			case outcomeError:
				result.Errors++
			}
			mu.Unlock()
		}(cand)
	}
	wg.Wait()
}

func (u *syncUsecase) processMessage(ctx context.Context, userID string, source domain.SourceType, cand candidate) processOutcome {
	msg := cand.msg

	// Cheap lookup first so duplicates never reach the classifier.
	exists, err := u.repo.Exists(userID, source, msg.SourceID)
	if err != nil {
		log.Printf("[Sync] Dedup lookup failed for %s/%s: %v", source, msg.SourceID, err)
		return outcomeError
	}
	if exists {
		return outcomeSkipped
	}

	content := normalizeContent(msg)
	analysis, err := u.classifier.Classify(ctx, content, string(source))
	if err != nil {
		log.Printf("[Sync] Classification failed for %s/%s: %v", source, msg.SourceID, err)
		return outcomeError
	}

	item := &domain.WorkItem{
		ID:         uuid.New().String(),
		UserID:     userID,
		SourceType: source,
		SourceID:   msg.SourceID,
		Subject:    msg.Subject,
		Sender:     msg.Sender,
		Content:    content,
		SourceDate: cand.sourceDate,

		Classification: analysis.Classification,
		Summary:        analysis.Summary,
		ActionItems:    analysis.ActionItems,
		Sentiment:      analysis.Sentiment,
		UrgencyScore:   analysis.UrgencyScore,
		EffortEstimate: analysis.EffortEstimate,
		Deadline:       analysis.Deadline,
		ContextTags:    analysis.ContextTags,
		Stakeholders:   analysis.Stakeholders,
		BusinessImpact: analysis.BusinessImpact,
		FollowUpNeeded: analysis.FollowUpNeeded,
	}

	created, err := u.repo.CreateIfAbsent(item)
	if err != nil {
		log.Printf("[Sync] Insert failed for %s/%s: %v", source, msg.SourceID, err)
		return outcomeError
	}
	if !created {
		// Lost the race to a concurrent sync; the unique index absorbed it.
		return outcomeSkipped
	}

	u.cache.InvalidateUser(userID)
	u.sendEvent(userID, "item_created", item)
	if u.notifier != nil && item.UrgencyScore >= 4 {
		u.notifier.NotifyHighUrgency(ctx, userID, item)
	}
	return outcomeCreated
}

// credentialsFor loads whatever the user connected for this source. A missing
// account yields zero credentials and the provider returns nothing.
func (u *syncUsecase) credentialsFor(userID string, source domain.SourceType) domain.Credentials {
	account, err := u.accounts.FindBySource(userID, string(source))
	if err != nil {
		log.Printf("[Sync] Account lookup failed for user %s source %s: %v", userID, source, err)
		return domain.Credentials{}
	}
	if account == nil {
		return domain.Credentials{}
	}
	return domain.Credentials{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Channel:      account.Channel,
		Server:       account.ImapServer,
		Port:         account.ImapPort,
		Username:     account.ImapUsername,
		Password:     account.ImapPassword,
	}
}

func (u *syncUsecase) sendEvent(userID, eventType string, payload interface{}) {
	if u.events != nil {
		u.events.SendToUser(userID, eventType, payload)
	}
}
