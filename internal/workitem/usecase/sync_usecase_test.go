package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	authdomain "triage-backend/internal/auth/domain"
	"triage-backend/internal/workitem/cache"
	"triage-backend/internal/workitem/domain"
	"triage-backend/pkg/ai"
)

// memWorkItemRepo is an in-memory repository keyed by the dedup triple.
type memWorkItemRepo struct {
	mu    sync.Mutex
	items map[string]*domain.WorkItem

	existsErr map[string]error
	findCalls int
}

func newMemWorkItemRepo() *memWorkItemRepo {
	return &memWorkItemRepo{items: make(map[string]*domain.WorkItem), existsErr: make(map[string]error)}
}

func dedupKey(userID string, source domain.SourceType, sourceID string) string {
	return fmt.Sprintf("%s/%s/%s", userID, source, sourceID)
}

func (r *memWorkItemRepo) CreateIfAbsent(item *domain.WorkItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dedupKey(item.UserID, item.SourceType, item.SourceID)
	if _, ok := r.items[key]; ok {
		return false, nil
	}
	r.items[key] = item
	return true, nil
}

func (r *memWorkItemRepo) Exists(userID string, source domain.SourceType, sourceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.existsErr[sourceID]; err != nil {
		return false, err
	}
	_, ok := r.items[dedupKey(userID, source, sourceID)]
	return ok, nil
}

func (r *memWorkItemRepo) FindByID(id string) (*domain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func (r *memWorkItemRepo) FindByUserID(userID string, q domain.ListQuery, now time.Time) ([]*domain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	var out []*domain.WorkItem
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memWorkItemRepo) Update(item *domain.WorkItem) error { return nil }
func (r *memWorkItemRepo) Delete(id string) error             { return nil }
func (r *memWorkItemRepo) FindExpiredSnoozes(now time.Time) ([]*domain.WorkItem, error) {
	return nil, nil
}

type fakeAccountRepo struct {
	account *authdomain.ConnectedAccount
}

func (r *fakeAccountRepo) FindBySource(userID, source string) (*authdomain.ConnectedAccount, error) {
	return r.account, nil
}
func (r *fakeAccountRepo) FindByEmail(email string) (*authdomain.ConnectedAccount, error) {
	return r.account, nil
}
func (r *fakeAccountRepo) Save(account *authdomain.ConnectedAccount) error { return nil }
func (r *fakeAccountRepo) UpdateTokens(id, accessToken, refreshToken string, expiry time.Time) error {
	return nil
}

type fakeProvider struct {
	source   domain.SourceType
	messages []domain.RawMessage
	err      error
}

func (p *fakeProvider) Source() domain.SourceType { return p.source }
func (p *fakeProvider) FetchMessages(ctx context.Context, creds domain.Credentials, targetDay *time.Time) ([]domain.RawMessage, error) {
	return p.messages, p.err
}

type fakeClassifier struct {
	mu       sync.Mutex
	calls    []string
	failFor  map[string]error
	analysis *ai.Analysis
}

func (c *fakeClassifier) Classify(ctx context.Context, content, sourceType string) (*ai.Analysis, error) {
	c.mu.Lock()
	c.calls = append(c.calls, content)
	c.mu.Unlock()
	if err := c.failFor[content]; err != nil {
		return nil, err
	}
	if c.analysis != nil {
		return c.analysis, nil
	}
	return ai.DefaultAnalysis(), nil
}

func (c *fakeClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func epochMillis(t time.Time) domain.NativeTimestamp {
	return domain.NativeTimestamp{Format: domain.TimestampEpochMillis, Value: fmt.Sprintf("%d", t.UnixMilli())}
}

func newTestSync(repo *memWorkItemRepo, provider *fakeProvider, classifier *fakeClassifier) SyncUsecase {
	return NewSyncUsecase(
		repo,
		&fakeAccountRepo{account: &authdomain.ConnectedAccount{AccessToken: "tok"}},
		[]domain.SourceProvider{provider},
		classifier,
		cache.New(cache.DefaultTTL),
		nil,
		nil,
	)
}

func TestSyncIsIdempotent(t *testing.T) {
	day := time.Date(2026, 7, 24, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		source: domain.SourceGmail,
		messages: []domain.RawMessage{
			{SourceID: "m1", Subject: "a", Content: "one", Timestamp: epochMillis(day)},
			{SourceID: "m2", Subject: "b", Content: "two", Timestamp: epochMillis(day.Add(time.Hour))},
		},
	}
	repo := newMemWorkItemRepo()
	classifier := &fakeClassifier{}
	uc := newTestSync(repo, provider, classifier)

	first, err := uc.Sync(context.Background(), "user-1", domain.SourceGmail, nil)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Created != 2 || first.Skipped != 0 || first.Errors != 0 {
		t.Fatalf("first sync = %+v, want 2 created", first)
	}

	second, err := uc.Sync(context.Background(), "user-1", domain.SourceGmail, nil)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Created != 0 || second.Skipped != 2 || second.Errors != 0 {
		t.Fatalf("second sync = %+v, want 2 skipped", second)
	}

	// Duplicates are skipped before classification, not after.
	if got := classifier.callCount(); got != 2 {
		t.Errorf("classifier called %d times, want 2", got)
	}
}

func TestSyncIsolatesFailingMessages(t *testing.T) {
	day := time.Date(2026, 7, 24, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		source: domain.SourceGmail,
		messages: []domain.RawMessage{
			{SourceID: "m1", Content: "fine one", Timestamp: epochMillis(day)},
			{SourceID: "m2", Content: "broken", Timestamp: epochMillis(day)},
			{SourceID: "m3", Content: "fine two", Timestamp: epochMillis(day)},
		},
	}
	repo := newMemWorkItemRepo()
	classifier := &fakeClassifier{failFor: map[string]error{"broken": errors.New("model unavailable")}}
	uc := newTestSync(repo, provider, classifier)

	result, err := uc.Sync(context.Background(), "user-1", domain.SourceGmail, nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Created != 2 || result.Errors != 1 {
		t.Fatalf("result = %+v, want created=2 errors=1", result)
	}
}

func TestSyncPlaceholderContentReachesClassifier(t *testing.T) {
	day := time.Date(2026, 7, 24, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		source: domain.SourceGmail,
		messages: []domain.RawMessage{
			{SourceID: "m1", Timestamp: epochMillis(day)},
		},
	}
	repo := newMemWorkItemRepo()
	classifier := &fakeClassifier{}
	uc := newTestSync(repo, provider, classifier)

	result, err := uc.Sync(context.Background(), "user-1", domain.SourceGmail, nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("result = %+v, want 1 created", result)
	}
	if len(classifier.calls) != 1 || classifier.calls[0] != "(no content)" {
		t.Errorf("classifier saw %v, want the placeholder", classifier.calls)
	}
}

func TestSyncFiltersToTargetDay(t *testing.T) {
	day := time.Date(2026, 7, 24, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		source: domain.SourceSlack,
		messages: []domain.RawMessage{
			{SourceID: "in", Content: "on the day", Timestamp: epochMillis(day.Add(10 * time.Hour))},
			{SourceID: "before", Content: "previous day", Timestamp: epochMillis(day.Add(-time.Hour))},
			{SourceID: "after", Content: "next day", Timestamp: epochMillis(day.Add(25 * time.Hour))},
			{SourceID: "unparsable", Content: "no timestamp", Timestamp: domain.NativeTimestamp{}},
		},
	}
	repo := newMemWorkItemRepo()
	uc := newTestSync(repo, provider, &fakeClassifier{})

	target := day.Add(12 * time.Hour)
	result, err := uc.Sync(context.Background(), "user-1", domain.SourceSlack, &target)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("result = %+v, want exactly the in-window message", result)
	}
	if exists, _ := repo.Exists("user-1", domain.SourceSlack, "in"); !exists {
		t.Error("expected the in-window message to be stored")
	}
}

func TestSyncFetchFailureReturnsError(t *testing.T) {
	provider := &fakeProvider{source: domain.SourceGmail, err: errors.New("upstream down")}
	uc := newTestSync(newMemWorkItemRepo(), provider, &fakeClassifier{})

	result, err := uc.Sync(context.Background(), "user-1", domain.SourceGmail, nil)
	if err == nil {
		t.Fatal("expected an error when the fetch fails")
	}
	if result.Created != 0 || result.Errors != 1 {
		t.Errorf("result = %+v, want zero created and one error", result)
	}
}

func TestSyncUnknownSource(t *testing.T) {
	provider := &fakeProvider{source: domain.SourceGmail}
	uc := newTestSync(newMemWorkItemRepo(), provider, &fakeClassifier{})

	_, err := uc.Sync(context.Background(), "user-1", domain.SourceType("teams"), nil)
	if !errors.Is(err, domain.ErrUnknownSource) {
		t.Fatalf("err = %v, want ErrUnknownSource", err)
	}
}

func TestSyncCredentialExpiredPropagates(t *testing.T) {
	provider := &fakeProvider{source: domain.SourceGmail, err: domain.ErrCredentialExpired}
	uc := newTestSync(newMemWorkItemRepo(), provider, &fakeClassifier{})

	_, err := uc.Sync(context.Background(), "user-1", domain.SourceGmail, nil)
	if !errors.Is(err, domain.ErrCredentialExpired) {
		t.Fatalf("err = %v, want ErrCredentialExpired", err)
	}
}
