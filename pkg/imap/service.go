package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"golang.org/x/time/rate"

	"triage-backend/internal/workitem/domain"
	"triage-backend/pkg/dates"
)

const fetchCap = 50

// Service fetches messages from a generic IMAP mailbox as a triage source.
type Service struct {
	limiter *rate.Limiter
}

// NewService creates an IMAP source provider.
func NewService() *Service {
	return &Service{
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

func (s *Service) Source() domain.SourceType {
	return domain.SourceIMAP
}

// DayCriteria translates a normalized UTC day window into IMAP search
// criteria. IMAP SINCE/BEFORE are date-granularity: SINCE matches the start
// date inclusively and BEFORE the end date exclusively, so passing the
// window's bounds directly yields the exact target day.
func DayCriteria(start, end time.Time) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.Since = start
	criteria.Before = end
	return criteria
}

// FetchMessages returns raw messages from the user's INBOX, scoped to
// targetDay when given. Missing credentials and malformed mailboxes yield
// an empty slice; a login failure yields domain.ErrCredentialExpired.
func (s *Service) FetchMessages(ctx context.Context, creds domain.Credentials, targetDay *time.Time) ([]domain.RawMessage, error) {
	if creds.Server == "" || creds.Username == "" || creds.Password == "" {
		log.Printf("[IMAP] missing credentials, skipping fetch")
		return []domain.RawMessage{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c, err := client.DialTLS(fmt.Sprintf("%s:%d", creds.Server, creds.Port), nil)
	if err != nil {
		log.Printf("[IMAP] dial failed: %v", err)
		return []domain.RawMessage{}, nil
	}
	defer c.Logout()

	if err := c.Login(creds.Username, creds.Password); err != nil {
		return nil, domain.ErrCredentialExpired
	}

	if _, err := c.Select("INBOX", true); err != nil {
		log.Printf("[IMAP] select failed: %v", err)
		return []domain.RawMessage{}, nil
	}

	criteria := imap.NewSearchCriteria()
	if targetDay != nil {
		if start, end, ok := dates.UTCDayBounds(*targetDay); ok {
			criteria = DayCriteria(start, end)
		}
	}

	ids, err := c.Search(criteria)
	if err != nil {
		log.Printf("[IMAP] search failed: %v", err)
		return []domain.RawMessage{}, nil
	}
	if len(ids) == 0 {
		return []domain.RawMessage{}, nil
	}
	if len(ids) > fetchCap {
		ids = ids[len(ids)-fetchCap:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, ch)
	}()

	messages := make([]domain.RawMessage, 0, len(ids))
	for msg := range ch {
		raw, ok := convertMessage(msg, section)
		if ok {
			messages = append(messages, raw)
		}
	}
	if err := <-done; err != nil {
		log.Printf("[IMAP] fetch failed: %v", err)
		return []domain.RawMessage{}, nil
	}

	return messages, nil
}

func convertMessage(msg *imap.Message, section *imap.BodySectionName) (domain.RawMessage, bool) {
	if msg == nil || msg.Envelope == nil {
		return domain.RawMessage{}, false
	}

	sender := ""
	if len(msg.Envelope.From) > 0 && msg.Envelope.From[0] != nil {
		sender = msg.Envelope.From[0].Address()
	}

	sourceID := msg.Envelope.MessageId
	if sourceID == "" {
		return domain.RawMessage{}, false
	}

	return domain.RawMessage{
		SourceID: sourceID,
		Subject:  msg.Envelope.Subject,
		Sender:   sender,
		Content:  extractText(msg.GetBody(section)),
		Timestamp: domain.NativeTimestamp{
			Format: domain.TimestampRFC3339,
			Value:  msg.InternalDate.UTC().Format(time.RFC3339),
		},
	}, true
}

// extractText reads the first inline text part of a MIME message.
func extractText(r io.Reader) string {
	if r == nil {
		return ""
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if _, ok := p.Header.(*mail.InlineHeader); ok {
			if _, err := io.Copy(&b, p.Body); err == nil && b.Len() > 0 {
				break
			}
		}
	}
	return b.String()
}
