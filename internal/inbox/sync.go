// Package inbox pulls messages from an IMAP mailbox into the JSON store so
// the analysis pipeline can pick them up. New messages are flagged new_email
// and analyzed on the next batch run.
package inbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"github.com/mailmind-app/mailmind/internal/analyze"
	"github.com/mailmind-app/mailmind/internal/config"
	"github.com/mailmind-app/mailmind/internal/store"
)

const (
	snippetLen = 200
	previewLen = 100
)

// Syncer fetches mailbox messages and converts them to store records.
type Syncer struct {
	cfg    config.InboxConfig
	client *client.Client
	log    zerolog.Logger
}

// NewSyncer creates a syncer for the configured mailbox.
func NewSyncer(cfg config.InboxConfig, log zerolog.Logger) *Syncer {
	return &Syncer{cfg: cfg, log: log}
}

// Connect dials the IMAP server and logs in.
func (s *Syncer) Connect() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	s.log.Info().Str("server", addr).Msg("connecting to IMAP server")

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	if err := c.Login(s.cfg.Email, s.cfg.Password); err != nil {
		c.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}
	s.client = c
	return nil
}

// Close logs out.
func (s *Syncer) Close() error {
	if s.client != nil {
		return s.client.Logout()
	}
	return nil
}

// Fetch retrieves messages received in the last cfg.Days days from the
// configured folder.
func (s *Syncer) Fetch() ([]*store.Email, error) {
	if s.client == nil {
		return nil, fmt.Errorf("not connected to IMAP server")
	}

	mbox, err := s.client.Select(s.cfg.Folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", s.cfg.Folder, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	since := time.Now().AddDate(0, 0, -s.cfg.Days)
	criteria := imap.NewSearchCriteria()
	criteria.Since = since

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}
	s.log.Info().Int("count", len(uids)).Str("since", since.Format("2006-01-02")).
		Msg("found messages")
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var emails []*store.Email
	for msg := range messages {
		e, err := s.parseMessage(msg, section)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to parse message, skipping")
			continue
		}
		if e != nil {
			emails = append(emails, e)
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return emails, nil
}

func (s *Syncer) parseMessage(msg *imap.Message, section *imap.BodySectionName) (*store.Email, error) {
	if msg == nil || msg.Envelope == nil {
		return nil, nil
	}

	e := &store.Email{
		ID:      strings.Trim(msg.Envelope.MessageId, "<>"),
		Subject: msg.Envelope.Subject,
		Time:    msg.Envelope.Date.Format("Jan 2"),
		Unread:  true,
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("uid-%d", msg.Uid)
	}
	for _, f := range msg.Flags {
		if f == imap.SeenFlag {
			e.Unread = false
		}
		if f == imap.FlaggedFlag {
			e.Starred = true
		}
	}
	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		if from.PersonalName != "" {
			e.Sender = fmt.Sprintf("%s <%s>", from.PersonalName, from.Address())
		} else {
			e.Sender = from.Address()
		}
	}

	r := msg.GetBody(section)
	if r == nil {
		return e, nil
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return e, nil // envelope-only record on parse failure
	}

	var plain, html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, _ := io.ReadAll(p.Body)
		switch {
		case strings.HasPrefix(ct, "text/plain") && plain == "":
			plain = string(body)
		case strings.HasPrefix(ct, "text/html") && html == "":
			html = string(body)
		}
	}

	// Keep HTML when there is no plain part; the processor detects markup
	// and falls back to the snippet for summarization.
	if plain != "" {
		e.Body = plain
	} else {
		e.Body = html
	}

	normalized := analyze.Normalize(e.Body)
	e.Snippet = truncate(normalized, snippetLen)
	e.Preview = truncate(normalized, previewLen)
	if len([]rune(normalized)) > previewLen {
		e.Preview += "..."
	}
	return e, nil
}

// Merge adds fetched emails that are not yet in the database, flagged for
// analysis, newest first. Existing records are left untouched. Returns the
// number added.
func Merge(db *store.Database, fetched []*store.Email) int {
	existing := make(map[string]struct{}, len(db.Emails))
	for _, e := range db.Emails {
		existing[e.ID] = struct{}{}
	}

	var added []*store.Email
	for _, e := range fetched {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		existing[e.ID] = struct{}{}
		e.NewEmail = true
		e.Status = store.StatusPending
		added = append(added, e)
	}
	if len(added) == 0 {
		return 0
	}

	db.Emails = append(added, db.Emails...)
	db.LastSync = time.Now().Format(time.RFC3339)
	return len(added)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
