package webchat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/internal/leads"
	"github.com/garanley/claims-intake/internal/observability/metrics"
	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	storeKind = "chat"

	defaultMinReplyDelay = 2 * time.Second
	defaultReadDelay     = time.Second
	defaultReplyTimeout  = 5 * time.Minute

	chatLeadName      = "Usuario del Chat"
	chatPhoneFallback = "Detectado por contexto"
)

// LeadSubmitter records a lead without reporting delivery failures.
type LeadSubmitter interface {
	Submit(ctx context.Context, rec leads.Record)
}

// Responder produces the assistant reply for a user message.
type Responder interface {
	Chat(ctx context.Context, message string, history []conversation.ChatMessage) (conversation.ChatReply, error)
}

// Config tunes the chat widget behaviour.
type Config struct {
	Greeting      string
	MinReplyDelay time.Duration
	ReadDelay     time.Duration
	// DedupeLeads sends at most one contact lead per session.
	DedupeLeads bool
	ScheduleURL string
	// ReplyTimeout bounds how long a session may stay awaiting a reply.
	// Past it the turn counts as failed, so a reply lost to a crash or a
	// failed save does not lock the session.
	ReplyTimeout time.Duration
}

// View is what the widget renders.
type View struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Typing      bool      `json:"typing"`
	Messages    []Message `json:"messages"`
	ScheduleURL string    `json:"schedule_url,omitempty"`
}

// Service runs chat sessions stored in a session store.
type Service struct {
	store     sessions.Store
	locker    *sessions.Locker
	leads     LeadSubmitter
	responder Responder
	detector  *Detector
	cfg       Config
	now       func() time.Time
	sleep     func(time.Duration)
	newID     func() string
	logger    *logging.Logger
	metrics   *metrics.ChatMetrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSleep replaces the pause used to pad fast replies.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Service) { s.sleep = sleep }
}

func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDetector(d *Detector) Option {
	return func(s *Service) { s.detector = d }
}

func NewService(store sessions.Store, leadSubmitter LeadSubmitter, responder Responder, cfg Config, logger *logging.Logger, opts ...Option) *Service {
	if store == nil || leadSubmitter == nil || responder == nil {
		panic("webchat: store, lead submitter and responder are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MinReplyDelay <= 0 {
		cfg.MinReplyDelay = defaultMinReplyDelay
	}
	if cfg.ReadDelay <= 0 {
		cfg.ReadDelay = defaultReadDelay
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = defaultReplyTimeout
	}
	s := &Service{
		store:     store,
		locker:    sessions.NewLocker(),
		leads:     leadSubmitter,
		responder: responder,
		cfg:       cfg,
		now:       time.Now,
		sleep:     time.Sleep,
		newID:     func() string { return uuid.NewString() },
		logger:    logger.WithComponent("webchat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		d, err := NewDetector("", "")
		if err != nil {
			panic(err)
		}
		s.detector = d
	}
	return s
}

// Create opens a session seeded with the greeting. An empty greeting
// leaves the transcript empty.
func (s *Service) Create(ctx context.Context) (View, error) {
	now := s.now()
	sess := Session{
		ID:        s.newID(),
		State:     StateIdle,
		CreatedAt: now,
		Messages:  []Message{},
	}
	if s.cfg.Greeting != "" {
		sess.Messages = append(sess.Messages, Message{
			ID:        s.newID(),
			Text:      s.cfg.Greeting,
			Role:      RoleAssistant,
			Timestamp: now,
			Status:    StatusRead,
		})
	}
	if err := s.save(ctx, &sess); err != nil {
		return View{}, err
	}
	return s.view(&sess), nil
}

// Get returns the session, flipping due read receipts.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if s.refresh(ctx, &sess) {
		if err := s.save(ctx, &sess); err != nil {
			return View{}, err
		}
	}
	return s.view(&sess), nil
}

// Send appends a user message and waits for the assistant reply. accepted,
// when non-nil, is called once the user message is stored and before the
// model is asked. A failed model call leaves the transcript without a reply
// and the session idle again; the returned view reflects that with no error.
func (s *Service) Send(ctx context.Context, id, text string, accepted func(View)) (View, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return View{}, ErrEmptyMessage
	}

	var (
		history []conversation.ChatMessage
		lead    *leads.Record
		turnID  = s.newID()
	)
	view, err := s.withSession(ctx, id, func(sess *Session) error {
		if err := transition(ctx, sess, eventSend); err != nil {
			return err
		}
		now := s.now()
		sess.PendingID = turnID
		sess.AwaitingSince = now
		history = sess.history()
		sess.Messages = append(sess.Messages, Message{
			ID:        turnID,
			Text:      text,
			Role:      RoleUser,
			Timestamp: now,
			Status:    StatusSent,
		})
		s.metrics.ObserveMessage(RoleUser)

		if match, ok := s.detector.Detect(text); ok {
			capture := !(s.cfg.DedupeLeads && sess.LeadCaptured)
			s.metrics.ObserveContact(strings.ToLower(match.Kind()), capture)
			if capture {
				rec := chatLead(sess, match)
				lead = &rec
				sess.LeadCaptured = true
			}
		}
		return nil
	})
	if err != nil {
		return view, err
	}
	if accepted != nil {
		accepted(view)
	}

	// The reply is produced even if the caller goes away.
	runCtx := context.WithoutCancel(ctx)
	reply, replyErr := s.respond(runCtx, text, history, lead)

	view, err = s.withSession(runCtx, id, func(sess *Session) error {
		if sess.State != StateAwaitingResponse || sess.PendingID != turnID {
			s.logger.Info("chat turn expired before the reply arrived, discarding it", "session_id", id)
			return nil
		}
		sess.clearPending()
		if replyErr != nil {
			s.logger.Warn("chat reply failed", "error", replyErr, "session_id", id)
			return transition(runCtx, sess, eventFail)
		}
		msg := Message{
			ID:        s.newID(),
			Text:      reply.Text,
			Role:      RoleAssistant,
			Timestamp: s.now(),
		}
		if reply.ShowSchedule {
			msg.Action = ActionSchedule
		}
		sess.Messages = append(sess.Messages, msg)
		s.metrics.ObserveMessage(RoleAssistant)
		return transition(runCtx, sess, eventReply)
	})
	if err != nil {
		return View{}, fmt.Errorf("webchat: store reply: %w", err)
	}
	return view, nil
}

// respond submits the lead, asks the model and pads the wait to the minimum
// reply delay, all concurrently.
func (s *Service) respond(ctx context.Context, text string, history []conversation.ChatMessage, lead *leads.Record) (conversation.ChatReply, error) {
	var (
		g     errgroup.Group
		reply conversation.ChatReply
		err   error
	)
	if lead != nil {
		g.Go(func() error {
			s.leads.Submit(ctx, *lead)
			return nil
		})
	}
	g.Go(func() error {
		reply, err = s.responder.Chat(ctx, text, history)
		return nil
	})
	g.Go(func() error {
		s.sleep(s.cfg.MinReplyDelay)
		return nil
	})
	_ = g.Wait()
	return reply, err
}

// withSession loads the session under its lock, refreshes read receipts,
// applies fn and saves. Nothing is saved when fn fails.
func (s *Service) withSession(ctx context.Context, id string, fn func(*Session) error) (View, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	s.refresh(ctx, &sess)
	if err := fn(&sess); err != nil {
		return s.view(&sess), err
	}
	if err := s.save(ctx, &sess); err != nil {
		return View{}, err
	}
	return s.view(&sess), nil
}

// refresh applies the time-driven changes: due read receipts and the
// expiry of a reply that never arrived. It reports whether anything changed.
func (s *Service) refresh(ctx context.Context, sess *Session) bool {
	now := s.now()
	changed := sess.markRead(now, s.cfg.ReadDelay)
	if sess.State == StateAwaitingResponse && now.Sub(sess.AwaitingSince) >= s.cfg.ReplyTimeout {
		if err := transition(ctx, sess, eventFail); err == nil {
			s.logger.Warn("chat reply timed out, session idle again", "session_id", sess.ID, "awaiting_since", sess.AwaitingSince)
			sess.clearPending()
			changed = true
		}
	}
	return changed
}

func (s *Service) load(ctx context.Context, id string) (Session, error) {
	var sess Session
	if err := s.store.Load(ctx, storeKind, id, &sess); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("webchat: load: %w", err)
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	if err := s.store.Save(ctx, storeKind, sess.ID, sess); err != nil {
		s.logger.Error("failed to save chat session", "error", err, "session_id", sess.ID)
		return fmt.Errorf("webchat: save: %w", err)
	}
	return nil
}

func (s *Service) view(sess *Session) View {
	msgs := make([]Message, len(sess.Messages))
	copy(msgs, sess.Messages)
	v := View{
		ID:       sess.ID,
		State:    sess.State,
		Typing:   sess.State == StateAwaitingResponse,
		Messages: msgs,
	}
	for _, m := range msgs {
		if m.Action == ActionSchedule {
			v.ScheduleURL = s.cfg.ScheduleURL
			break
		}
	}
	return v
}

// chatLead builds the lead for a contact match. The transcript already
// holds the new user message.
func chatLead(sess *Session, match ContactMatch) leads.Record {
	phone := match.Phone
	if phone == "" {
		phone = chatPhoneFallback
	}
	return leads.Record{
		Origin:  leads.OriginChat,
		Name:    chatLeadName,
		Phone:   phone,
		Email:   match.Email,
		Message: sess.transcriptText(),
		Extra:   "Captura automática por detección de " + match.Kind(),
	}
}
