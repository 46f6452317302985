package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pet-records/internal/domain/documents"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/preferences"
	"pet-records/internal/domain/reminders"
	"pet-records/internal/outbox"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/ports/capabilities"
	"pet-records/internal/ports/email"
	"pet-records/internal/ports/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrFeatureUnavailable = errors.New("feature not available")
	ErrDeliveryFailed     = errors.New("email delivery failed")
	ErrNoRecipientAddress = errors.New("no recipient address")
)

// Interfaces chicas sobre los otros dominios (los implementan sus Service).
type DocumentSharer interface {
	EnsureShare(ctx context.Context, id, userID string, ttl time.Duration) (documents.Document, error)
}

type ReminderSource interface {
	DueForNotification(ctx context.Context, now time.Time, window time.Duration, limit int, zoneOf reminders.ZoneFunc) ([]reminders.Reminder, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
	MarkSkipped(ctx context.Context, id string, at time.Time) error
}

type PreferenceSource interface {
	ForUser(ctx context.Context, userID string) (preferences.UserPreferences, error)
	ListPendingWelcome(ctx context.Context, limit int) ([]preferences.UserPreferences, error)
	MarkWelcomeSent(ctx context.Context, userID string, at time.Time) error
}

type PetLookup interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type Config struct {
	From       string
	ContactTo  string
	AppURL     string
	ShareTTL   time.Duration // default del link si el request no trae ttl
	QueueDelay time.Duration // espera antes del primer reintento desde la outbox
	// Concurrency acota los envíos en paralelo de los lotes.
	Concurrency int
	BatchLimit  int
}

func (c Config) withDefaults() Config {
	if c.ShareTTL <= 0 {
		c.ShareTTL = 7 * 24 * time.Hour
	}
	if c.QueueDelay <= 0 {
		c.QueueDelay = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 200
	}
	c.AppURL = strings.TrimRight(c.AppURL, "/")
	return c
}

type Deps struct {
	Sender       email.Sender
	Outbox       outbox.Store // nil = sin cola: un error transitorio es failed
	Logs         LogRepository
	Documents    DocumentSharer
	Reminders    ReminderSource
	Preferences  PreferenceSource
	Pets         PetLookup
	Capabilities capabilities.CapabilitiesResolver // nil = todo permitido
	Logger       logger.Logger
}

type Service struct {
	Deps
	cfg Config
	now func() time.Time
}

func NewService(deps Deps, cfg Config) *Service {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	deps.Logger = deps.Logger.With(map[string]any{"component": "notify"})
	return &Service{Deps: deps, cfg: cfg.withDefaults(), now: time.Now}
}

// delivery describe un envío antes de intentarlo.
type delivery struct {
	kind      Kind
	userID    string
	relatedID string
	msg       email.Message
}

// deliver intenta enviar ya; si el error es transitorio y hay outbox, encola.
// Siempre deja una fila en email_logs.
func (s *Service) deliver(ctx context.Context, d delivery) (LogStatus, error) {
	if d.msg.From == "" {
		d.msg.From = s.cfg.From
	}
	if d.msg.Tags == nil {
		d.msg.Tags = map[string]string{}
	}
	d.msg.Tags["kind"] = string(d.kind)

	now := s.now()
	entry := EmailLog{
		ID:        uuid.NewString(),
		Kind:      d.kind,
		UserID:    d.userID,
		Recipient: strings.Join(d.msg.To, ","),
		Subject:   d.msg.Subject,
		RelatedID: d.relatedID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	providerID, sendErr := s.Sender.Send(ctx, d.msg)
	var result error
	switch {
	case sendErr == nil:
		entry.Status = LogSent
		entry.ProviderID = providerID

	case email.IsTransient(sendErr) && s.Outbox != nil:
		qerr := s.Outbox.Enqueue(ctx, outbox.Entry{
			ID:            uuid.NewString(),
			Kind:          string(d.kind),
			Message:       d.msg,
			LogID:         entry.ID,
			Attempts:      1,
			NextAttemptAt: now.Add(s.cfg.QueueDelay),
			LastError:     sendErr.Error(),
			Status:        outbox.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if qerr != nil {
			entry.Status = LogFailed
			entry.Error = sendErr.Error() + "; enqueue: " + qerr.Error()
			result = fmt.Errorf("%w: %w (enqueue: %v)", ErrDeliveryFailed, sendErr, qerr)
			break
		}
		entry.Status = LogQueued
		entry.Error = sendErr.Error()

	default:
		entry.Status = LogFailed
		entry.Error = sendErr.Error()
		result = fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
	}

	metrics.EmailsSent.WithLabelValues(string(d.kind), string(entry.Status)).Inc()
	if err := s.Logs.Create(ctx, entry); err != nil {
		s.Logger.Warn("email log write failed", map[string]any{"kind": d.kind, "error": err.Error()})
	}
	if entry.Status != LogSent {
		s.Logger.Warn("email not sent", map[string]any{"kind": d.kind, "status": entry.Status, "error": entry.Error})
	}
	return entry.Status, result
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Contact manda el mensaje del formulario público al buzón de soporte.
func (s *Service) Contact(ctx context.Context, in ContactInput) (LogStatus, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return "", ErrInvalidInput
	}
	if in.Subject == "" {
		in.Subject = "Contact form"
	}
	if s.cfg.ContactTo == "" {
		return "", ErrNoRecipientAddress
	}

	html, err := render("contact", contactData{Name: in.Name, Email: in.Email, Subject: in.Subject, Message: in.Message})
	if err != nil {
		return "", err
	}
	return s.deliver(ctx, delivery{
		kind: KindContact,
		msg: email.Message{
			To:      []string{s.cfg.ContactTo},
			ReplyTo: fmt.Sprintf("%s <%s>", in.Name, in.Email),
			Subject: "[Contact] " + in.Subject,
			HTML:    html,
			Text:    fmt.Sprintf("From: %s <%s>\n\n%s", in.Name, in.Email, in.Message),
		},
	})
}

type ShareInput struct {
	RecipientEmail string
	Message        string
	TTL            time.Duration // 0 = default
}

type ShareResult struct {
	Status    LogStatus
	URL       string
	ExpiresAt time.Time
}

// ShareDocument asegura un link compartido y lo manda por email.
func (s *Service) ShareDocument(ctx context.Context, userID, senderEmail, documentID string, in ShareInput) (ShareResult, error) {
	to := strings.TrimSpace(in.RecipientEmail)
	if to == "" {
		return ShareResult{}, fmt.Errorf("%w: recipient_email is required", ErrInvalidInput)
	}
	if s.Capabilities != nil {
		ok, err := s.Capabilities.HasFeature(ctx, capabilities.CapabilityCheck{
			UserID:  userID,
			Feature: capabilities.FeatureDocumentShareEmail,
		})
		if err != nil {
			return ShareResult{}, fmt.Errorf("capabilities: %w", err)
		}
		if !ok {
			return ShareResult{}, ErrFeatureUnavailable
		}
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.cfg.ShareTTL
	}
	doc, err := s.Documents.EnsureShare(ctx, documentID, userID, ttl)
	if err != nil {
		return ShareResult{}, err
	}

	link := s.cfg.AppURL + "/shared/" + doc.ShareToken
	var expires time.Time
	if doc.ShareExpiresAt != nil {
		expires = *doc.ShareExpiresAt
	}
	sender := strings.TrimSpace(senderEmail)
	if sender == "" {
		sender = "A Pet Records user"
	}

	html, err := render("document_share", shareData{
		SenderName:   sender,
		DocumentName: doc.Name,
		Note:         strings.TrimSpace(in.Message),
		Link:         safeURL(link),
		ExpiresAt:    expires.UTC().Format("Jan 2, 2006 15:04 MST"),
	})
	if err != nil {
		return ShareResult{}, err
	}

	msg := email.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("%s shared \"%s\" with you", sender, doc.Name),
		HTML:    html,
		Text:    fmt.Sprintf("%s shared \"%s\" with you: %s", sender, doc.Name, link),
	}
	if strings.Contains(senderEmail, "@") {
		msg.ReplyTo = strings.TrimSpace(senderEmail)
	}

	st, err := s.deliver(ctx, delivery{kind: KindDocumentShare, userID: userID, relatedID: doc.ID, msg: msg})
	if err != nil {
		return ShareResult{}, err
	}
	return ShareResult{Status: st, URL: link, ExpiresAt: expires}, nil
}

// BatchResult resume una corrida de lote.
type BatchResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Queued    int `json:"queued"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type batchCounter struct {
	mu sync.Mutex
	BatchResult
}

func (c *batchCounter) add(st LogStatus, err error, skipped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Processed++
	switch {
	case skipped:
		c.Skipped++
	case err != nil:
		c.Failed++
	case st == LogQueued:
		c.Queued++
	default:
		c.Sent++
	}
}

// SendReminderEmails avisa los recordatorios que vencen dentro de window,
// evaluando la hora en la zona del dueño. Se marcan notificados los enviados
// y los encolados; los que no se pueden avisar quedan descartados.
func (s *Service) SendReminderEmails(ctx context.Context, window time.Duration) (BatchResult, error) {
	now := s.now()
	due, err := s.Reminders.DueForNotification(ctx, now, window, s.cfg.BatchLimit, s.ownerZone)
	if err != nil {
		return BatchResult{}, err
	}

	var counter batchCounter
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, r := range due {
		g.Go(func() error {
			st, skipped, err := s.remind(gctx, r)
			counter.add(st, err, skipped)
			if err != nil {
				s.Logger.Warn("reminder email failed", map[string]any{"reminder_id": r.ID, "error": err.Error()})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return counter.BatchResult, err
	}
	return counter.BatchResult, ctx.Err()
}

// ownerZone: sin preferencias legibles se usa UTC.
func (s *Service) ownerZone(ctx context.Context, userID string) *time.Location {
	prefs, err := s.Preferences.ForUser(ctx, userID)
	if err != nil {
		return nil
	}
	return prefs.Location()
}

// remind devuelve skipped=true si el dueño no tiene email o desactivó las
// notificaciones. Esos recordatorios y los rechazos permanentes del proveedor
// se marcan descartados para que no vuelvan a ocupar el lote.
func (s *Service) remind(ctx context.Context, r reminders.Reminder) (LogStatus, bool, error) {
	prefs, err := s.Preferences.ForUser(ctx, r.OwnerUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", true, s.skip(ctx, r)
	}
	if err != nil {
		return "", false, err
	}
	if !prefs.CanReceiveEmail() {
		return "", true, s.skip(ctx, r)
	}

	var names []string
	for _, id := range r.PetIDs {
		if p, err := s.Pets.GetByID(ctx, id); err == nil {
			names = append(names, p.Name)
		}
	}
	// mismo instante con el que DueForNotification decidió el vencimiento
	when := r.DueAt(prefs.Location())
	html, err := render("reminder", reminderData{
		Title:  r.Title,
		When:   when.Format("Monday, Jan 2 2006 15:04 MST"),
		Notes:  r.Notes,
		Pets:   names,
		AppURL: safeURL(s.cfg.AppURL),
	})
	if err != nil {
		return "", false, err
	}

	st, err := s.deliver(ctx, delivery{
		kind:      KindReminder,
		userID:    r.OwnerUserID,
		relatedID: r.ID,
		msg: email.Message{
			To:      []string{prefs.Email},
			Subject: "Reminder: " + r.Title,
			HTML:    html,
			Text:    fmt.Sprintf("Reminder: %s (%s)", r.Title, when.Format("Jan 2 2006 15:04 MST")),
		},
	})
	if err != nil {
		if errors.Is(err, ErrDeliveryFailed) && !email.IsTransient(err) {
			if serr := s.skip(ctx, r); serr != nil {
				return st, false, errors.Join(err, serr)
			}
		}
		return st, false, err
	}
	if err := s.Reminders.MarkNotified(ctx, r.ID, s.now()); err != nil {
		return st, false, fmt.Errorf("mark notified: %w", err)
	}
	return st, false, nil
}

func (s *Service) skip(ctx context.Context, r reminders.Reminder) error {
	if err := s.Reminders.MarkSkipped(ctx, r.ID, s.now()); err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}
	return nil
}

// SendWelcomeEmails manda la bienvenida a quienes tienen email y todavía no la recibieron.
func (s *Service) SendWelcomeEmails(ctx context.Context) (BatchResult, error) {
	pending, err := s.Preferences.ListPendingWelcome(ctx, s.cfg.BatchLimit)
	if err != nil {
		return BatchResult{}, err
	}

	html, err := render("welcome", welcomeData{AppURL: safeURL(s.cfg.AppURL)})
	if err != nil {
		return BatchResult{}, err
	}

	var counter batchCounter
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, p := range pending {
		g.Go(func() error {
			st, err := s.deliver(gctx, delivery{
				kind:   KindWelcome,
				userID: p.UserID,
				msg: email.Message{
					To:      []string{p.Email},
					Subject: "Welcome to Pet Records",
					HTML:    html,
					Text:    "Welcome to Pet Records! " + s.cfg.AppURL,
				},
			})
			if err == nil {
				err = s.Preferences.MarkWelcomeSent(gctx, p.UserID, s.now())
			}
			counter.add(st, err, false)
			if err != nil {
				s.Logger.Warn("welcome email failed", map[string]any{"user_id": p.UserID, "error": err.Error()})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return counter.BatchResult, err
	}
	return counter.BatchResult, ctx.Err()
}

// ListLogs devuelve el historial de emails del usuario.
func (s *Service) ListLogs(ctx context.Context, userID string, limit int) ([]EmailLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Logs.ListByUser(ctx, userID, limit)
}

// LogRecorder refleja en email_logs lo que resolvió la outbox.
type LogRecorder struct {
	logs LogRepository
	now  func() time.Time
}

func NewLogRecorder(logs LogRepository) *LogRecorder {
	return &LogRecorder{logs: logs, now: time.Now}
}

func (r *LogRecorder) RecordDelivery(ctx context.Context, logID, status, providerID, errMsg string) error {
	return r.logs.UpdateStatus(ctx, logID, LogStatus(status), providerID, errMsg, r.now())
}
