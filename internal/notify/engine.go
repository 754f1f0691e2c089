package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/email"
	"github.com/farmacase/farmacase/internal/model"
)

type HouseSource interface {
	ListActive() ([]model.House, error)
}

type MedicationSource interface {
	ListExpiringInHouse(houseID int64, from, to string) ([]model.Medication, error)
	ListLowInHouse(houseID int64) ([]model.Medication, error)
	ListExpiringInActiveHouses(from, to string) ([]model.MedicationWithHouse, error)
	ListLowInActiveHouses() ([]model.MedicationWithHouse, error)
}

type RecipientSource interface {
	ListRecipientsForHouse(houseID int64) ([]model.Recipient, error)
	ListAdminRecipients() ([]model.Recipient, error)
}

type NotificationStore interface {
	Record(userID int64, expiring, low []model.Medication) (int, error)
	ListForUser(userID int64, limit int) ([]model.UserNotification, error)
	IsRecipient(notificationID, userID int64) (bool, error)
	MarkRead(notificationID int64) error
	CountUnread(userID int64) (int, error)
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

type Sources struct {
	Houses        HouseSource
	Medications   MedicationSource
	Recipients    RecipientSource
	Notifications NotificationStore
}

// Engine computes weekly alerts, emails them and records what was sent.
type Engine struct {
	houses        HouseSource
	medications   MedicationSource
	recipients    RecipientSource
	notifications NotificationStore
	mailer        Mailer
	events        *EventLog
	metrics       *Metrics
	cfg           Config
	logger        *slog.Logger
	now           func() time.Time
}

func NewEngine(src Sources, mailer Mailer, events *EventLog, metrics *Metrics, cfg Config, logger *slog.Logger) *Engine {
	if events == nil {
		events = NewEventLog(DefaultEventLogSize)
	}
	return &Engine{
		houses:        src.Houses,
		medications:   src.Medications,
		recipients:    src.Recipients,
		notifications: src.Notifications,
		mailer:        mailer,
		events:        events,
		metrics:       metrics,
		cfg:           cfg.withDefaults(),
		logger:        logger.With("component", "notify"),
		now:           time.Now,
	}
}

func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) Events() *EventLog {
	return e.events
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) record(typ, msg string) {
	e.events.Append(Event{Timestamp: e.now(), Type: typ, Message: msg})
}

func (e *Engine) from() string {
	if validAddress(e.cfg.Sender) {
		return "FarmaciCase <" + e.cfg.Sender + ">"
	}
	return ""
}

func (e *Engine) send(ctx context.Context, kind, to string, r report) bool {
	err := e.mailer.Send(ctx, email.Message{
		From:     e.from(),
		To:       to,
		Subject:  r.Subject,
		TextBody: r.Body,
	})
	e.metrics.email(kind, err == nil)
	if err != nil {
		e.logger.Warn("send email", "kind", kind, "to", to, "error", err)
		return false
	}
	return true
}

// RunWeekly emails every assigned user of each active house the medications
// that are low or expiring there, then sends the cross-house digest to each
// admin. It reports whether at least one house report went out. Send
// failures are logged and skipped. The run visits every house even if ctx is
// done; callers that must outlive a request pass a context detached from it.
func (e *Engine) RunWeekly(ctx context.Context) bool {
	runID := uuid.NewString()
	log := e.logger.With("run_id", runID)
	e.metrics.runStarted()

	now := e.now().In(e.cfg.Location)
	from := now.Format(model.DateLayout)
	to := now.AddDate(0, 0, e.cfg.LookaheadDays).Format(model.DateLayout)

	houses, err := e.houses.ListActive()
	if err != nil {
		log.Error("list active houses", "error", err)
		return false
	}
	if len(houses) == 0 {
		e.record(EventNoHouses, "Nessuna Casa di Comunità attiva trovata")
		log.Info("no active houses")
		return false
	}

	sent := 0
	for _, h := range houses {
		sent += e.notifyHouse(ctx, log, h, from, to, now)
	}

	e.sendAdminDigest(ctx, log, from, to, now)

	e.record(EventWeeklySent, fmt.Sprintf("Inviate %d notifiche settimanali", sent))
	log.Info("weekly run complete", "houses", len(houses), "emails", sent)
	return sent > 0
}

func (e *Engine) notifyHouse(ctx context.Context, log *slog.Logger, h model.House, from, to string, now time.Time) int {
	expiring, err := e.medications.ListExpiringInHouse(h.ID, from, to)
	if err != nil {
		log.Error("list expiring medications", "house_id", h.ID, "error", err)
		return 0
	}
	low, err := e.medications.ListLowInHouse(h.ID)
	if err != nil {
		log.Error("list low medications", "house_id", h.ID, "error", err)
		return 0
	}
	if len(expiring) == 0 && len(low) == 0 {
		return 0
	}

	recipients, err := e.recipients.ListRecipientsForHouse(h.ID)
	if err != nil {
		log.Error("list recipients", "house_id", h.ID, "error", err)
		return 0
	}
	if len(recipients) == 0 {
		e.record(EventNoUsers, "Nessun utente associato alla Casa: "+h.Name)
		return 0
	}

	sent := 0
	for _, r := range recipients {
		if !validAddress(r.Email) {
			log.Debug("skip recipient without valid email", "user_id", r.UserID)
			continue
		}
		rep := houseReport(r.DisplayName, h.Name, low, expiring, now, e.cfg)
		if !e.send(ctx, "house", r.Email, rep) {
			continue
		}
		sent++

		n, err := e.notifications.Record(r.UserID, expiring, low)
		if err != nil {
			log.Error("record notifications", "user_id", r.UserID, "house_id", h.ID, "error", err)
			continue
		}
		e.metrics.recorded(n)
	}
	return sent
}

func (e *Engine) sendAdminDigest(ctx context.Context, log *slog.Logger, from, to string, now time.Time) {
	expiring, err := e.medications.ListExpiringInActiveHouses(from, to)
	if err != nil {
		log.Error("list expiring medications for digest", "error", err)
		return
	}
	low, err := e.medications.ListLowInActiveHouses()
	if err != nil {
		log.Error("list low medications for digest", "error", err)
		return
	}
	if len(expiring) == 0 && len(low) == 0 {
		return
	}

	admins, err := e.recipients.ListAdminRecipients()
	if err != nil {
		log.Error("list admin recipients", "error", err)
		return
	}

	sent := 0
	for _, a := range admins {
		if !validAddress(a.Email) {
			continue
		}
		if e.send(ctx, "admin_digest", a.Email, adminDigest(a.DisplayName, low, expiring, now, e.cfg)) {
			sent++
		}
	}
	log.Info("admin digest sent", "admins", sent)
}

// SendTest emails a canned message to the acting identity.
func (e *Engine) SendTest(ctx context.Context, a auth.Actor) bool {
	if !validAddress(a.Email) {
		e.record(EventTestFailed, "Invio notifica di test fallito a "+a.Email)
		return false
	}
	if !e.send(ctx, "test", a.Email, testReport(a.DisplayName, e.cfg.Schedule)) {
		e.record(EventTestFailed, "Invio notifica di test fallito a "+a.Email)
		return false
	}
	e.record(EventTestSent, "Notifica di test inviata a "+a.Email)
	return true
}

// UserNotifications lists the user's notifications, newest first.
func (e *Engine) UserNotifications(userID int64, limit int) ([]model.UserNotification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return e.notifications.ListForUser(userID, limit)
}

// MarkAsRead flips the notification's read flag when userID is one of its
// recipients. The flag is shared by all recipients.
func (e *Engine) MarkAsRead(notificationID, userID int64) (bool, error) {
	ok, err := e.notifications.IsRecipient(notificationID, userID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := e.notifications.MarkRead(notificationID); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) CountUnread(userID int64) (int, error) {
	return e.notifications.CountUnread(userID)
}
