package inventory

import (
	"log/slog"
	"time"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/store"
)

// Config carries the settings the service reads at construction.
type Config struct {
	// LookaheadDays is the expiring-soon window, inclusive of both ends.
	LookaheadDays int
	// Location defines the calendar day used for "today".
	Location *time.Location
}

// Service applies permission checks, validation and scoping on top of the
// stores. All list reads are restricted to what the actor may see.
type Service struct {
	access      *auth.Evaluator
	houses      *store.HouseStore
	identities  *store.IdentityStore
	users       *store.UserStore
	medications *store.MedicationStore
	history     *store.HistoryStore
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time
}

type Stores struct {
	Houses      *store.HouseStore
	Identities  *store.IdentityStore
	Users       *store.UserStore
	Medications *store.MedicationStore
	History     *store.HistoryStore
}

func NewService(access *auth.Evaluator, s Stores, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		access:      access,
		houses:      s.Houses,
		identities:  s.Identities,
		users:       s.Users,
		medications: s.Medications,
		history:     s.History,
		cfg:         cfg,
		logger:      logger.With("component", "inventory"),
		now:         time.Now,
	}
}

// SetClock replaces the time source used for date filters.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) today() time.Time {
	t := s.now().In(s.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *Service) requireAdmin(a auth.Actor) error {
	ok, err := s.access.IsAdmin(a)
	if err != nil {
		return storage("check admin", err)
	}
	if !ok {
		return forbidden()
	}
	return nil
}

// allowed turns an evaluator answer into nil, a permission error or a
// storage error.
func allowed(ok bool, err error) error {
	if err != nil {
		return storage("check permission", err)
	}
	if !ok {
		return forbidden()
	}
	return nil
}
