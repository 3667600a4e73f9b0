package ledger

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry owns the per-user ledger instances. Each ledger is created lazily
// on first use and never shared across users.
//
// The service keeps the original single-operator model: login marks the acting
// user, and the trading endpoints operate on that user's ledger. Before any
// login the registry serves a default local ledger (user id 0), matching the
// profile that existed before authentication in the original flow.
type Registry struct {
	mu      sync.Mutex
	ledgers map[int64]*Ledger
	active  int64
	quotes  QuoteProvider
	log     zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(quotes QuoteProvider, log zerolog.Logger) *Registry {
	return &Registry{
		ledgers: make(map[int64]*Ledger),
		quotes:  quotes,
		log:     log,
	}
}

// ForUser returns the ledger owned by the given user, creating it if needed.
func (r *Registry) ForUser(userID int64) *Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.ledgers[userID]
	if !ok {
		l = New(r.quotes, r.log.With().Int64("user_id", userID).Logger())
		r.ledgers[userID] = l
	}
	return l
}

// SetActive marks the acting user after a successful login.
func (r *Registry) SetActive(userID int64) {
	r.mu.Lock()
	r.active = userID
	r.mu.Unlock()
}

// Active returns the acting user's ledger.
func (r *Registry) Active() *Ledger {
	r.mu.Lock()
	userID := r.active
	r.mu.Unlock()
	return r.ForUser(userID)
}

// ActiveUserID returns the acting user's id (0 before any login).
func (r *Registry) ActiveUserID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
