// Package memstore provides an in-memory repository.Store used by service
// tests. Transactions snapshot the maps and restore them when the unit of
// work fails, mirroring the rollback behavior of the postgres store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/repository"
)

// Store is an in-memory implementation of repository.Store.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	incidents map[string]domain.Incident
	cases     map[string]domain.ProviderCase
	offers    map[string]domain.Offer
	vals      map[string]domain.Valuation
	visits    map[string]domain.Visit
	audit     map[string]domain.AuditEntry
	markers   map[string]domain.NotificationMarker
	notes     map[string]domain.IncidentNote
	docs      map[string]domain.DocumentRef
	accounts  map[string]domain.Account
	vendors   map[string]domain.Vendor
	centers   map[string]domain.Center

	seq int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		incidents: map[string]domain.Incident{},
		cases:     map[string]domain.ProviderCase{},
		offers:    map[string]domain.Offer{},
		vals:      map[string]domain.Valuation{},
		visits:    map[string]domain.Visit{},
		audit:     map[string]domain.AuditEntry{},
		markers:   map[string]domain.NotificationMarker{},
		notes:     map[string]domain.IncidentNote{},
		docs:      map[string]domain.DocumentRef{},
		accounts:  map[string]domain.Account{},
		vendors:   map[string]domain.Vendor{},
		centers:   map[string]domain.Center{},
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Incidents() repository.IncidentRepository         { return (*incidents)(s) }
func (s *Store) Cases() repository.ProviderCaseRepository         { return (*cases)(s) }
func (s *Store) Offers() repository.OfferRepository               { return (*offers)(s) }
func (s *Store) Visits() repository.VisitRepository               { return (*visits)(s) }
func (s *Store) Audit() repository.AuditRepository                { return (*audits)(s) }
func (s *Store) Notifications() repository.NotificationRepository { return (*markers)(s) }
func (s *Store) Notes() repository.NoteRepository                 { return (*notes)(s) }
func (s *Store) Documents() repository.DocumentRepository         { return (*docs)(s) }
func (s *Store) Accounts() repository.AccountRepository           { return (*accounts)(s) }
func (s *Store) Vendors() repository.VendorRepository             { return (*vendors)(s) }
func (s *Store) Centers() repository.CenterRepository             { return (*centers)(s) }

// InTx serializes units of work and restores the pre-transaction state when
// fn fails.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	incidents map[string]domain.Incident
	cases     map[string]domain.ProviderCase
	offers    map[string]domain.Offer
	vals      map[string]domain.Valuation
	visits    map[string]domain.Visit
	audit     map[string]domain.AuditEntry
	markers   map[string]domain.NotificationMarker
	notes     map[string]domain.IncidentNote
	docs      map[string]domain.DocumentRef
	seq       int64
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		incidents: copyMap(s.incidents),
		cases:     copyMap(s.cases),
		offers:    copyMap(s.offers),
		vals:      copyMap(s.vals),
		visits:    copyMap(s.visits),
		audit:     copyMap(s.audit),
		markers:   copyMap(s.markers),
		notes:     copyMap(s.notes),
		docs:      copyMap(s.docs),
		seq:       s.seq,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents = snap.incidents
	s.cases = snap.cases
	s.offers = snap.offers
	s.vals = snap.vals
	s.visits = snap.visits
	s.audit = snap.audit
	s.markers = snap.markers
	s.notes = snap.notes
	s.docs = snap.docs
	s.seq = snap.seq
}

// SeedVendor inserts a vendor for tests.
func (s *Store) SeedVendor(v domain.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.IsActive = true
	s.vendors[v.ID] = v
}

// SeedCenter inserts a center for tests.
func (s *Store) SeedCenter(c domain.Center) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.IsActive = true
	s.centers[c.ID] = c
}

type incidents Store

func (r *incidents) Create(ctx context.Context, incident *domain.Incident) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	incident.ID = uuid.NewString()
	incident.CreatedAt = time.Now()
	incident.UpdatedAt = incident.CreatedAt
	s.incidents[incident.ID] = *incident
	return nil
}

func (r *incidents) Update(ctx context.Context, incident *domain.Incident) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[incident.ID]; !ok {
		return pgx.ErrNoRows
	}
	incident.UpdatedAt = time.Now()
	s.incidents[incident.ID] = *incident
	return nil
}

func (r *incidents) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	incident, ok := s.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &incident, nil
}

func (r *incidents) GetByRequestNumber(ctx context.Context, number string) (*domain.Incident, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, incident := range s.incidents {
		if incident.RequestNumber == number {
			return &incident, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *incidents) LockByID(ctx context.Context, id string) (*domain.Incident, error) {
	return r.GetByID(ctx, id)
}

func (r *incidents) ListWithFilter(ctx context.Context, filter repository.IncidentFilter) ([]domain.Incident, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Incident
	for _, incident := range s.incidents {
		if filter.CenterID != nil && incident.CenterID != *filter.CenterID {
			continue
		}
		if filter.ReporterID != nil && incident.ReporterID != *filter.ReporterID {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, incident.ClientState) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, incident.Priority) {
			continue
		}
		if filter.CreatedFrom != nil && incident.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && incident.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
			needle := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
			if !strings.Contains(strings.ToLower(incident.Description), needle) &&
				!strings.Contains(strings.ToLower(incident.Classification), needle) {
				continue
			}
		}
		result = append(result, incident)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func containsState(states []domain.ClientState, state domain.ClientState) bool {
	for _, candidate := range states {
		if candidate == state {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.ClientPriority, priority domain.ClientPriority) bool {
	for _, candidate := range priorities {
		if candidate == priority {
			return true
		}
	}
	return false
}

type cases Store

func (r *cases) Create(ctx context.Context, c *domain.ProviderCase) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Active {
		for _, existing := range s.cases {
			if existing.IncidentID == c.IncidentID && existing.Active {
				// Same error shape the partial unique index raises in postgres.
				return &pgconn.PgError{
					Code:           "23505",
					Message:        `duplicate key value violates unique constraint "provider_cases_one_active"`,
					ConstraintName: "provider_cases_one_active",
				}
			}
		}
	}
	c.ID = uuid.NewString()
	c.AssignedAt = time.Now()
	c.CreatedAt = c.AssignedAt
	c.UpdatedAt = c.AssignedAt
	s.cases[c.ID] = *c
	return nil
}

func (r *cases) Update(ctx context.Context, c *domain.ProviderCase) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	s.cases[c.ID] = *c
	return nil
}

func (r *cases) GetByID(ctx context.Context, id string) (*domain.ProviderCase, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *cases) GetActiveByIncident(ctx context.Context, incidentID string) (*domain.ProviderCase, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.IncidentID == incidentID && c.Active {
			result := c
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *cases) DeactivateActive(ctx context.Context, incidentID, byAccountID, reason string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched int64
	now := time.Now()
	for id, c := range s.cases {
		if c.IncidentID == incidentID && c.Active {
			c.Active = false
			c.DeactivatedAt = &now
			c.DeactivatedBy = &byAccountID
			c.Deactivation = &reason
			c.UpdatedAt = now
			s.cases[id] = c
			touched++
		}
	}
	return touched, nil
}

func (r *cases) CountActive(ctx context.Context, incidentID string) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, c := range s.cases {
		if c.IncidentID == incidentID && c.Active {
			count++
		}
	}
	return count, nil
}

func (r *cases) ListByIncident(ctx context.Context, incidentID string) ([]domain.ProviderCase, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.ProviderCase
	for _, c := range s.cases {
		if c.IncidentID == incidentID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AssignedAt.Before(result[j].AssignedAt)
	})
	return result, nil
}

type offers Store

func (r *offers) Create(ctx context.Context, offer *domain.Offer) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	offer.ID = uuid.NewString()
	offer.CreatedAt = time.Unix(0, s.nextSeq())
	s.offers[offer.ID] = *offer
	return nil
}

func (r *offers) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &offer, nil
}

func (r *offers) Decide(ctx context.Context, offerID string, state domain.OfferState, byAccountID string, rejectReason *string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[offerID]
	if !ok || offer.State != domain.OfferStatePending {
		return pgx.ErrNoRows
	}
	now := time.Now()
	offer.State = state
	offer.DecidedAt = &now
	offer.DecidedBy = &byAccountID
	offer.RejectReason = rejectReason
	s.offers[offerID] = offer
	return nil
}

func (r *offers) GetPendingByCase(ctx context.Context, caseID string) (*domain.Offer, error) {
	return r.findByCaseState(caseID, domain.OfferStatePending)
}

func (r *offers) GetApprovedByCase(ctx context.Context, caseID string) (*domain.Offer, error) {
	return r.findByCaseState(caseID, domain.OfferStateApproved)
}

func (r *offers) findByCaseState(caseID string, state domain.OfferState) (*domain.Offer, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, offer := range s.offers {
		if offer.CaseID == caseID && offer.State == state {
			result := offer
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *offers) HasApproved(ctx context.Context, caseID string) (bool, error) {
	_, err := r.findByCaseState(caseID, domain.OfferStateApproved)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *offers) ListByCase(ctx context.Context, caseID string) ([]domain.Offer, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Offer
	for _, offer := range s.offers {
		if offer.CaseID == caseID {
			result = append(result, offer)
		}
	}
	sortOffers(result)
	return result, nil
}

func (r *offers) ListByIncident(ctx context.Context, incidentID string) ([]domain.Offer, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Offer
	for _, offer := range s.offers {
		if offer.IncidentID == incidentID {
			result = append(result, offer)
		}
	}
	sortOffers(result)
	return result, nil
}

func sortOffers(list []domain.Offer) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func (r *offers) CreateValuation(ctx context.Context, v *domain.Valuation) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = uuid.NewString()
	v.CreatedAt = time.Now()
	s.vals[v.ID] = *v
	return nil
}

func (r *offers) GetValuationByCase(ctx context.Context, caseID string) (*domain.Valuation, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Valuation
	for _, v := range s.vals {
		if v.CaseID != caseID {
			continue
		}
		candidate := v
		if latest == nil || candidate.CreatedAt.After(latest.CreatedAt) {
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

type visits Store

func (r *visits) Create(ctx context.Context, visit *domain.Visit) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	visit.ID = uuid.NewString()
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = visit.CreatedAt
	s.visits[visit.ID] = *visit
	return nil
}

func (r *visits) GetByID(ctx context.Context, id string) (*domain.Visit, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	visit, ok := s.visits[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &visit, nil
}

func (r *visits) Complete(ctx context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	visit, ok := s.visits[id]
	if !ok || visit.Status != domain.VisitStatusScheduled {
		return pgx.ErrNoRows
	}
	visit.Status = domain.VisitStatusCompleted
	visit.UpdatedAt = time.Now()
	s.visits[id] = visit
	return nil
}

func (r *visits) CancelScheduled(ctx context.Context, incidentID, vendorID, reason string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched int64
	for id, visit := range s.visits {
		if visit.IncidentID == incidentID && visit.VendorID == vendorID && visit.Status == domain.VisitStatusScheduled {
			visit.Status = domain.VisitStatusCancelled
			visit.CancelReason = &reason
			visit.UpdatedAt = time.Now()
			s.visits[id] = visit
			touched++
		}
	}
	return touched, nil
}

func (r *visits) ListByCase(ctx context.Context, caseID string) ([]domain.Visit, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Visit
	for _, visit := range s.visits {
		if visit.CaseID == caseID {
			result = append(result, visit)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledFor.Before(result[j].ScheduledFor)
	})
	return result, nil
}

type audits Store

func (r *audits) Create(ctx context.Context, entry *domain.AuditEntry) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Unix(0, s.nextSeq())
	s.audit[entry.ID] = *entry
	return nil
}

func (r *audits) ListByIncident(ctx context.Context, incidentID string, limit, offset int) ([]domain.AuditEntry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.AuditEntry
	for _, entry := range s.audit {
		if entry.IncidentID == incidentID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *audits) CountByIncident(ctx context.Context, incidentID string) (int, error) {
	entries, _ := r.ListByIncident(ctx, incidentID, 0, 0)
	return len(entries), nil
}

type markers Store

func (r *markers) Create(ctx context.Context, marker *domain.NotificationMarker) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.markers {
		if existing.VendorID == marker.VendorID && existing.IncidentID == marker.IncidentID &&
			existing.Kind == marker.Kind && !existing.Seen {
			existing.CreatedAt = time.Now()
			s.markers[id] = existing
			*marker = existing
			return nil
		}
	}
	marker.ID = uuid.NewString()
	marker.Seen = false
	marker.CreatedAt = time.Now()
	s.markers[marker.ID] = *marker
	return nil
}

func (r *markers) ListUnseenByVendor(ctx context.Context, vendorID string) ([]domain.NotificationMarker, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.NotificationMarker
	for _, marker := range s.markers {
		if marker.VendorID == vendorID && !marker.Seen {
			result = append(result, marker)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *markers) CountUnseenByVendor(ctx context.Context, vendorID string) (int, error) {
	list, _ := r.ListUnseenByVendor(ctx, vendorID)
	return len(list), nil
}

func (r *markers) MarkSeen(ctx context.Context, vendorID, incidentID string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched int64
	now := time.Now()
	for id, marker := range s.markers {
		if marker.VendorID == vendorID && marker.IncidentID == incidentID && !marker.Seen {
			marker.Seen = true
			marker.SeenAt = &now
			s.markers[id] = marker
			touched++
		}
	}
	return touched, nil
}

func (r *markers) ClearAll(ctx context.Context, vendorID string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var touched int64
	now := time.Now()
	for id, marker := range s.markers {
		if marker.VendorID == vendorID && !marker.Seen {
			marker.Seen = true
			marker.SeenAt = &now
			s.markers[id] = marker
			touched++
		}
	}
	return touched, nil
}

type notes Store

func (r *notes) Create(ctx context.Context, note *domain.IncidentNote) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	note.ID = uuid.NewString()
	note.CreatedAt = time.Unix(0, s.nextSeq())
	s.notes[note.ID] = *note
	return nil
}

func (r *notes) ListByIncident(ctx context.Context, incidentID string, scopes []domain.NoteScope) ([]domain.IncidentNote, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.IncidentNote
	for _, note := range s.notes {
		if note.IncidentID != incidentID {
			continue
		}
		if len(scopes) > 0 && !containsScope(scopes, note.Scope) {
			continue
		}
		result = append(result, note)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func containsScope(scopes []domain.NoteScope, scope domain.NoteScope) bool {
	for _, candidate := range scopes {
		if candidate == scope {
			return true
		}
	}
	return false
}

type docs Store

func (r *docs) Create(ctx context.Context, doc *domain.DocumentRef) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now()
	s.docs[doc.ID] = *doc
	return nil
}

func (r *docs) ListByIncident(ctx context.Context, incidentID string) ([]domain.DocumentRef, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.DocumentRef
	for _, doc := range s.docs {
		if doc.IncidentID == incidentID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type accounts Store

func (r *accounts) Create(ctx context.Context, account *domain.Account) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = *account
	return nil
}

func (r *accounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}

func (r *accounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Email == email {
			result := account
			return &result, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *accounts) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now()
	s.accounts[id] = account
	return nil
}

type vendors Store

func (r *vendors) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &vendor, nil
}

func (r *vendors) List(ctx context.Context, activeOnly bool) ([]domain.Vendor, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Vendor
	for _, vendor := range s.vendors {
		if activeOnly && !vendor.IsActive {
			continue
		}
		result = append(result, vendor)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

type centers Store

func (r *centers) GetByID(ctx context.Context, id string) (*domain.Center, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	center, ok := s.centers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &center, nil
}

