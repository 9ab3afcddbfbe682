package rates

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nursan/oiltrade-rates/internal/model"
)

// contractExpiryNotice is how far ahead of the customer contract end date the
// renewal warning appears.
const contractExpiryNotice = 30 * 24 * time.Hour

// Session is the editing state of one in-progress sales order: its line
// items, the customer's contract directory snapshot, approved overrides,
// the warning log, and at most one pending override request. All state is
// scoped to the session; nothing here is shared across sessions or users.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu        sync.Mutex
	lastUsed  time.Time
	customer  model.Customer
	rates     map[uuid.UUID]model.ContractRate
	materials map[uuid.UUID]model.Material
	items     []model.LineItem
	overrides map[uuid.UUID]model.OverrideRecord
	warnings  []model.Warning
	pending   *model.PendingOverride
	now       func() time.Time
}

// NewSession opens a session for customer with its contract directory fully
// loaded. rates maps materialID to the customer's contract entry.
func NewSession(id uuid.UUID, customer model.Customer, contractRates []model.ContractRate, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{
		ID:        id,
		CreatedAt: now(),
		lastUsed:  now(),
		customer:  customer,
		rates:      indexRates(contractRates),
		materials:  make(map[uuid.UUID]model.Material),
		overrides:  make(map[uuid.UUID]model.OverrideRecord),
		now:        now,
	}
	s.checkContractExpiry()
	return s
}

func indexRates(entries []model.ContractRate) map[uuid.UUID]model.ContractRate {
	index := make(map[uuid.UUID]model.ContractRate, len(entries))
	for _, entry := range entries {
		index[entry.MaterialID] = entry
	}
	return index
}

// SetCustomer switches the session to another customer: the contract context
// resets, so overrides, warnings, and any pending request are discarded and
// every line item is re-resolved against the new directory.
func (s *Session) SetCustomer(customer model.Customer, contractRates []model.ContractRate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customer = customer
	s.rates = indexRates(contractRates)
	s.overrides = make(map[uuid.UUID]model.OverrideRecord)
	s.warnings = nil
	s.pending = nil
	s.touch()

	for i := range s.items {
		material, ok := s.materials[s.items[i].MaterialID]
		if !ok {
			continue
		}
		result := s.resolveLocked(material.ID)
		s.items[i].Rate = result.EffectiveRate
		s.items[i].Amount = s.items[i].Quantity * result.EffectiveRate
		s.noteContractWarning(material, result)
	}
	s.checkContractExpiry()
}

// Customer returns the customer the session is editing an order for.
func (s *Session) Customer() model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// ContractActive reports whether the customer is under a live contract:
// at least one rate entry exists and the contract header has not passed its
// end date.
func (s *Session) ContractActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rates) == 0 {
		return false
	}
	if s.customer.ContractEndDate == nil {
		return true
	}
	return !s.customer.ContractEndDate.Before(dateOnly(s.now()))
}

// AddItem appends a line for material with the given quantity, pricing it
// through the resolver. Adding a material twice is rejected; use SetQuantity.
func (s *Session) AddItem(material model.Material, quantity float64) (model.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, exists := s.findLocked(material.ID); exists {
		return model.LineItem{}, fmt.Errorf("%w: material already on order", ErrDuplicateLine)
	}

	s.materials[material.ID] = material
	result := s.resolveLocked(material.ID)
	item := model.LineItem{
		MaterialID:   material.ID,
		MaterialName: material.Name,
		Unit:         material.Unit,
		Quantity:     quantity,
		Rate:         result.EffectiveRate,
		Amount:       quantity * result.EffectiveRate,
	}
	s.items = append(s.items, item)
	s.noteContractWarning(material, result)
	return item, nil
}

// RemoveItem drops a line. A pending override for that line is discarded.
func (s *Session) RemoveItem(materialID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	idx, ok := s.findLocked(materialID)
	if !ok {
		return ErrLineNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if s.pending != nil && s.pending.MaterialID == materialID {
		s.pending = nil
	}
	s.dropWarningFor(materialID)
	return nil
}

// SetQuantity changes a line's quantity and recomputes its amount. When no
// override has been approved for the line, the rate is re-resolved as well so
// a contract that expired mid-session stops applying.
func (s *Session) SetQuantity(materialID uuid.UUID, quantity float64) (model.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	idx, ok := s.findLocked(materialID)
	if !ok {
		return model.LineItem{}, ErrLineNotFound
	}

	item := &s.items[idx]
	item.Quantity = quantity
	if _, overridden := s.overrides[materialID]; !overridden {
		if material, known := s.materials[materialID]; known {
			result := s.resolveLocked(materialID)
			item.Rate = result.EffectiveRate
			s.noteContractWarning(material, result)
		}
	}
	item.Amount = item.Quantity * item.Rate
	return *item, nil
}

// EditRate applies a direct edit of a line's unit price. On an unlocked line
// (no active contract entry, or an override already approved) the edit takes
// effect immediately. On a locked line an edit that deviates from the
// effective rate by more than Epsilon is not applied; instead a pending
// override request is opened and returned alongside ErrRateLocked. While any
// request is pending, further locked edits are rejected with
// ErrOverridePending rather than replacing it.
func (s *Session) EditRate(materialID uuid.UUID, requested float64) (model.LineItem, *model.PendingOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	idx, ok := s.findLocked(materialID)
	if !ok {
		return model.LineItem{}, nil, ErrLineNotFound
	}
	item := &s.items[idx]

	if !s.lockedLocked(materialID) {
		item.Rate = requested
		item.Amount = item.Quantity * item.Rate
		return *item, nil, nil
	}

	result := s.resolveLocked(materialID)
	if RatesEqual(requested, result.EffectiveRate) {
		// Within tolerance of the contract price: not an override.
		item.Rate = result.EffectiveRate
		item.Amount = item.Quantity * item.Rate
		return *item, nil, nil
	}

	if s.pending != nil {
		return *item, nil, ErrOverridePending
	}
	s.pending = &model.PendingOverride{
		MaterialID:    materialID,
		ContractRate:  result.EffectiveRate,
		RequestedRate: requested,
	}
	return *item, s.pending, ErrRateLocked
}

// Resolve returns the resolver result for one of the session's materials.
func (s *Session) Resolve(materialID uuid.UUID) (Result, model.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[materialID]
	if !ok {
		return Result{}, model.Material{}, ErrLineNotFound
	}
	return s.resolveLocked(materialID), material, nil
}

// Pending returns the open override request, if any.
func (s *Session) Pending() *model.PendingOverride {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	copied := *s.pending
	return &copied
}

// Items returns a copy of the current order lines.
func (s *Session) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LineItem(nil), s.items...)
}

// Overrides returns the overrides approved so far in this session.
func (s *Session) Overrides() []model.OverrideRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]model.OverrideRecord, 0, len(s.overrides))
	for _, item := range s.items {
		if record, ok := s.overrides[item.MaterialID]; ok {
			records = append(records, record)
		}
	}
	return records
}

// Warnings returns the live warning log, oldest first.
func (s *Session) Warnings() []model.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Warning(nil), s.warnings...)
}

func (s *Session) touch() {
	s.lastUsed = s.now()
}

// LastActive is the time of the session's most recent mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) findLocked(materialID uuid.UUID) (int, bool) {
	for i := range s.items {
		if s.items[i].MaterialID == materialID {
			return i, true
		}
	}
	return 0, false
}

// lockedLocked reports whether direct rate edits on the material are gated
// behind override approval: an active contract entry exists and no override
// has been recorded yet.
func (s *Session) lockedLocked(materialID uuid.UUID) bool {
	entry, ok := s.rates[materialID]
	if !ok {
		return false
	}
	if !entry.ActiveOn(dateOnly(s.now())) {
		return false
	}
	_, overridden := s.overrides[materialID]
	return !overridden
}

func (s *Session) resolveLocked(materialID uuid.UUID) Result {
	material, ok := s.materials[materialID]
	if !ok {
		return Result{}
	}
	var entry *model.ContractRate
	if rate, found := s.rates[materialID]; found {
		entry = &rate
	}
	return Resolve(&material, entry, s.now())
}

// applyOverrideLocked commits an approved override: record, rate, amount,
// warning. Caller holds the lock and has already validated the approval.
func (s *Session) applyOverrideLocked(reason string, approvedBy uuid.UUID, approvedAt time.Time) (model.LineItem, model.OverrideRecord, error) {
	pending := s.pending
	if pending == nil {
		return model.LineItem{}, model.OverrideRecord{}, ErrNoPendingOverride
	}
	idx, ok := s.findLocked(pending.MaterialID)
	if !ok {
		s.pending = nil
		return model.LineItem{}, model.OverrideRecord{}, ErrLineNotFound
	}

	record := model.OverrideRecord{
		MaterialID:   pending.MaterialID,
		OriginalRate: pending.ContractRate,
		OverrideRate: pending.RequestedRate,
		Reason:       reason,
		ApprovedBy:   approvedBy,
		ApprovedAt:   approvedAt,
	}
	s.overrides[pending.MaterialID] = record

	item := &s.items[idx]
	item.Rate = pending.RequestedRate
	item.Amount = item.Quantity * item.Rate
	s.pending = nil

	s.upsertWarning(model.Warning{
		Type:       model.WarningRateOverrideApplied,
		MaterialID: &record.MaterialID,
		Message: fmt.Sprintf("rate override applied to %s: %.2f -> %.2f (%s)",
			item.MaterialName, record.OriginalRate, record.OverrideRate, reason),
	})
	return *item, record, nil
}

func (s *Session) cancelOverrideLocked() {
	s.pending = nil
}

// noteContractWarning records the contract-rate warning for a material,
// replacing any earlier warning for it. Only resolutions where the contract
// actually moved the price off the standard one produce a warning.
func (s *Session) noteContractWarning(material model.Material, result Result) {
	if !result.IsContractRate || RatesEqual(result.EffectiveRate, material.StandardPrice) {
		s.dropWarningFor(material.ID)
		return
	}
	warning := model.Warning{
		Type:       model.WarningContractRateApplied,
		MaterialID: &material.ID,
		Message: fmt.Sprintf("contract rate %.2f applied to %s (standard %.2f)",
			result.EffectiveRate, material.Name, material.StandardPrice),
	}
	if result.Savings < 0 {
		warning.Type = model.WarningContractRateAboveMarket
		warning.Message = fmt.Sprintf("contract rate %.2f for %s is above standard price %.2f",
			result.EffectiveRate, material.Name, material.StandardPrice)
	}
	s.upsertWarning(warning)
}

func (s *Session) upsertWarning(warning model.Warning) {
	if warning.MaterialID != nil {
		for i := range s.warnings {
			existing := s.warnings[i].MaterialID
			if existing != nil && *existing == *warning.MaterialID {
				s.warnings[i] = warning
				return
			}
		}
	}
	s.warnings = append(s.warnings, warning)
}

func (s *Session) dropWarningFor(materialID uuid.UUID) {
	for i := range s.warnings {
		existing := s.warnings[i].MaterialID
		if existing != nil && *existing == materialID {
			s.warnings = append(s.warnings[:i], s.warnings[i+1:]...)
			return
		}
	}
}

func (s *Session) checkContractExpiry() {
	end := s.customer.ContractEndDate
	if end == nil {
		return
	}
	now := dateOnly(s.now())
	if end.Before(now) || end.After(now.Add(contractExpiryNotice)) {
		return
	}
	s.upsertWarning(model.Warning{
		Type: model.WarningContractExpiring,
		Message: fmt.Sprintf("contract with %s ends %s, renewal pending",
			s.customer.Name, end.Format("2006-01-02")),
	})
}
