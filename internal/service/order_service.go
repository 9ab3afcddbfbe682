package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nursan/oiltrade-rates/internal/config"
	"github.com/nursan/oiltrade-rates/internal/model"
	"github.com/nursan/oiltrade-rates/internal/rates"
)

// MaterialDirectory is the read-only materials catalog.
type MaterialDirectory interface {
	GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error)
	ListMaterials(ctx context.Context) ([]model.Material, error)
}

// ContractDirectory resolves customers and their contract-rate entries.
type ContractDirectory interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	RatesByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.ContractRate, error)
}

// RateSheetGenerator renders the order as an xlsx workbook.
type RateSheetGenerator interface {
	Generate(doc model.OrderDocument) ([]byte, error)
}

// ConfirmationGenerator renders the order confirmation PDF.
type ConfirmationGenerator interface {
	Generate(doc model.OrderDocument) ([]byte, error)
}

// OrderService owns the order-editing sessions and routes every rate
// mutation through the resolver and the override coordinator.
type OrderService struct {
	materials   MaterialDirectory
	contracts   ContractDirectory
	store       *SessionStore
	coordinator *rates.Coordinator
	sheets      RateSheetGenerator
	pdfs        ConfirmationGenerator
	vatRate     decimal.Decimal
	now         func() time.Time
}

func NewOrderService(
	materials MaterialDirectory,
	contracts ContractDirectory,
	verifier rates.ApprovalVerifier,
	sheets RateSheetGenerator,
	pdfs ConfirmationGenerator,
	cfg *config.Config,
	now func() time.Time,
) *OrderService {
	if now == nil {
		now = time.Now
	}
	return &OrderService{
		materials:   materials,
		contracts:   contracts,
		store:       NewSessionStore(cfg.Orders.SessionTTL, now),
		coordinator: rates.NewCoordinator(verifier, now),
		sheets:      sheets,
		pdfs:        pdfs,
		vatRate:     decimal.NewFromFloat(cfg.Orders.VATRate),
		now:         now,
	}
}

// SessionSnapshot is what the order-editing frontend renders after every call.
type SessionSnapshot struct {
	SessionID      uuid.UUID
	Customer       model.Customer
	ContractActive bool
	Items          []model.LineItem
	Overrides      []model.OverrideRecord
	Warnings       []model.Warning
	Pending        *model.PendingOverride
	Totals         model.OrderTotals
}

// RateExplanation is the resolver result plus its display string.
type RateExplanation struct {
	Result      rates.Result
	Explanation string
}

// ExportResult is a rendered document ready for download.
type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *OrderService) OpenSession(ctx context.Context, principal model.Principal, customerID uuid.UUID) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}

	customer, entries, err := s.loadContractContext(ctx, customerID)
	if err != nil {
		return nil, err
	}

	session := rates.NewSession(uuid.New(), *customer, entries, s.now)
	s.store.Put(session)
	return s.snapshot(session), nil
}

func (s *OrderService) GetSession(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(session), nil
}

func (s *OrderService) CloseSession(ctx context.Context, principal model.Principal, sessionID uuid.UUID) error {
	if !principal.CanEdit() {
		return ErrPermissionDenied
	}
	if _, err := s.session(sessionID); err != nil {
		return err
	}
	s.store.Delete(sessionID)
	return nil
}

// SwitchCustomer re-targets the session at another customer. Overrides,
// warnings, and any pending override are discarded and lines re-priced.
func (s *OrderService) SwitchCustomer(ctx context.Context, principal model.Principal, sessionID, customerID uuid.UUID) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	customer, entries, err := s.loadContractContext(ctx, customerID)
	if err != nil {
		return nil, err
	}
	session.SetCustomer(*customer, entries)
	return s.snapshot(session), nil
}

func (s *OrderService) AddItem(ctx context.Context, principal model.Principal, sessionID, materialID uuid.UUID, quantity float64) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	material, err := s.materials.GetMaterial(ctx, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: material", ErrNotFound)
		}
		return nil, err
	}

	if _, err := session.AddItem(*material, quantity); err != nil {
		return nil, err
	}
	return s.snapshot(session), nil
}

func (s *OrderService) RemoveItem(ctx context.Context, principal model.Principal, sessionID, materialID uuid.UUID) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.RemoveItem(materialID); err != nil {
		return nil, err
	}
	return s.snapshot(session), nil
}

// UpdateItemInput carries a partial line edit; nil fields are untouched.
type UpdateItemInput struct {
	Quantity *float64
	Rate     *float64
}

// UpdateItem applies a line edit. A rate edit on a contract-locked line is
// not applied; the returned error is rates.ErrRateLocked and the snapshot
// carries the pending override request for the approval dialog.
func (s *OrderService) UpdateItem(ctx context.Context, principal model.Principal, sessionID, materialID uuid.UUID, input UpdateItemInput) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	if input.Quantity == nil && input.Rate == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if input.Rate != nil && *input.Rate < 0 {
		return nil, fmt.Errorf("%w: rate must not be negative", ErrInvalidInput)
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if input.Quantity != nil {
		if _, err := session.SetQuantity(materialID, *input.Quantity); err != nil {
			return nil, err
		}
	}
	if input.Rate != nil {
		if _, _, err := session.EditRate(materialID, *input.Rate); err != nil {
			// The quantity part, if any, has been applied; the caller sees
			// the lock with the pending request in the snapshot.
			return s.snapshot(session), err
		}
	}
	return s.snapshot(session), nil
}

func (s *OrderService) ApproveOverride(ctx context.Context, principal model.Principal, sessionID uuid.UUID, reason, credential string) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.coordinator.Approve(session, reason, credential); err != nil {
		return nil, err
	}
	return s.snapshot(session), nil
}

func (s *OrderService) CancelOverride(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*SessionSnapshot, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.coordinator.Cancel(session)
	return s.snapshot(session), nil
}

// Materials lists the catalog for the order form.
func (s *OrderService) Materials(ctx context.Context, principal model.Principal) ([]model.Material, error) {
	return s.materials.ListMaterials(ctx)
}

func (s *OrderService) Warnings(ctx context.Context, principal model.Principal, sessionID uuid.UUID) ([]model.Warning, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Warnings(), nil
}

// RateDetails explains how one line's price was arrived at.
func (s *OrderService) RateDetails(ctx context.Context, principal model.Principal, sessionID, materialID uuid.UUID) (*RateExplanation, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	result, material, err := session.Resolve(materialID)
	if err != nil {
		return nil, err
	}
	return &RateExplanation{
		Result:      result,
		Explanation: rates.Details(&material, result),
	}, nil
}

func (s *OrderService) ExportRateSheet(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*ExportResult, error) {
	doc, err := s.document(principal, sessionID)
	if err != nil {
		return nil, err
	}
	content, err := s.sheets.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(doc, "xlsx"),
		Content:  content,
	}, nil
}

func (s *OrderService) ExportConfirmation(ctx context.Context, principal model.Principal, sessionID uuid.UUID) (*ExportResult, error) {
	doc, err := s.document(principal, sessionID)
	if err != nil {
		return nil, err
	}
	content, err := s.pdfs.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(doc, "pdf"),
		Content:  content,
	}, nil
}

func (s *OrderService) session(id uuid.UUID) (*rates.Session, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}
	session, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	return session, nil
}

func (s *OrderService) loadContractContext(ctx context.Context, customerID uuid.UUID) (*model.Customer, []model.ContractRate, error) {
	customer, err := s.contracts.GetCustomer(ctx, customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: customer", ErrNotFound)
		}
		return nil, nil, err
	}
	entries, err := s.contracts.RatesByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	return customer, entries, nil
}

func (s *OrderService) snapshot(session *rates.Session) *SessionSnapshot {
	items := session.Items()
	return &SessionSnapshot{
		SessionID:      session.ID,
		Customer:       session.Customer(),
		ContractActive: session.ContractActive(),
		Items:          items,
		Overrides:      session.Overrides(),
		Warnings:       session.Warnings(),
		Pending:        session.Pending(),
		Totals:         s.totals(items),
	}
}

// totals computes the money summary in decimal; the float64 line rates are
// only converted once, at the boundary.
func (s *OrderService) totals(items []model.LineItem) model.OrderTotals {
	net := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Rate))
		net = net.Add(line.Round(2))
	}
	vat := net.Mul(s.vatRate).Div(decimal.NewFromInt(100)).Round(2)
	return model.OrderTotals{
		Net:     net,
		VATRate: s.vatRate,
		VAT:     vat,
		Gross:   net.Add(vat),
	}
}

func (s *OrderService) document(principal model.Principal, sessionID uuid.UUID) (*model.OrderDocument, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	items := session.Items()
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	lines := make([]model.OrderLine, 0, len(items))
	for _, item := range items {
		provenance := ""
		if result, material, err := session.Resolve(item.MaterialID); err == nil {
			provenance = rates.Details(&material, result)
		}
		lines = append(lines, model.OrderLine{
			LineItem:   item,
			Amount:     decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Rate)).Round(2),
			Provenance: provenance,
		})
	}

	return &model.OrderDocument{
		SessionID:      session.ID,
		Customer:       session.Customer(),
		ContractActive: session.ContractActive(),
		GeneratedAt:    s.now(),
		Lines:          lines,
		Overrides:      session.Overrides(),
		Warnings:       session.Warnings(),
		Totals:         s.totals(items),
	}, nil
}

func buildFileName(doc *model.OrderDocument, extension string) string {
	customer := sanitizeFileName(doc.Customer.Name)
	if customer == "" {
		customer = doc.Customer.ID.String()
	}
	return fmt.Sprintf("order-%s-%s.%s", customer, doc.GeneratedAt.Format("20060102-150405"), extension)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
