package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nursan/oiltrade-rates/internal/config"
	"github.com/nursan/oiltrade-rates/internal/model"
	"github.com/nursan/oiltrade-rates/internal/rates"
)

var (
	testNow   = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	managerID = uuid.New()
)

func fixedNow() time.Time { return testNow }

type fakeMaterials struct {
	byID map[uuid.UUID]model.Material
}

func (f *fakeMaterials) GetMaterial(_ context.Context, id uuid.UUID) (*model.Material, error) {
	material, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &material, nil
}

func (f *fakeMaterials) ListMaterials(_ context.Context) ([]model.Material, error) {
	materials := make([]model.Material, 0, len(f.byID))
	for _, material := range f.byID {
		materials = append(materials, material)
	}
	return materials, nil
}

type fakeContracts struct {
	customers map[uuid.UUID]model.Customer
	rates     map[uuid.UUID][]model.ContractRate
}

func (f *fakeContracts) GetCustomer(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &customer, nil
}

func (f *fakeContracts) RatesByCustomer(_ context.Context, customerID uuid.UUID) ([]model.ContractRate, error) {
	return f.rates[customerID], nil
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyApproval(credential string) (uuid.UUID, error) {
	if credential != "manager-token" {
		return uuid.Nil, errors.New("rejected")
	}
	return managerID, nil
}

type fakeGenerator struct{ content []byte }

func (f fakeGenerator) Generate(model.OrderDocument) ([]byte, error) { return f.content, nil }

type fixture struct {
	service  *OrderService
	customer model.Customer
	diesel   model.Material
	petrol   model.Material
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	customer := model.Customer{ID: uuid.New(), Name: "Atyrau Fuel Trade LLP"}
	diesel := model.Material{ID: uuid.New(), Code: "D-95", Name: "Diesel EN 590", StandardPrice: 100, Unit: "L"}
	petrol := model.Material{ID: uuid.New(), Code: "P-92", Name: "Petrol AI-92", StandardPrice: 80, Unit: "L"}
	end := testNow.AddDate(1, 0, 0)

	materials := &fakeMaterials{byID: map[uuid.UUID]model.Material{
		diesel.ID: diesel,
		petrol.ID: petrol,
	}}
	contracts := &fakeContracts{
		customers: map[uuid.UUID]model.Customer{customer.ID: customer},
		rates: map[uuid.UUID][]model.ContractRate{
			customer.ID: {{
				CustomerID: customer.ID,
				MaterialID: diesel.ID,
				Kind:       model.RateKindFixed,
				Rate:       90,
				Status:     model.RateStatusActive,
				EndDate:    &end,
			}},
		},
	}

	cfg := &config.Config{
		Orders: config.OrdersConfig{VATRate: 12, SessionTTL: time.Hour},
	}
	service := NewOrderService(materials, contracts, fakeVerifier{}, fakeGenerator{content: []byte("xlsx")}, fakeGenerator{content: []byte("pdf")}, cfg, fixedNow)

	return &fixture{service: service, customer: customer, diesel: diesel, petrol: petrol}
}

func salesPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleSales}
}

func floatPtr(v float64) *float64 { return &v }

func TestOrderService_OpenSessionAndAddItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, err := f.service.OpenSession(ctx, principal, f.customer.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if !snapshot.ContractActive {
		t.Error("customer with rate entries must report an active contract")
	}

	snapshot, err = f.service.AddItem(ctx, principal, snapshot.SessionID, f.diesel.ID, 50)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].Rate != 90 {
		t.Fatalf("expected contract rate 90 on the line, got %+v", snapshot.Items)
	}
	if got := snapshot.Totals.Net.InexactFloat64(); got != 4500 {
		t.Errorf("expected net total 4500, got %v", got)
	}
	if got := snapshot.Totals.VAT.InexactFloat64(); got != 540 {
		t.Errorf("expected VAT 540 at 12%%, got %v", got)
	}
	if got := snapshot.Totals.Gross.InexactFloat64(); got != 5040 {
		t.Errorf("expected gross 5040, got %v", got)
	}
}

func TestOrderService_ViewerCannotOpenSession(t *testing.T) {
	f := newFixture(t)
	viewer := model.Principal{UserID: uuid.New(), Role: model.RoleViewer}

	if _, err := f.service.OpenSession(context.Background(), viewer, f.customer.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestOrderService_UnknownMaterialRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, err := f.service.OpenSession(ctx, principal, f.customer.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if _, err := f.service.AddItem(ctx, principal, snapshot.SessionID, uuid.New(), 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown material, got %v", err)
	}
}

func TestOrderService_OverrideFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, err := f.service.OpenSession(ctx, principal, f.customer.ID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	sessionID := snapshot.SessionID
	if _, err := f.service.AddItem(ctx, principal, sessionID, f.diesel.ID, 10); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	snapshot, err = f.service.UpdateItem(ctx, principal, sessionID, f.diesel.ID, UpdateItemInput{Rate: floatPtr(95)})
	if !errors.Is(err, rates.ErrRateLocked) {
		t.Fatalf("expected ErrRateLocked, got %v", err)
	}
	if snapshot == nil || snapshot.Pending == nil {
		t.Fatal("expected pending override in snapshot")
	}
	if snapshot.Items[0].Rate != 90 {
		t.Errorf("locked edit must not change the line, got %+v", snapshot.Items[0])
	}

	if _, err := f.service.ApproveOverride(ctx, principal, sessionID, "", "manager-token"); !errors.Is(err, rates.ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if _, err := f.service.ApproveOverride(ctx, principal, sessionID, "spot deal", "wrong"); !errors.Is(err, rates.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}

	snapshot, err = f.service.ApproveOverride(ctx, principal, sessionID, "spot deal", "manager-token")
	if err != nil {
		t.Fatalf("ApproveOverride: %v", err)
	}
	if snapshot.Items[0].Rate != 95 || snapshot.Items[0].Amount != 950 {
		t.Errorf("override not applied: %+v", snapshot.Items[0])
	}
	if len(snapshot.Overrides) != 1 || snapshot.Overrides[0].ApprovedBy != managerID {
		t.Errorf("expected override record approved by manager, got %+v", snapshot.Overrides)
	}

	found := false
	for _, warning := range snapshot.Warnings {
		if warning.Type == model.WarningRateOverrideApplied {
			found = true
		}
	}
	if !found {
		t.Error("expected rate_override_applied warning")
	}
}

func TestOrderService_CancelOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, _ := f.service.OpenSession(ctx, principal, f.customer.ID)
	sessionID := snapshot.SessionID
	if _, err := f.service.AddItem(ctx, principal, sessionID, f.diesel.ID, 10); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := f.service.UpdateItem(ctx, principal, sessionID, f.diesel.ID, UpdateItemInput{Rate: floatPtr(95)}); !errors.Is(err, rates.ErrRateLocked) {
		t.Fatalf("expected ErrRateLocked, got %v", err)
	}

	snapshot, err := f.service.CancelOverride(ctx, principal, sessionID)
	if err != nil {
		t.Fatalf("CancelOverride: %v", err)
	}
	if snapshot.Pending != nil {
		t.Error("cancel must discard the pending request")
	}
	if snapshot.Items[0].Rate != 90 {
		t.Errorf("cancel must leave the contract rate, got %+v", snapshot.Items[0])
	}
}

func TestOrderService_RateDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, _ := f.service.OpenSession(ctx, principal, f.customer.ID)
	if _, err := f.service.AddItem(ctx, principal, snapshot.SessionID, f.diesel.ID, 10); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	details, err := f.service.RateDetails(ctx, principal, snapshot.SessionID, f.diesel.ID)
	if err != nil {
		t.Fatalf("RateDetails: %v", err)
	}
	if !details.Result.IsContractRate || details.Result.EffectiveRate != 90 {
		t.Errorf("unexpected resolver result: %+v", details.Result)
	}
	if details.Explanation == "" {
		t.Error("expected non-empty explanation")
	}
}

func TestOrderService_ExportRequiresLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, _ := f.service.OpenSession(ctx, principal, f.customer.ID)
	if _, err := f.service.ExportRateSheet(ctx, principal, snapshot.SessionID); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("expected ErrEmptyOrder, got %v", err)
	}

	if _, err := f.service.AddItem(ctx, principal, snapshot.SessionID, f.diesel.ID, 10); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	result, err := f.service.ExportRateSheet(ctx, principal, snapshot.SessionID)
	if err != nil {
		t.Fatalf("ExportRateSheet: %v", err)
	}
	if len(result.Content) == 0 || result.FileName == "" {
		t.Errorf("unexpected export result: %+v", result)
	}
}

func TestOrderService_SwitchCustomerResetsContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	other := model.Customer{ID: uuid.New(), Name: "Aktobe Retail LLP"}
	contracts := f.service.contracts.(*fakeContracts)
	contracts.customers[other.ID] = other

	snapshot, _ := f.service.OpenSession(ctx, principal, f.customer.ID)
	sessionID := snapshot.SessionID
	if _, err := f.service.AddItem(ctx, principal, sessionID, f.diesel.ID, 10); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	snapshot, err := f.service.SwitchCustomer(ctx, principal, sessionID, other.ID)
	if err != nil {
		t.Fatalf("SwitchCustomer: %v", err)
	}
	if snapshot.ContractActive {
		t.Error("customer without entries must not report an active contract")
	}
	if snapshot.Items[0].Rate != 100 {
		t.Errorf("line must re-price to standard rate, got %+v", snapshot.Items[0])
	}
}

func TestOrderService_SessionExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	principal := salesPrincipal()

	snapshot, _ := f.service.OpenSession(ctx, principal, f.customer.ID)

	// Shift the store clock past the TTL; next access evicts.
	f.service.store.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	if _, err := f.service.GetSession(ctx, principal, snapshot.SessionID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired session to be gone, got %v", err)
	}
}
