package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nursan/oiltrade-rates/internal/model"
)

const testSecret = "test-approval-secret"

func signAccessToken(secret string, userID, orgID uuid.UUID, role model.Role) (string, error) {
	claims := accessClaims{
		UserID: userID.String(),
		OrgID:  orgID.String(),
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func TestApprovalTokenVerifier_AcceptsManagerToken(t *testing.T) {
	manager := uuid.New()
	token, err := SignApprovalToken(testSecret, manager, model.RoleManager, time.Minute)
	if err != nil {
		t.Fatalf("SignApprovalToken: %v", err)
	}

	verifier := NewApprovalTokenVerifier(testSecret)
	approver, err := verifier.VerifyApproval(token)
	if err != nil {
		t.Fatalf("VerifyApproval: %v", err)
	}
	if approver != manager {
		t.Errorf("expected approver %s, got %s", manager, approver)
	}
}

func TestApprovalTokenVerifier_Rejections(t *testing.T) {
	manager := uuid.New()
	verifier := NewApprovalTokenVerifier(testSecret)

	salesToken, err := SignApprovalToken(testSecret, manager, model.RoleSales, time.Minute)
	if err != nil {
		t.Fatalf("SignApprovalToken: %v", err)
	}
	wrongSecret, err := SignApprovalToken("another-secret", manager, model.RoleManager, time.Minute)
	if err != nil {
		t.Fatalf("SignApprovalToken: %v", err)
	}
	expired, err := SignApprovalToken(testSecret, manager, model.RoleManager, -time.Minute)
	if err != nil {
		t.Fatalf("SignApprovalToken: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"sales role", salesToken},
		{"wrong secret", wrongSecret},
		{"expired", expired},
		{"garbage", "not-a-token"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := verifier.VerifyApproval(tc.token); err == nil {
				t.Error("expected rejection")
			}
		})
	}
}

func TestParser_RoundTrip(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	token, err := signAccessToken(testSecret, userID, orgID, model.RoleSales)
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}

	principal, err := NewParser(testSecret).Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if principal.UserID != userID || principal.OrgID != orgID || principal.Role != model.RoleSales {
		t.Errorf("unexpected principal: %+v", principal)
	}
	if !principal.CanEdit() {
		t.Error("sales principal must be allowed to edit")
	}
}
