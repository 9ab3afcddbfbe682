package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nursan/oiltrade-rates/internal/model"
)

// approvalScope is the scope claim an approval token must carry. Plain access
// tokens do not have it, so they cannot be replayed as override approvals.
const approvalScope = "rate_override_approval"

type approvalClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// ApprovalTokenVerifier implements rates.ApprovalVerifier over short-lived
// manager-signed JWTs. The override dialog obtains the token from the auth
// service after the manager re-authenticates; this service only checks the
// signature, scope, and role.
type ApprovalTokenVerifier struct {
	secret []byte
}

func NewApprovalTokenVerifier(secret string) *ApprovalTokenVerifier {
	return &ApprovalTokenVerifier{secret: []byte(secret)}
}

func (v *ApprovalTokenVerifier) VerifyApproval(credential string) (uuid.UUID, error) {
	claims := &approvalClaims{}
	parsed, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, fmt.Errorf("invalid approval token")
	}
	if claims.Scope != approvalScope {
		return uuid.Nil, fmt.Errorf("token is not an approval token")
	}
	if model.Role(claims.Role) != model.RoleManager {
		return uuid.Nil, fmt.Errorf("approval requires manager role")
	}

	approver, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id claim: %w", err)
	}
	return approver, nil
}

// SignApprovalToken issues an approval token. Used by tests and by the
// companion auth service; the rates service itself only verifies.
func SignApprovalToken(secret string, userID uuid.UUID, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := approvalClaims{
		UserID: userID.String(),
		Role:   string(role),
		Scope:  approvalScope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
