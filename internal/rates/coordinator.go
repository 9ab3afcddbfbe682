package rates

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nursan/oiltrade-rates/internal/model"
)

// ApprovalVerifier validates the credential presented with an override
// approval and identifies the approver. The credential is opaque to this
// package; the shipped implementation checks a signed manager token.
type ApprovalVerifier interface {
	VerifyApproval(credential string) (uuid.UUID, error)
}

// Coordinator gates direct edits of contract-locked rates behind an approval
// step. The pending request itself lives on the session; the coordinator owns
// the approval protocol around it.
type Coordinator struct {
	verifier ApprovalVerifier
	now      func() time.Time
}

func NewCoordinator(verifier ApprovalVerifier, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{verifier: verifier, now: now}
}

// Approve resolves the session's pending override request. An empty reason
// or a rejected credential leaves the session untouched so the caller can
// re-prompt. On success the override record is written, the requested rate
// is applied to the line, and its amount recomputed.
func (c *Coordinator) Approve(session *Session, reason, credential string) (model.LineItem, model.OverrideRecord, error) {
	if strings.TrimSpace(reason) == "" {
		return model.LineItem{}, model.OverrideRecord{}, ErrReasonRequired
	}
	approver, err := c.verifier.VerifyApproval(credential)
	if err != nil {
		return model.LineItem{}, model.OverrideRecord{}, ErrInvalidCredential
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch()
	return session.applyOverrideLocked(strings.TrimSpace(reason), approver, c.now())
}

// Cancel discards the session's pending request, if any. The line keeps its
// previous rate; no other state changes.
func (c *Coordinator) Cancel(session *Session) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch()
	session.cancelOverrideLocked()
}
