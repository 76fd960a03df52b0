package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medicenter_backend/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// SubjectFromContext returns the authenticated user as a casbin subject.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	id, ok := reqctx.UserIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return "", ErrNoSubjectInContext
	}
	return GroupSubject(id.String()), nil
}

// DomainFor returns center:<id> for a non-empty center id and sys otherwise.
func DomainFor(centerID string) Domain {
	if centerID == "" {
		return DomainSys
	}
	return CenterDomain(centerID)
}
