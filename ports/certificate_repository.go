package ports

import (
	"context"

	"calengine/domain/certificate"
	"calengine/domain/core"
)

// CertificateRepository persists sealed certificates. Persistence belongs to
// collaborators; the engine only emits.
type CertificateRepository interface {
	Save(ctx context.Context, cert certificate.Certificate) error
	GetByInstance(ctx context.Context, id core.InstanceID) (*certificate.Certificate, error)
	ListByMethod(ctx context.Context, method core.MethodID, limit int) ([]certificate.Certificate, error)
}
