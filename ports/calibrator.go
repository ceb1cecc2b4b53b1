package ports

import (
	"context"

	"calengine/domain/calibration"
	"calengine/domain/certificate"
)

// Calibrator is the engine façade collaborators call, one subject per
// invocation. Invocations are independent and safe to fan out concurrently.
type Calibrator interface {
	Calibrate(ctx context.Context, subject calibration.Subject) (certificate.Certificate, error)
	Verify(cert certificate.Certificate) (bool, error)
}
