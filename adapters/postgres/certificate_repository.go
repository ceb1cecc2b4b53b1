// Package postgres persists sealed certificates for downstream auditors.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"calengine/domain/certificate"
	"calengine/domain/core"
	"calengine/ports"
)

// CertificateRepositoryImpl implements CertificateRepository for PostgreSQL.
// The sealed certificate is stored verbatim as JSONB: verification must see
// the exact bytes-equivalent record that was sealed, so nothing is ever
// normalized or re-derived on write.
type CertificateRepositoryImpl struct {
	db *sqlx.DB
}

// NewCertificateRepository creates a new PostgreSQL certificate repository.
func NewCertificateRepository(db *sqlx.DB) ports.CertificateRepository {
	return &CertificateRepositoryImpl{db: db}
}

// Migrate creates the certificates table.
func (r *CertificateRepositoryImpl) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS calibration_certificates (
			instance_id TEXT PRIMARY KEY,
			method TEXT NOT NULL,
			calibration_score DOUBLE PRECISION NOT NULL,
			config_hash TEXT NOT NULL,
			graph_hash TEXT NOT NULL,
			signature TEXT NOT NULL,
			body JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create certificates table: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_certificates_method
		ON calibration_certificates (method, created_at DESC)`)
	if err != nil {
		return fmt.Errorf("failed to create method index: %w", err)
	}
	return nil
}

// Save stores one sealed certificate.
func (r *CertificateRepositoryImpl) Save(ctx context.Context, cert certificate.Certificate) error {
	if cert.AuditTrail.Signature == "" {
		return core.NewValidationError("certificate", "refusing to persist an unsealed certificate")
	}
	body, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("failed to serialize certificate: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calibration_certificates
			(instance_id, method, calibration_score, config_hash, graph_hash, signature, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, cert.InstanceID, cert.Method, cert.CalibrationScore,
		cert.AuditTrail.ConfigHash, cert.AuditTrail.GraphHash,
		cert.AuditTrail.Signature, body)
	return err
}

// GetByInstance retrieves one certificate by its instance id.
func (r *CertificateRepositoryImpl) GetByInstance(ctx context.Context, id core.InstanceID) (*certificate.Certificate, error) {
	var body []byte
	err := r.db.GetContext(ctx, &body, `
		SELECT body FROM calibration_certificates WHERE instance_id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrCertificateNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var cert certificate.Certificate
	if err := json.Unmarshal(body, &cert); err != nil {
		return nil, fmt.Errorf("failed to deserialize certificate %s: %w", id, err)
	}
	return &cert, nil
}

// ListByMethod returns the most recent certificates for a method.
func (r *CertificateRepositoryImpl) ListByMethod(ctx context.Context, method core.MethodID, limit int) ([]certificate.Certificate, error) {
	if limit <= 0 {
		limit = 50
	}
	var bodies [][]byte
	err := r.db.SelectContext(ctx, &bodies, `
		SELECT body FROM calibration_certificates
		WHERE method = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, method, limit)
	if err != nil {
		return nil, err
	}

	certs := make([]certificate.Certificate, 0, len(bodies))
	for _, body := range bodies {
		var cert certificate.Certificate
		if err := json.Unmarshal(body, &cert); err != nil {
			return nil, fmt.Errorf("failed to deserialize certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}
