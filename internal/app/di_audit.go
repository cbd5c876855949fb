package app

import (
	"fmt"

	auditHTTP "github.com/allisson/cedms/internal/audit/http"
	auditRepository "github.com/allisson/cedms/internal/audit/repository"
	auditUseCase "github.com/allisson/cedms/internal/audit/usecase"
	"github.com/allisson/cedms/internal/authz"
)

// AuthzEngine returns the role permission engine. PERMISSION_MATRIX_FILE
// replaces the embedded matrix when set.
func (c *Container) AuthzEngine() (*authz.Engine, error) {
	return resolve(c, &c.authzEngineInit, "authzEngine", &c.authzEngine, func() (*authz.Engine, error) {
		var (
			matrix authz.Matrix
			err    error
		)
		if c.config.PermissionMatrixFile != "" {
			matrix, err = authz.LoadMatrix(c.config.PermissionMatrixFile)
		} else {
			matrix, err = authz.DefaultMatrix()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load permission matrix: %w", err)
		}
		return authz.NewEngine(matrix), nil
	})
}

// Ledger returns the hash-chained audit ledger. Every component appends
// through this single instance.
func (c *Container) Ledger() (auditUseCase.Ledger, error) {
	return resolve(c, &c.ledgerInit, "ledger", &c.ledger, func() (auditUseCase.Ledger, error) {
		store, err := c.Store()
		if err != nil {
			return nil, fmt.Errorf("failed to get store for ledger: %w", err)
		}
		securityMetrics, err := c.SecurityMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get security metrics for ledger: %w", err)
		}
		ledger := auditUseCase.NewLedger(auditRepository.NewEntryRepository(store))
		return auditUseCase.NewLedgerWithMetrics(ledger, securityMetrics), nil
	})
}

// AuditLogUseCase returns the administrator operations on the ledger.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	return resolve(c, &c.auditLogUseCaseInit, "auditLogUseCase", &c.auditLogUseCase,
		func() (auditUseCase.AuditLogUseCase, error) {
			ledger, err := c.Ledger()
			if err != nil {
				return nil, err
			}
			engine, err := c.AuthzEngine()
			if err != nil {
				return nil, err
			}
			return auditUseCase.NewAuditLogUseCase(ledger, engine), nil
		})
}

// AuditLogHandler returns the audit log HTTP handler.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	return resolve(c, &c.auditLogHandlerInit, "auditLogHandler", &c.auditLogHandler,
		func() (*auditHTTP.AuditLogHandler, error) {
			useCase, err := c.AuditLogUseCase()
			if err != nil {
				return nil, fmt.Errorf("failed to get audit log use case for handler: %w", err)
			}
			return auditHTTP.NewAuditLogHandler(useCase, c.Logger()), nil
		})
}
