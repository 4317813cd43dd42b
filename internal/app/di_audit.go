package app

import (
	"fmt"

	auditRepository "github.com/allisson/secpolicy/internal/audit/repository"
	auditService "github.com/allisson/secpolicy/internal/audit/service"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	"github.com/allisson/secpolicy/internal/config"
)

// SecurityEventRepository returns the security event repository based on database driver.
func (c *Container) SecurityEventRepository() (auditUseCase.SecurityEventRepository, error) {
	var err error
	c.securityEventRepoInit.Do(func() {
		c.securityEventRepo, err = c.initSecurityEventRepository()
		if err != nil {
			c.initErrors["securityEventRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["securityEventRepo"]; exists {
		return nil, storedErr
	}
	return c.securityEventRepo, nil
}

// EventSigner returns the security event signer, or nil when signing is disabled.
func (c *Container) EventSigner() (auditService.EventSigner, error) {
	var err error
	c.eventSignerInit.Do(func() {
		c.eventSigner, err = c.initEventSigner()
		if err != nil {
			c.initErrors["eventSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventSigner"]; exists {
		return nil, storedErr
	}
	return c.eventSigner, nil
}

// Dispatcher returns the asynchronous security event dispatcher.
func (c *Container) Dispatcher() (auditUseCase.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = c.initDispatcher()
		if err != nil {
			c.initErrors["dispatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// SecurityEventUseCase returns the use case over stored security events.
func (c *Container) SecurityEventUseCase() (auditUseCase.SecurityEventUseCase, error) {
	var err error
	c.securityEventUseCaseInit.Do(func() {
		c.securityEventUseCase, err = c.initSecurityEventUseCase()
		if err != nil {
			c.initErrors["securityEventUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["securityEventUseCase"]; exists {
		return nil, storedErr
	}
	return c.securityEventUseCase, nil
}

// initSecurityEventRepository creates the repository matching DB_DRIVER.
func (c *Container) initSecurityEventRepository() (auditUseCase.SecurityEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for security event repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLSecurityEventRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLSecurityEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initEventSigner derives the signing key from the master secret.
func (c *Container) initEventSigner() (auditService.EventSigner, error) {
	if !c.config.AuditSigningEnabled {
		return nil, nil
	}

	secret, err := c.MasterSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to get master secret for event signer: %w", err)
	}

	signer, err := auditService.NewEventSigner(secret.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create event signer: %w", err)
	}
	return signer, nil
}

// initDispatcher starts the dispatcher writing to the configured sink.
func (c *Container) initDispatcher() (auditUseCase.Dispatcher, error) {
	logger := c.Logger()

	var sink auditUseCase.Sink
	switch c.config.AuditSink {
	case config.AuditSinkDatabase:
		repo, err := c.SecurityEventRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get security event repository for dispatcher: %w", err)
		}
		sink = auditUseCase.NewRepositorySink(repo)
	default:
		sink = auditUseCase.NewLogSink(logger)
	}

	signer, err := c.EventSigner()
	if err != nil {
		return nil, err
	}

	return auditUseCase.NewDispatcher(sink, signer, c.config.AuditBufferSize, logger), nil
}

// initSecurityEventUseCase creates the use case for listing, cleaning and verifying stored events.
func (c *Container) initSecurityEventUseCase() (auditUseCase.SecurityEventUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for security event use case: %w", err)
	}

	repo, err := c.SecurityEventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get security event repository for security event use case: %w", err)
	}

	signer, err := c.EventSigner()
	if err != nil {
		return nil, err
	}

	return auditUseCase.NewSecurityEventUseCase(txManager, repo, signer), nil
}
