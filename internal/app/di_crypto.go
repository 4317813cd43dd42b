package app

import (
	"context"
	"fmt"

	auditDomain "github.com/allisson/secpolicy/internal/audit/domain"
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
	cryptoUseCase "github.com/allisson/secpolicy/internal/crypto/usecase"
	kdfDomain "github.com/allisson/secpolicy/internal/kdf/domain"
	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterSecret returns the plaintext master secret, unwrapped through the KMS when KMS_KEY_URI is set.
func (c *Container) MasterSecret() (*cryptoDomain.MasterSecret, error) {
	var err error
	c.masterSecretInit.Do(func() {
		c.masterSecret, err = c.initMasterSecret()
		if err != nil {
			c.initErrors["masterSecret"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterSecret"]; exists {
		return nil, storedErr
	}
	return c.masterSecret, nil
}

// KeyDeriver returns the PBKDF2 data-key deriver.
func (c *Container) KeyDeriver() (kdfService.KeyDeriver, error) {
	var err error
	c.keyDeriverInit.Do(func() {
		c.keyDeriver, err = kdfService.NewPbkdf2Deriver(c.pbkdf2Params())
		if err != nil {
			c.initErrors["keyDeriver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyDeriver"]; exists {
		return nil, storedErr
	}
	return c.keyDeriver, nil
}

// PasswordHasher returns the Argon2id password hasher.
func (c *Container) PasswordHasher() (kdfService.PasswordHasher, error) {
	var err error
	c.passwordHasherInit.Do(func() {
		c.passwordHasher, err = kdfService.NewArgon2idHasher(c.argon2Params())
		if err != nil {
			c.initErrors["passwordHasher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["passwordHasher"]; exists {
		return nil, storedErr
	}
	return c.passwordHasher, nil
}

// KeyManager returns the initialized key manager.
func (c *Container) KeyManager() (cryptoUseCase.KeyManager, error) {
	var err error
	c.keyManagerInit.Do(func() {
		c.keyManager, err = c.initKeyManager()
		if err != nil {
			c.initErrors["keyManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// Cipher returns the authenticated field cipher.
func (c *Container) Cipher() (cryptoUseCase.Cipher, error) {
	var err error
	c.cipherInit.Do(func() {
		c.cipher, err = c.initCipher()
		if err != nil {
			c.initErrors["cipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cipher"]; exists {
		return nil, storedErr
	}
	return c.cipher, nil
}

func (c *Container) pbkdf2Params() kdfDomain.Pbkdf2Params {
	return kdfDomain.Pbkdf2Params{
		Iterations:    c.config.KDFIterations,
		MinIterations: c.config.KDFMinIterations,
	}
}

func (c *Container) argon2Params() kdfDomain.Argon2Params {
	params := kdfDomain.DefaultArgon2Params()
	//nolint:gosec // bounded by config validation
	params.MemoryKiB = uint32(c.config.Argon2MemoryKiB)
	//nolint:gosec // bounded by config validation
	params.TimeCost = uint32(c.config.Argon2TimeCost)
	//nolint:gosec // bounded by config validation
	params.Parallelism = uint8(c.config.Argon2Parallelism)
	return params
}

// initMasterSecret loads the master secret with KMS support.
func (c *Container) initMasterSecret() (*cryptoDomain.MasterSecret, error) {
	secret, err := cryptoService.LoadMasterSecret(
		context.Background(),
		c.KMSService(),
		c.config.MasterSecret,
		c.config.KMSKeyURI,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load master secret: %w", err)
	}
	return secret, nil
}

// initKeyManager creates the key manager, derives the seed key and registers the rotation event hook.
func (c *Container) initKeyManager() (cryptoUseCase.KeyManager, error) {
	logger := c.Logger()

	secret, err := c.MasterSecret()
	if err != nil {
		return nil, err
	}

	deriver, err := c.KeyDeriver()
	if err != nil {
		return nil, fmt.Errorf("failed to create key deriver: %w", err)
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for key manager: %w", err)
	}

	keyManager := cryptoUseCase.NewKeyManager(
		cryptoUseCase.KeyManagerConfig{
			Salt:             []byte(c.config.KDFSalt),
			RotationInterval: c.config.KeyRotationInterval,
			Overlap:          c.config.KeyOverlap,
			PurgeInterval:    c.config.KeyPurgeInterval,
			ExportEnabled:    c.config.KeyExportEnabled,
		},
		secret,
		cryptoService.NewKeyFactory(deriver),
		cryptoService.NewAEADManager(),
		logger,
		cryptoUseCase.WithRotationHook(func(_ context.Context, previous, current cryptoDomain.KeyInfo) {
			dispatcher.Emit(auditDomain.NewSecurityEvent(
				auditDomain.EventKeyRotated,
				auditDomain.Subject{},
				map[string]any{
					"previous_key_id":  previous.ID.String(),
					"previous_version": previous.Version,
					"key_id":           current.ID.String(),
					"version":          current.Version,
				},
			))
		}),
	)

	if err := keyManager.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for key manager: %w", err)
		}
		return cryptoUseCase.NewKeyManagerWithMetrics(keyManager, businessMetrics), nil
	}

	return keyManager, nil
}

// initCipher creates the AES-256-GCM cipher over the key manager.
func (c *Container) initCipher() (cryptoUseCase.Cipher, error) {
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for cipher: %w", err)
	}

	baseCipher := cryptoUseCase.NewCipher(keyManager)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for cipher: %w", err)
		}
		return cryptoUseCase.NewCipherWithMetrics(baseCipher, businessMetrics), nil
	}

	return baseCipher, nil
}
