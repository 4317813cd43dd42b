package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
)

// KeyManagerConfig holds the key lifecycle settings.
type KeyManagerConfig struct {
	// Salt is the PBKDF2 salt for the seed key.
	Salt []byte
	// RotationInterval is the time between automatic rotations.
	RotationInterval time.Duration
	// Overlap is how long a retired key stays decrypt-capable.
	Overlap time.Duration
	// PurgeInterval is how often expired keys are purged by the timer.
	PurgeInterval time.Duration
	// ExportEnabled allows Export and Import.
	ExportEnabled bool
}

// RotationHook is called after every successful rotation or promotion.
type RotationHook func(ctx context.Context, previous, current cryptoDomain.KeyInfo)

// KeyManagerOption configures optional KeyManager behavior.
type KeyManagerOption func(*keyManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) KeyManagerOption {
	return func(m *keyManager) {
		m.now = now
	}
}

// WithRotationHook registers a hook invoked after rotations.
func WithRotationHook(hook RotationHook) KeyManagerOption {
	return func(m *keyManager) {
		m.hooks = append(m.hooks, hook)
	}
}

// keyState is one published snapshot: the ring plus a cipher per retained key.
type keyState struct {
	ring    *cryptoDomain.KeyRing
	ciphers map[uuid.UUID]cryptoService.AEAD
}

// keyManager implements KeyManager with an atomically published key ring.
type keyManager struct {
	config      KeyManagerConfig
	secret      *cryptoDomain.MasterSecret
	factory     cryptoService.KeyFactory
	aeadManager cryptoService.AEADManager
	logger      *slog.Logger
	now         func() time.Time
	hooks       []RotationHook

	state atomic.Pointer[keyState]

	// mu serializes writers. Readers only load state.
	mu     sync.Mutex
	closed bool

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewKeyManager creates a KeyManager. Init must be called before the manager serves keys.
func NewKeyManager(
	config KeyManagerConfig,
	secret *cryptoDomain.MasterSecret,
	factory cryptoService.KeyFactory,
	aeadManager cryptoService.AEADManager,
	logger *slog.Logger,
	opts ...KeyManagerOption,
) KeyManager {
	m := &keyManager{
		config:      config,
		secret:      secret,
		factory:     factory,
		aeadManager: aeadManager,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init derives the seed key and publishes the first ring.
func (m *keyManager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return cryptoDomain.ErrNoActiveKey
	}
	if m.state.Load() != nil {
		return nil
	}

	seed, err := m.factory.DeriveSeedKey(m.secret, m.config.Salt)
	if err != nil {
		return fmt.Errorf("failed to derive seed key: %w", err)
	}

	aead, err := m.aeadManager.CreateCipher(seed.Material, cryptoDomain.AESGCM)
	if err != nil {
		cryptoDomain.Zero(seed.Material)
		return err
	}

	m.state.Store(&keyState{
		ring:    cryptoDomain.NewKeyRing(seed, m.now().UTC()),
		ciphers: map[uuid.UUID]cryptoService.AEAD{seed.ID: aead},
	})

	m.logger.Info("key manager initialized",
		slog.String("key_id", seed.ID.String()),
		slog.Uint64("version", uint64(seed.Version)),
	)
	return nil
}

// GenerateKey creates a pending key and adds it to the ring.
func (m *keyManager) GenerateKey(ctx context.Context) (*cryptoDomain.KeyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.writableState()
	if err != nil {
		return nil, err
	}

	key, aead, err := m.generate(state.ring.NextVersion())
	if err != nil {
		return nil, err
	}

	ring, err := state.ring.WithKey(key.Pending())
	if err != nil {
		cryptoDomain.Zero(key.Material)
		return nil, err
	}

	m.state.Store(&keyState{ring: ring, ciphers: withCipher(state.ciphers, key.ID, aead)})

	info := key.Pending().Info()
	return &info, nil
}

// Promote makes a pending key current.
func (m *keyManager) Promote(ctx context.Context, id uuid.UUID) (*cryptoDomain.KeyInfo, error) {
	m.mu.Lock()
	previous, current, err := m.promoteLocked(id)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.notifyRotation(ctx, previous, current)
	return &current, nil
}

// Rotate generates a key, promotes it and purges expired keys.
func (m *keyManager) Rotate(ctx context.Context) (*cryptoDomain.KeyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	state, err := m.writableState()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	key, aead, err := m.generate(state.ring.NextVersion())
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	previousKey, _ := state.ring.Current()
	previous := previousKey.Info()

	now := m.now().UTC()
	ring := state.ring.WithRotated(key, now, m.config.Overlap)
	ciphers := withCipher(state.ciphers, key.ID, aead)
	ring, expired := ring.WithoutExpired(now)
	ciphers = withoutCiphers(ciphers, expired)

	m.state.Store(&keyState{ring: ring, ciphers: ciphers})
	m.mu.Unlock()

	destroyKeys(expired)

	current, _ := ring.Current()
	currentInfo := current.Info()

	m.logger.Info("key rotated",
		slog.String("previous_key_id", previous.ID.String()),
		slog.String("key_id", currentInfo.ID.String()),
		slog.Uint64("version", uint64(currentInfo.Version)),
		slog.Int("purged", len(expired)),
	)

	m.notifyRotation(ctx, previous, currentInfo)
	return &currentInfo, nil
}

// Current returns the current key metadata.
func (m *keyManager) Current(ctx context.Context) (*cryptoDomain.KeyInfo, error) {
	state := m.state.Load()
	if state == nil {
		return nil, cryptoDomain.ErrNoActiveKey
	}

	key, ok := state.ring.Current()
	if !ok {
		return nil, cryptoDomain.ErrNoActiveKey
	}

	info := key.Info()
	return &info, nil
}

// Get returns metadata of a decrypt-capable key.
func (m *keyManager) Get(ctx context.Context, id uuid.UUID) (*cryptoDomain.KeyInfo, error) {
	state := m.state.Load()
	if state == nil {
		return nil, cryptoDomain.ErrKeyNotFound
	}

	key, ok := state.ring.Get(id, m.now().UTC())
	if !ok {
		return nil, cryptoDomain.ErrKeyNotFound
	}

	info := key.Info()
	return &info, nil
}

// List returns metadata of every retained key.
func (m *keyManager) List(ctx context.Context) ([]cryptoDomain.KeyInfo, error) {
	state := m.state.Load()
	if state == nil {
		return nil, cryptoDomain.ErrNoActiveKey
	}

	keys := state.ring.Keys()
	infos := make([]cryptoDomain.KeyInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, key.Info())
	}
	return infos, nil
}

// CurrentCipher returns the current key id and its AEAD.
func (m *keyManager) CurrentCipher(ctx context.Context) (uuid.UUID, cryptoService.AEAD, error) {
	state := m.state.Load()
	if state == nil {
		return uuid.Nil, nil, cryptoDomain.ErrNoActiveKey
	}

	key, ok := state.ring.Current()
	if !ok {
		return uuid.Nil, nil, cryptoDomain.ErrNoActiveKey
	}

	aead, ok := state.ciphers[key.ID]
	if !ok {
		return uuid.Nil, nil, cryptoDomain.ErrNoActiveKey
	}
	return key.ID, aead, nil
}

// CipherFor returns the AEAD of a decrypt-capable key.
func (m *keyManager) CipherFor(ctx context.Context, id uuid.UUID) (cryptoService.AEAD, error) {
	state := m.state.Load()
	if state == nil {
		return nil, cryptoDomain.ErrKeyNotFound
	}

	if _, ok := state.ring.Get(id, m.now().UTC()); !ok {
		return nil, cryptoDomain.ErrKeyNotFound
	}

	aead, ok := state.ciphers[id]
	if !ok {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	return aead, nil
}

// PurgeExpired removes expired retired keys.
func (m *keyManager) PurgeExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	state, err := m.writableState()
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}

	ring, expired := state.ring.WithoutExpired(m.now().UTC())
	if len(expired) > 0 {
		m.state.Store(&keyState{ring: ring, ciphers: withoutCiphers(state.ciphers, expired)})
	}
	m.mu.Unlock()

	for _, key := range expired {
		m.logger.Info("key purged",
			slog.String("key_id", key.ID.String()),
			slog.Uint64("version", uint64(key.Version)),
		)
	}
	destroyKeys(expired)

	return len(expired), nil
}

// Export copies every retained key, material included.
func (m *keyManager) Export(ctx context.Context) (*cryptoDomain.KeyExport, error) {
	if !m.config.ExportEnabled {
		return nil, cryptoDomain.ErrKeyExportDisabled
	}

	// Material is only read under the writer lock so a concurrent purge cannot zero it mid-copy.
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.writableState()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	current, _ := state.ring.Current()

	export := &cryptoDomain.KeyExport{
		Sensitive:    true,
		Algorithm:    cryptoDomain.AESGCM,
		ExportedAt:   now,
		CurrentKeyID: current.ID.String(),
	}
	for _, key := range state.ring.Keys() {
		if key.Expired(now) {
			continue
		}
		export.Keys = append(export.Keys, cryptoDomain.NewExportedKey(key))
	}

	m.logger.Warn("keys exported", slog.Int("count", len(export.Keys)))
	return export, nil
}

// Import adds the keys of an export document.
//
// Keys already retained with identical material are skipped. Expired retired keys are
// skipped. When the exported current key is newer than the local current key it becomes
// current; otherwise it is kept as a retired key for the overlap window.
func (m *keyManager) Import(ctx context.Context, export *cryptoDomain.KeyExport) (int, error) {
	if !m.config.ExportEnabled {
		return 0, cryptoDomain.ErrKeyExportDisabled
	}
	if export == nil || export.Algorithm != cryptoDomain.AESGCM {
		return 0, cryptoDomain.ErrInvalidKeyExport
	}

	keys := make([]*cryptoDomain.EncryptionKey, 0, len(export.Keys))
	defer func() {
		// Anything not adopted into the ring is wiped.
		for _, key := range keys {
			if key != nil {
				cryptoDomain.Zero(key.Material)
			}
		}
	}()
	for _, exported := range export.Keys {
		key, err := exported.ToEncryptionKey()
		if err != nil {
			return 0, err
		}
		keys = append(keys, key)
	}

	m.mu.Lock()
	state, err := m.writableState()
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}

	now := m.now().UTC()
	ring := state.ring
	ciphers := state.ciphers
	copied := false
	imported := 0
	var promote *cryptoDomain.EncryptionKey

	localCurrent, _ := ring.Current()
	currentVersion := localCurrent.Version

	for i, key := range keys {
		if ring.Contains(key.ID) {
			existing, ok := ring.Get(key.ID, now)
			if ok && subtle.ConstantTimeCompare(existing.Material, key.Material) != 1 {
				m.mu.Unlock()
				return 0, cryptoDomain.ErrDuplicateKey
			}
			continue
		}
		if key.Expired(now) {
			continue
		}

		aead, err := m.aeadManager.CreateCipher(key.Material, cryptoDomain.AESGCM)
		if err != nil {
			m.mu.Unlock()
			return 0, err
		}

		staged := key
		switch {
		case promote == nil && key.ID.String() == export.CurrentKeyID && key.Version > currentVersion:
			promote = key
			staged = key.Pending()
		case key.Status == cryptoDomain.KeyStatusActive:
			staged = key.Retired(now, m.config.Overlap)
		case key.Status == cryptoDomain.KeyStatusRetired && key.ExpiresAt == nil:
			// A retired key must always expire.
			staged = key.Retired(now, m.config.Overlap)
		}

		ring, err = ring.WithKey(staged)
		if err != nil {
			m.mu.Unlock()
			return 0, err
		}
		if !copied {
			ciphers = withCipher(ciphers, key.ID, aead)
			copied = true
		} else {
			ciphers[key.ID] = aead
		}
		keys[i] = nil
		imported++
	}

	var previous cryptoDomain.KeyInfo
	if promote != nil {
		previousKey, _ := ring.Current()
		previous = previousKey.Info()
		ring, err = ring.WithPromoted(promote.ID, now, m.config.Overlap)
		if err != nil {
			m.mu.Unlock()
			return 0, err
		}
	}

	m.state.Store(&keyState{ring: ring, ciphers: ciphers})
	m.mu.Unlock()

	m.logger.Warn("keys imported", slog.Int("count", imported))

	if promote != nil {
		current, _ := ring.Current()
		m.notifyRotation(ctx, previous, current.Info())
	}
	return imported, nil
}

// Stats summarizes the ring.
func (m *keyManager) Stats(ctx context.Context) (*cryptoDomain.KeyStats, error) {
	state := m.state.Load()
	if state == nil {
		return nil, cryptoDomain.ErrNoActiveKey
	}

	current, ok := state.ring.Current()
	if !ok {
		return nil, cryptoDomain.ErrNoActiveKey
	}

	stats := &cryptoDomain.KeyStats{
		CurrentKeyID:   current.ID,
		CurrentVersion: current.Version,
		LastRotation:   state.ring.LastRotation(),
	}

	now := m.now().UTC()
	for _, key := range state.ring.Keys() {
		switch {
		case key.Status == cryptoDomain.KeyStatusPending:
			stats.PendingKeys++
		case key.IsActive():
			stats.ActiveKeys++
		case !key.Expired(now):
			stats.RetiredKeys++
		}
	}

	if m.running() {
		next := stats.LastRotation.Add(m.config.RotationInterval)
		stats.NextRotation = &next
	}
	return stats, nil
}

// Start launches the background rotation and purge timer.
func (m *keyManager) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(runCtx, m.done)
}

// Stop halts the timer and waits for an in-flight rotation.
func (m *keyManager) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done == nil {
		return
	}

	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

// Close stops the timer and zeroes all material.
func (m *keyManager) Close() {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	state := m.state.Swap(nil)
	if state != nil {
		destroyKeys(state.ring.Keys())
	}
}

func (m *keyManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.logger.Info("starting key rotation timer",
		slog.Duration("rotation_interval", m.config.RotationInterval),
		slog.Duration("purge_interval", m.config.PurgeInterval),
	)

	rotation := time.NewTicker(m.config.RotationInterval)
	defer rotation.Stop()
	purge := time.NewTicker(m.config.PurgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping key rotation timer")
			return
		case <-rotation.C:
			if ctx.Err() != nil {
				return
			}
			if _, err := m.Rotate(ctx); err != nil {
				m.logger.Error("failed to rotate key", slog.Any("error", err))
			}
		case <-purge.C:
			if ctx.Err() != nil {
				return
			}
			if _, err := m.PurgeExpired(ctx); err != nil {
				m.logger.Error("failed to purge expired keys", slog.Any("error", err))
			}
		}
	}
}

func (m *keyManager) running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.done != nil
}

// writableState must be called with mu held.
func (m *keyManager) writableState() (*keyState, error) {
	if m.closed {
		return nil, cryptoDomain.ErrNoActiveKey
	}
	state := m.state.Load()
	if state == nil {
		return nil, cryptoDomain.ErrNoActiveKey
	}
	return state, nil
}

func (m *keyManager) promoteLocked(id uuid.UUID) (cryptoDomain.KeyInfo, cryptoDomain.KeyInfo, error) {
	state, err := m.writableState()
	if err != nil {
		return cryptoDomain.KeyInfo{}, cryptoDomain.KeyInfo{}, err
	}

	previousKey, _ := state.ring.Current()
	ring, err := state.ring.WithPromoted(id, m.now().UTC(), m.config.Overlap)
	if err != nil {
		return cryptoDomain.KeyInfo{}, cryptoDomain.KeyInfo{}, err
	}

	m.state.Store(&keyState{ring: ring, ciphers: state.ciphers})

	current, _ := ring.Current()
	return previousKey.Info(), current.Info(), nil
}

func (m *keyManager) generate(version uint) (*cryptoDomain.EncryptionKey, cryptoService.AEAD, error) {
	key, err := m.factory.GenerateKey(version)
	if err != nil {
		return nil, nil, err
	}

	aead, err := m.aeadManager.CreateCipher(key.Material, cryptoDomain.AESGCM)
	if err != nil {
		cryptoDomain.Zero(key.Material)
		return nil, nil, err
	}
	return key, aead, nil
}

func (m *keyManager) notifyRotation(ctx context.Context, previous, current cryptoDomain.KeyInfo) {
	for _, hook := range m.hooks {
		hook(ctx, previous, current)
	}
}

func withCipher(
	ciphers map[uuid.UUID]cryptoService.AEAD,
	id uuid.UUID,
	aead cryptoService.AEAD,
) map[uuid.UUID]cryptoService.AEAD {
	next := make(map[uuid.UUID]cryptoService.AEAD, len(ciphers)+1)
	for k, v := range ciphers {
		next[k] = v
	}
	next[id] = aead
	return next
}

func withoutCiphers(
	ciphers map[uuid.UUID]cryptoService.AEAD,
	removed []*cryptoDomain.EncryptionKey,
) map[uuid.UUID]cryptoService.AEAD {
	if len(removed) == 0 {
		return ciphers
	}
	next := make(map[uuid.UUID]cryptoService.AEAD, len(ciphers))
	for k, v := range ciphers {
		next[k] = v
	}
	for _, key := range removed {
		delete(next, key.ID)
	}
	return next
}

func destroyKeys(keys []*cryptoDomain.EncryptionKey) {
	for _, key := range keys {
		key.Destroy()
	}
}
