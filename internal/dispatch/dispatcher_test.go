package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/actiongate/internal/action"
	"github.com/allisson/actiongate/internal/audit"
	authDomain "github.com/allisson/actiongate/internal/auth/domain"
	authService "github.com/allisson/actiongate/internal/auth/service"
	authUsecase "github.com/allisson/actiongate/internal/auth/usecase"
	"github.com/allisson/actiongate/internal/config"
	"github.com/allisson/actiongate/internal/dispatch/dto"
	permissionDomain "github.com/allisson/actiongate/internal/permission/domain"
	permissionUsecase "github.com/allisson/actiongate/internal/permission/usecase"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// In-memory repositories back the full pipeline without a database.

type memIdentityRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*authDomain.Identity
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{items: make(map[uuid.UUID]*authDomain.Identity)}
}

func (m *memIdentityRepo) Create(_ context.Context, identity *authDomain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *identity
	m.items[identity.ID] = &copied
	return nil
}

func (m *memIdentityRepo) Get(_ context.Context, identityID uuid.UUID) (*authDomain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.items[identityID]
	if !ok {
		return nil, authDomain.ErrIdentityNotFound
	}
	copied := *identity
	return &copied, nil
}

func (m *memIdentityRepo) Update(_ context.Context, identity *authDomain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[identity.ID]; !ok {
		return authDomain.ErrIdentityNotFound
	}
	copied := *identity
	m.items[identity.ID] = &copied
	return nil
}

type memCredentialRepo struct {
	mu     sync.Mutex
	byHash map[string]*authDomain.Credential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{byHash: make(map[string]*authDomain.Credential)}
}

func (m *memCredentialRepo) Create(_ context.Context, credential *authDomain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *credential
	m.byHash[credential.TokenHash] = &copied
	return nil
}

func (m *memCredentialRepo) GetByTokenHash(
	_ context.Context,
	tokenHash string,
) (*authDomain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	credential, ok := m.byHash[tokenHash]
	if !ok {
		return nil, authDomain.ErrCredentialNotFound
	}
	copied := *credential
	return &copied, nil
}

func (m *memCredentialRepo) Touch(_ context.Context, credentialID uuid.UUID, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, credential := range m.byHash {
		if credential.ID == credentialID {
			used := usedAt
			credential.LastUsedAt = &used
		}
	}
	return nil
}

func (m *memCredentialRepo) Revoke(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if credential, ok := m.byHash[tokenHash]; ok {
		credential.IsActive = false
	}
	return nil
}

func (m *memCredentialRepo) RevokeAllByIdentity(
	_ context.Context,
	identityID uuid.UUID,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, credential := range m.byHash {
		if credential.IdentityID == identityID && credential.IsActive {
			credential.IsActive = false
			count++
		}
	}
	return count, nil
}

func (m *memCredentialRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, credential := range m.byHash {
		if credential.IsActive && credential.IsExpired(now) {
			credential.IsActive = false
			count++
		}
	}
	return count, nil
}

func (m *memCredentialRepo) lastUsedAt(credentialID uuid.UUID) *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, credential := range m.byHash {
		if credential.ID == credentialID {
			return credential.LastUsedAt
		}
	}
	return nil
}

type memOverrideRepo struct {
	mu    sync.Mutex
	items map[string]*permissionDomain.Override
}

func newMemOverrideRepo() *memOverrideRepo {
	return &memOverrideRepo{items: make(map[string]*permissionDomain.Override)}
}

func (m *memOverrideRepo) Upsert(_ context.Context, override *permissionDomain.Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *override
	m.items[override.ActionKey] = &copied
	return nil
}

func (m *memOverrideRepo) GetByActionKey(
	_ context.Context,
	actionKey string,
) (*permissionDomain.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	override, ok := m.items[actionKey]
	if !ok {
		return nil, permissionDomain.ErrOverrideNotFound
	}
	copied := *override
	return &copied, nil
}

func (m *memOverrideRepo) Delete(_ context.Context, actionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[actionKey]; !ok {
		return permissionDomain.ErrOverrideNotFound
	}
	delete(m.items, actionKey)
	return nil
}

type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// guardedHandler is a test action requiring a fixed permission set.
type guardedHandler struct {
	permissions []string
}

func (h *guardedHandler) Execute(_ context.Context, request *action.Request) (map[string]any, error) {
	return map[string]any{"executed": request.Key}, nil
}

func (h *guardedHandler) RequiredPermissions() []string {
	return h.permissions
}

func (h *guardedHandler) Documentation() action.Documentation {
	return action.Documentation{Name: "Guarded", Description: "test action"}
}

func (h *guardedHandler) Version() string {
	return "1.0.0"
}

type fixture struct {
	dispatcher   *Dispatcher
	tokens       authUsecase.TokenUseCase
	identities   authUsecase.IdentityUseCase
	registry     *action.Registry
	overrideRepo *memOverrideRepo
	credentials  *memCredentialRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	identityRepo := newMemIdentityRepo()
	credentialRepo := newMemCredentialRepo()
	overrideRepo := newMemOverrideRepo()

	tokens := authUsecase.NewTokenUseCase(
		&config.Config{},
		identityRepo,
		credentialRepo,
		authService.NewTokenService(),
		noTx{},
		logger,
	)
	identities := authUsecase.NewIdentityUseCase(identityRepo)
	auditor := audit.NewNoOpAuditor()
	checker := permissionUsecase.NewPermissionChecker(overrideRepo, auditor, logger)

	registry := action.NewRegistry()
	require.NoError(t, registry.Register("user.read_profile", func() action.Handler {
		return &guardedHandler{permissions: []string{"user.read"}}
	}))
	require.NoError(t, registry.Register("admin.report", func() action.Handler {
		return &guardedHandler{permissions: []string{"admin.write"}}
	}))
	require.NoError(t, registry.Register("open.action", func() action.Handler {
		return &guardedHandler{}
	}))

	dispatcher := NewDispatcher(tokens, checker, registry, auditor, nil, logger)

	return &fixture{
		dispatcher:   dispatcher,
		tokens:       tokens,
		identities:   identities,
		registry:     registry,
		overrideRepo: overrideRepo,
		credentials:  credentialRepo,
	}
}

func (f *fixture) issueToken(
	t *testing.T,
	basePermissions []string,
	scope []string,
	expiresAt *time.Time,
) (string, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	identity, err := f.identities.Create(ctx, &authDomain.CreateIdentityInput{
		Name:            "test-identity",
		BasePermissions: basePermissions,
		IsActive:        true,
	})
	require.NoError(t, err)

	output, err := f.tokens.Issue(ctx, &authDomain.IssueTokenInput{
		IdentityID: identity.ID,
		Label:      "test-credential",
		Scope:      scope,
		ExpiresAt:  expiresAt,
	})
	require.NoError(t, err)
	return output.PlainToken, output.CredentialID
}

func (f *fixture) dispatch(method, token, actionType string) (int, any) {
	body, _ := json.Marshal(map[string]any{"action_type": actionType})
	authorization := ""
	if token != "" {
		authorization = "Bearer " + token
	}
	return f.dispatcher.Dispatch(context.Background(), &Input{
		Method:        method,
		Authorization: authorization,
		Body:          body,
		RequestID:     "test-request",
	})
}

func errorEnvelope(t *testing.T, body any) *dto.ErrorEnvelope {
	t.Helper()
	envelope, ok := body.(*dto.ErrorEnvelope)
	require.True(t, ok, "expected error envelope, got %T", body)
	return envelope
}

func TestDispatcher_Success(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issueToken(t, []string{"user.read"}, nil, nil)

	status, body := f.dispatch(http.MethodPost, token, "user.read_profile")
	require.Equal(t, http.StatusOK, status)

	envelope, ok := body.(*dto.SuccessEnvelope)
	require.True(t, ok)
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "user.read_profile", envelope.Data["executed"])
	assert.NotEmpty(t, envelope.Timestamp)
}

func TestDispatcher_MethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	status, body := f.dispatch(http.MethodGet, "", "user.read_profile")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, dto.ErrorKindMethodNotAllowed, errorEnvelope(t, body).ErrorCode)
}

func TestDispatcher_ShapeValidation(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issueToken(t, []string{"user.read"}, nil, nil)

	t.Run("malformed body", func(t *testing.T) {
		status, body := f.dispatcher.Dispatch(context.Background(), &Input{
			Method:        http.MethodPost,
			Authorization: "Bearer " + token,
			Body:          []byte("not json"),
			RequestID:     "test-request",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		envelope := errorEnvelope(t, body)
		assert.Equal(t, dto.ErrorKindValidationError, envelope.ErrorCode)
		assert.Equal(t, "test-request", envelope.RequestID)
	})

	t.Run("missing action_type", func(t *testing.T) {
		status, body := f.dispatcher.Dispatch(context.Background(), &Input{
			Method:        http.MethodPost,
			Authorization: "Bearer " + token,
			Body:          []byte(`{"other": 1}`),
			RequestID:     "test-request",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		envelope := errorEnvelope(t, body)
		assert.Equal(t, dto.ErrorKindValidationError, envelope.ErrorCode)
		assert.Contains(t, envelope.Details, "action_type")
	})

	t.Run("invalid characters", func(t *testing.T) {
		status, body := f.dispatch(http.MethodPost, token, "user profile!")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, dto.ErrorKindValidationError, errorEnvelope(t, body).ErrorCode)
	})

	// Validation runs before authentication: the envelope shape gives no
	// hint about credential validity.
	t.Run("validation precedes authentication", func(t *testing.T) {
		status, body := f.dispatch(http.MethodPost, "bad-token", "bad key!")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, dto.ErrorKindValidationError, errorEnvelope(t, body).ErrorCode)
	})
}

func TestDispatcher_Unauthorized(t *testing.T) {
	f := newFixture(t)

	t.Run("missing credentials", func(t *testing.T) {
		status, body := f.dispatch(http.MethodPost, "", "user.read_profile")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, dto.ErrorKindUnauthorized, errorEnvelope(t, body).ErrorCode)
	})

	t.Run("unknown token", func(t *testing.T) {
		status, body := f.dispatch(http.MethodPost, "unknown-token", "user.read_profile")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, dto.MessageUnauthorized, errorEnvelope(t, body).Message)
	})

	t.Run("expired token uses the same message as unknown", func(t *testing.T) {
		past := time.Now().UTC().Add(-time.Hour)
		token, _ := f.issueToken(t, []string{"user.read"}, nil, &past)

		status, body := f.dispatch(http.MethodPost, token, "user.read_profile")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, dto.MessageUnauthorized, errorEnvelope(t, body).Message)
	})

	t.Run("revoked token", func(t *testing.T) {
		token, _ := f.issueToken(t, []string{"user.read"}, nil, nil)
		require.NoError(t, f.tokens.Revoke(context.Background(), token))
		require.NoError(t, f.tokens.Revoke(context.Background(), token)) // idempotent

		status, _ := f.dispatch(http.MethodPost, token, "user.read_profile")
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestDispatcher_ActionNotFound(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issueToken(t, []string{"user.read", "admin.write"}, nil, nil)

	t.Run("unknown action", func(t *testing.T) {
		status, body := f.dispatch(http.MethodPost, token, "no.such.action")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, dto.ErrorKindActionNotFound, errorEnvelope(t, body).ErrorCode)
	})

	t.Run("disabled action indistinguishable from unknown", func(t *testing.T) {
		require.NoError(t, f.registry.SetEnabled("user.read_profile", false))
		defer func() {
			require.NoError(t, f.registry.SetEnabled("user.read_profile", true))
		}()

		status, body := f.dispatch(http.MethodPost, token, "user.read_profile")
		assert.Equal(t, http.StatusNotFound, status)
		envelope := errorEnvelope(t, body)
		assert.Equal(t, dto.ErrorKindActionNotFound, envelope.ErrorCode)
		assert.Equal(t, dto.MessageActionNotFound, envelope.Message)
	})
}

func TestDispatcher_InsufficientPermissions(t *testing.T) {
	f := newFixture(t)

	t.Run("missing declared permission", func(t *testing.T) {
		token, _ := f.issueToken(t, []string{"user.read"}, nil, nil)

		status, body := f.dispatch(http.MethodPost, token, "admin.report")
		assert.Equal(t, http.StatusForbidden, status)
		envelope := errorEnvelope(t, body)
		assert.Equal(t, dto.ErrorKindInsufficientPermissions, envelope.ErrorCode)
		// Missing permissions are audited, never in the response body.
		assert.Nil(t, envelope.Details)
		assert.NotContains(t, envelope.Message, "admin.write")
	})

	t.Run("scope cannot exceed the identity base set", func(t *testing.T) {
		token, _ := f.issueToken(t, []string{"user.read"}, []string{"user.read", "admin.write"}, nil)

		status, _ := f.dispatch(http.MethodPost, token, "admin.report")
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("empty requirement allows any authenticated caller", func(t *testing.T) {
		token, _ := f.issueToken(t, nil, nil, nil)

		status, _ := f.dispatch(http.MethodPost, token, "open.action")
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestDispatcher_OverrideSupersedesDeclared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, _ := f.issueToken(t, []string{"user.read"}, nil, nil)

	// Tighten user.read_profile to require admin.write via an override.
	require.NoError(t, f.overrideRepo.Upsert(ctx, &permissionDomain.Override{
		ID:          uuid.Must(uuid.NewV7()),
		ActionKey:   "user.read_profile",
		Permissions: []string{"admin.write"},
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}))

	status, _ := f.dispatch(http.MethodPost, token, "user.read_profile")
	assert.Equal(t, http.StatusForbidden, status)

	// Deactivating the override reverts to the declared default on the
	// next check.
	require.NoError(t, f.overrideRepo.Upsert(ctx, &permissionDomain.Override{
		ID:          uuid.Must(uuid.NewV7()),
		ActionKey:   "user.read_profile",
		Permissions: []string{"admin.write"},
		IsActive:    false,
		CreatedAt:   time.Now().UTC(),
	}))

	status, _ = f.dispatch(http.MethodPost, token, "user.read_profile")
	assert.Equal(t, http.StatusOK, status)
}

func TestDispatcher_ConcurrentValidation(t *testing.T) {
	f := newFixture(t)
	token, credentialID := f.issueToken(t, []string{"user.read"}, nil, nil)
	before := time.Now().UTC()

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, _ := f.dispatch(http.MethodPost, token, "user.read_profile")
			results[i] = status
		}(i)
	}
	wg.Wait()

	for _, status := range results {
		assert.Equal(t, http.StatusOK, status)
	}

	lastUsed := f.credentials.lastUsedAt(credentialID)
	require.NotNil(t, lastUsed)
	assert.False(t, lastUsed.Before(before))
}

func TestDispatcher_InternalErrorStaysGeneric(t *testing.T) {
	f := newFixture(t)
	token, _ := f.issueToken(t, []string{"user.read"}, nil, nil)

	require.NoError(t, f.registry.Register("failing.action", func() action.Handler {
		return &failingHandler{}
	}))

	status, body := f.dispatch(http.MethodPost, token, "failing.action")
	assert.Equal(t, http.StatusInternalServerError, status)
	envelope := errorEnvelope(t, body)
	assert.Equal(t, dto.ErrorKindInternalError, envelope.ErrorCode)
	assert.Equal(t, dto.MessageInternalError, envelope.Message)
	assert.NotContains(t, envelope.Message, "pq:")
}

type failingHandler struct{}

func (h *failingHandler) Execute(_ context.Context, _ *action.Request) (map[string]any, error) {
	return nil, assert.AnError
}

func (h *failingHandler) RequiredPermissions() []string {
	return nil
}

func (h *failingHandler) Documentation() action.Documentation {
	return action.Documentation{Name: "Failing", Description: "always fails"}
}

func (h *failingHandler) Version() string {
	return "1.0.0"
}
