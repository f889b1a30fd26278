package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
)

func TestRunIssueToken(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	identityID := uuid.Must(uuid.NewV7())
	credentialID := uuid.Must(uuid.NewV7())

	t.Run("text output with expiry", func(t *testing.T) {
		mockUseCase := &mockTokenUseCase{}
		expiresAt := time.Now().Add(time.Hour)
		output := &authDomain.IssueTokenOutput{
			CredentialID: credentialID,
			PlainToken:   "plain-token-value",
			ExpiresAt:    &expiresAt,
		}

		mockUseCase.On("Issue", ctx, mock.MatchedBy(func(input *authDomain.IssueTokenInput) bool {
			return input.IdentityID == identityID &&
				input.Label == "ci-deploy" &&
				input.ExpiresAt != nil &&
				time.Until(*input.ExpiresAt) > 59*time.Minute
		})).Return(output, nil)

		var out bytes.Buffer
		err := RunIssueToken(
			ctx,
			mockUseCase,
			logger,
			identityID.String(),
			"ci-deploy",
			"user.read",
			time.Hour,
			"text",
			IOTuple{Writer: &out},
		)

		require.NoError(t, err)
		assert.Contains(t, out.String(), credentialID.String())
		assert.Contains(t, out.String(), "plain-token-value")
		assert.Contains(t, out.String(), "shown only once")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json output without expiry", func(t *testing.T) {
		mockUseCase := &mockTokenUseCase{}
		output := &authDomain.IssueTokenOutput{
			CredentialID: credentialID,
			PlainToken:   "plain-token-value",
		}

		mockUseCase.On("Issue", ctx, mock.MatchedBy(func(input *authDomain.IssueTokenInput) bool {
			return input.ExpiresAt == nil && input.Scope == nil
		})).Return(output, nil)

		var out bytes.Buffer
		err := RunIssueToken(
			ctx,
			mockUseCase,
			logger,
			identityID.String(),
			"ci-deploy",
			"",
			0,
			"json",
			IOTuple{Writer: &out},
		)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "plain-token-value")
		assert.NotContains(t, out.String(), "expires_at")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid identity id", func(t *testing.T) {
		mockUseCase := &mockTokenUseCase{}

		err := RunIssueToken(
			ctx,
			mockUseCase,
			logger,
			"not-a-uuid",
			"ci-deploy",
			"",
			0,
			"text",
			IOTuple{Writer: &bytes.Buffer{}},
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid identity id")
	})
}
