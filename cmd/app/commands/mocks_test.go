package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/actiongate/internal/auth/domain"
)

type mockIdentityUseCase struct {
	mock.Mock
}

func (m *mockIdentityUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateIdentityInput,
) (*authDomain.Identity, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Identity), args.Error(1)
}

func (m *mockIdentityUseCase) Get(
	ctx context.Context,
	identityID uuid.UUID,
) (*authDomain.Identity, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Identity), args.Error(1)
}

type mockTokenUseCase struct {
	mock.Mock
}

func (m *mockTokenUseCase) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.IssueTokenOutput), args.Error(1)
}

func (m *mockTokenUseCase) Validate(
	ctx context.Context,
	plainToken string,
) (*authDomain.Caller, error) {
	args := m.Called(ctx, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Caller), args.Error(1)
}

func (m *mockTokenUseCase) Revoke(ctx context.Context, plainToken string) error {
	args := m.Called(ctx, plainToken)
	return args.Error(0)
}

func (m *mockTokenUseCase) RevokeAll(ctx context.Context, identityID uuid.UUID) (int64, error) {
	args := m.Called(ctx, identityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenUseCase) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
