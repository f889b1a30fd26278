package app

import (
	"fmt"
	"sync"

	authRepository "github.com/allisson/actiongate/internal/auth/repository"
	authService "github.com/allisson/actiongate/internal/auth/service"
	authUseCase "github.com/allisson/actiongate/internal/auth/usecase"
)

// authComponents holds the lazily initialized auth module dependencies.
type authComponents struct {
	tokenService       authService.TokenService
	identityRepository authUseCase.IdentityRepository
	credentialRepo     authUseCase.CredentialRepository
	tokenUseCase       authUseCase.TokenUseCase
	identityUseCase    authUseCase.IdentityUseCase

	tokenServiceInit    sync.Once
	identityRepoInit    sync.Once
	credentialRepoInit  sync.Once
	tokenUseCaseInit    sync.Once
	identityUseCaseInit sync.Once
}

// TokenService returns the token generation and hashing service.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// IdentityRepository returns the identity repository based on database driver.
func (c *Container) IdentityRepository() (authUseCase.IdentityRepository, error) {
	c.identityRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["identityRepository"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.identityRepository = authRepository.NewMySQLIdentityRepository(db)
		case "postgres":
			c.identityRepository = authRepository.NewPostgreSQLIdentityRepository(db)
		default:
			c.initErrors["identityRepository"] = fmt.Errorf(
				"unsupported database driver: %s",
				c.config.DBDriver,
			)
		}
	})
	if storedErr, exists := c.initErrors["identityRepository"]; exists {
		return nil, storedErr
	}
	return c.identityRepository, nil
}

// CredentialRepository returns the credential repository based on database driver.
func (c *Container) CredentialRepository() (authUseCase.CredentialRepository, error) {
	c.credentialRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["credentialRepository"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.credentialRepo = authRepository.NewMySQLCredentialRepository(db)
		case "postgres":
			c.credentialRepo = authRepository.NewPostgreSQLCredentialRepository(db)
		default:
			c.initErrors["credentialRepository"] = fmt.Errorf(
				"unsupported database driver: %s",
				c.config.DBDriver,
			)
		}
	})
	if storedErr, exists := c.initErrors["credentialRepository"]; exists {
		return nil, storedErr
	}
	return c.credentialRepo, nil
}

// TokenUseCase returns the credential lifecycle use case, instrumented with
// business metrics.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	c.tokenUseCaseInit.Do(func() {
		identityRepo, err := c.IdentityRepository()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		credentialRepo, err := c.CredentialRepository()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
			return
		}

		useCase := authUseCase.NewTokenUseCase(
			c.config,
			identityRepo,
			credentialRepo,
			c.TokenService(),
			txManager,
			c.Logger(),
		)
		c.tokenUseCase = authUseCase.NewTokenUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// IdentityUseCase returns the identity management use case, instrumented with
// business metrics.
func (c *Container) IdentityUseCase() (authUseCase.IdentityUseCase, error) {
	c.identityUseCaseInit.Do(func() {
		identityRepo, err := c.IdentityRepository()
		if err != nil {
			c.initErrors["identityUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["identityUseCase"] = err
			return
		}

		useCase := authUseCase.NewIdentityUseCase(identityRepo)
		c.identityUseCase = authUseCase.NewIdentityUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["identityUseCase"]; exists {
		return nil, storedErr
	}
	return c.identityUseCase, nil
}
