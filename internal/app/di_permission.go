package app

import (
	"fmt"
	"sync"

	permissionRepository "github.com/allisson/actiongate/internal/permission/repository"
	permissionUseCase "github.com/allisson/actiongate/internal/permission/usecase"
)

// permissionComponents holds the lazily initialized permission module dependencies.
type permissionComponents struct {
	overrideRepository permissionUseCase.OverrideRepository
	permissionChecker  permissionUseCase.Checker
	overrideUseCase    permissionUseCase.OverrideUseCase

	overrideRepoInit    sync.Once
	checkerInit         sync.Once
	overrideUseCaseInit sync.Once
}

// OverrideRepository returns the permission override repository based on database driver.
func (c *Container) OverrideRepository() (permissionUseCase.OverrideRepository, error) {
	c.overrideRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["overrideRepository"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.overrideRepository = permissionRepository.NewMySQLOverrideRepository(db)
		case "postgres":
			c.overrideRepository = permissionRepository.NewPostgreSQLOverrideRepository(db)
		default:
			c.initErrors["overrideRepository"] = fmt.Errorf(
				"unsupported database driver: %s",
				c.config.DBDriver,
			)
		}
	})
	if storedErr, exists := c.initErrors["overrideRepository"]; exists {
		return nil, storedErr
	}
	return c.overrideRepository, nil
}

// PermissionChecker returns the authorization checker.
func (c *Container) PermissionChecker() (permissionUseCase.Checker, error) {
	c.checkerInit.Do(func() {
		overrideRepo, err := c.OverrideRepository()
		if err != nil {
			c.initErrors["permissionChecker"] = err
			return
		}
		c.permissionChecker = permissionUseCase.NewPermissionChecker(
			overrideRepo,
			c.Auditor(),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["permissionChecker"]; exists {
		return nil, storedErr
	}
	return c.permissionChecker, nil
}

// OverrideUseCase returns the permission override management use case.
func (c *Container) OverrideUseCase() (permissionUseCase.OverrideUseCase, error) {
	c.overrideUseCaseInit.Do(func() {
		overrideRepo, err := c.OverrideRepository()
		if err != nil {
			c.initErrors["overrideUseCase"] = err
			return
		}
		c.overrideUseCase = permissionUseCase.NewOverride(overrideRepo)
	})
	if storedErr, exists := c.initErrors["overrideUseCase"]; exists {
		return nil, storedErr
	}
	return c.overrideUseCase, nil
}
