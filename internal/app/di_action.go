package app

import (
	"fmt"
	"sync"

	"github.com/allisson/actiongate/internal/action"
	"github.com/allisson/actiongate/internal/action/handlers"
)

// actionComponents holds the lazily initialized action module dependencies.
type actionComponents struct {
	actionRegistry *action.Registry

	actionRegistryInit sync.Once
}

// ActionRegistry returns the action registry with all built-in handlers registered.
func (c *Container) ActionRegistry() (*action.Registry, error) {
	c.actionRegistryInit.Do(func() {
		identityUseCase, err := c.IdentityUseCase()
		if err != nil {
			c.initErrors["actionRegistry"] = err
			return
		}
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			c.initErrors["actionRegistry"] = err
			return
		}

		registry := action.NewRegistry()
		if err := handlers.Discover(registry, handlers.Deps{
			Registry:        registry,
			IdentityUseCase: identityUseCase,
			TokenUseCase:    tokenUseCase,
		}); err != nil {
			c.initErrors["actionRegistry"] = fmt.Errorf("failed to register built-in actions: %w", err)
			return
		}
		c.actionRegistry = registry
	})
	if storedErr, exists := c.initErrors["actionRegistry"]; exists {
		return nil, storedErr
	}
	return c.actionRegistry, nil
}
