package infra

import (
	"fmt"

	"github.com/casbin/casbin/v2"
)

// NewEnforcer membangun enforcer tanpa adapter; policy diisi per company
// oleh rbac.Service dari database.
func NewEnforcer(modelPath string) (*casbin.Enforcer, error) {
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load rbac model %s: %w", modelPath, err)
	}
	return enforcer, nil
}
