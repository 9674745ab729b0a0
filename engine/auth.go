package engine

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	initOnce sync.Once
	token    string
	initErr  error
)

// Initialize resolves the engine credential from the named environment
// variable. The lookup runs once per process; every later call returns the
// first result, whatever variable name it is given.
func Initialize(tokenVar string) error {
	initOnce.Do(func() {
		v := strings.TrimSpace(os.Getenv(tokenVar))
		if v == "" {
			initErr = fmt.Errorf("engine credential %s is not set", tokenVar)
			return
		}
		token = v
	})
	return initErr
}

func credential() string {
	return token
}
