// Package testing is blank-imported by test packages that build real
// collaborators. It flags test mode and points the storefront API at an
// address nothing listens on, so no test reaches a live backend by accident.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var bootstrap sync.Once

// defaults apply only where the environment leaves a key unset.
var defaults = map[string]string{
	"CATALOG_API_URL": "http://127.0.0.1:0",
	"SESSION_SECRET":  "test-session-secret",
	"CSRF_SECRET":     "test-csrf-secret",
}

func setup() {
	bootstrap.Do(func() {
		_ = os.Setenv("STOREFRONT_TEST_MODE", "1")
		for key, value := range defaults {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	setup()
}

// TestMain runs m after the bootstrap; packages may delegate to it.
func TestMain(m *stdtesting.M) {
	setup()
	os.Exit(m.Run())
}
