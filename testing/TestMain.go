// Package testing forces test mode for packages that import it.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MERIDIAN_TEST_MODE") == "" {
			_ = os.Setenv("MERIDIAN_TEST_MODE", "1")
		}
	})
}
