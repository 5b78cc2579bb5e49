package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MURAL_TEST_MODE") == "" {
			_ = os.Setenv("MURAL_TEST_MODE", "1")
		}
	})
}
