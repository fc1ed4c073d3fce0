package memory

import (
	"testing"

	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/storage/storagetest"
)

func TestProviderContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		s := New()
		if err := s.Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		return s
	})
}
