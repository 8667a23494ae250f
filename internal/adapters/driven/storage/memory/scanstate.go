package memory

import (
	"context"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// SaveLastScan records the head commit a completed scan reached.
func (s *Store) SaveLastScan(_ context.Context, repositoryID, commitSHA string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanState[repositoryID] = commitSHA
	return nil
}

// LastScan returns the last completed scan commit.
func (s *Store) LastScan(_ context.Context, repositoryID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sha, ok := s.scanState[repositoryID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return sha, nil
}
