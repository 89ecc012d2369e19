// Package mocks provides gomock implementations of the core repository ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockJobRepository(ctrl)
//	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Create, GetByID, ListRecent, Transition, ClaimNextPending, DeleteFinishedBefore
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/clipsyelt-svg/Project/internal/core JobRepository

// Create, ListByJob
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=clip_repository_mock.go github.com/clipsyelt-svg/Project/internal/core ClipRepository

// Get, SetIfNotExists, Increment, TTL, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/clipsyelt-svg/Project/internal/core CacheRepository
