package service

import (
	"context"
	"sync"

	"ai-shopflow-be/internal/dto"
)

// HealthChecker is implemented by the collaborator clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// ConnectionCounter is implemented by the websocket hub.
type ConnectionCounter interface {
	ActiveConnections() int
}

type IHealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// HealthService assembles the liveness surface: connection load plus one
// health probe per collaborator, run concurrently.
type HealthService struct {
	connections   ConnectionCounter
	collaborators map[string]HealthChecker
}

var _ IHealthService = &HealthService{}

func NewHealthService(connections ConnectionCounter, collaborators map[string]HealthChecker) *HealthService {
	return &HealthService{
		connections:   connections,
		collaborators: collaborators,
	}
}

func (s *HealthService) Check(ctx context.Context) dto.HealthResponse {
	response := dto.HealthResponse{
		Status:        "ok",
		Collaborators: make(map[string]bool, len(s.collaborators)),
	}
	if s.connections != nil {
		response.ActiveConnections = s.connections.ActiveConnections()
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, checker := range s.collaborators {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			healthy := checker.HealthCheck(ctx)
			mu.Lock()
			response.Collaborators[name] = healthy
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	for _, healthy := range response.Collaborators {
		if !healthy {
			response.Status = "degraded"
			break
		}
	}
	return response
}
