package service

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"ai-shopflow-be/internal/dto"
	"ai-shopflow-be/internal/entity"
	"ai-shopflow-be/internal/pkg/serverutils"
	"ai-shopflow-be/internal/repository/contract"
	"ai-shopflow-be/pkg/flow"
	"ai-shopflow-be/pkg/store"
)

type ISessionService interface {
	GetSession(ctx context.Context, sessionID string) (*dto.SessionSummaryResponse, error)
	GetArchive(ctx context.Context, sessionID string) (*dto.ArchiveResponse, error)
	RecentArchives(ctx context.Context, userID string, limit int) ([]dto.ArchiveResponse, error)
}

// SessionService is the read-only inspection surface. Live sessions come from
// the session store; terminal ones fall back to the archive.
type SessionService struct {
	sessions flow.SessionStore
	archives contract.SessionArchiveRepository
}

var _ ISessionService = &SessionService{}

func NewSessionService(sessions flow.SessionStore, archives contract.SessionArchiveRepository) *SessionService {
	return &SessionService{sessions: sessions, archives: archives}
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*dto.SessionSummaryResponse, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err == nil {
		return sessionSummary(session), nil
	}
	if err != store.ErrSessionNotFound {
		return nil, serverutils.NewAppError(fiber.StatusServiceUnavailable, "Session store unavailable", err)
	}
	return nil, serverutils.NewAppError(fiber.StatusNotFound, "Session not found or expired", err)
}

func (s *SessionService) GetArchive(ctx context.Context, sessionID string) (*dto.ArchiveResponse, error) {
	if s.archives == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotImplemented, "Archival storage is not configured", nil)
	}
	archive, err := s.archives.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusServiceUnavailable, "Archive lookup failed", err)
	}
	if archive == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "No archive for this session", nil)
	}
	response := archiveResponse(archive)
	return &response, nil
}

func (s *SessionService) RecentArchives(ctx context.Context, userID string, limit int) ([]dto.ArchiveResponse, error) {
	if s.archives == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotImplemented, "Archival storage is not configured", nil)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	archives, err := s.archives.FindRecentByUserID(ctx, userID, limit)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusServiceUnavailable, "Archive lookup failed", err)
	}

	responses := make([]dto.ArchiveResponse, 0, len(archives))
	for _, archive := range archives {
		responses = append(responses, archiveResponse(archive))
	}
	return responses, nil
}

func sessionSummary(session *store.Session) *dto.SessionSummaryResponse {
	resultCount := 0
	if session.SearchResults != nil {
		resultCount = len(session.SearchResults.Products)
	}
	return &dto.SessionSummaryResponse{
		SessionID:          session.ID,
		UserID:             session.UserID,
		Stage:              string(session.Stage),
		ClarificationCount: session.ClarificationCount,
		RequirementSpec:    session.RequirementSpec,
		ResultCount:        resultCount,
		FinalResponse:      session.FinalResponse,
		LastError:          session.LastError,
		CreatedAt:          session.CreatedAt,
		UpdatedAt:          session.UpdatedAt,
		ExpiresAt:          session.ExpiresAt,
	}
}

func archiveResponse(archive *entity.SessionArchive) dto.ArchiveResponse {
	return dto.ArchiveResponse{
		SessionID:          archive.SessionId,
		UserID:             archive.UserId,
		Stage:              string(archive.Stage),
		RequirementSpec:    archive.RequirementSpec,
		RankedResults:      archive.RankedResults,
		FinalResponse:      archive.FinalResponse,
		LastError:          archive.LastError,
		ClarificationCount: archive.ClarificationCount,
		NodeTrace:          archive.NodeTrace,
		SessionCreatedAt:   archive.SessionCreatedAt,
		ArchivedAt:         archive.ArchivedAt,
	}
}
