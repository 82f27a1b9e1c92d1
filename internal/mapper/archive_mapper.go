package mapper

import (
	"encoding/json"

	"ai-shopflow-be/internal/entity"
	"ai-shopflow-be/internal/model"
	"ai-shopflow-be/pkg/store"
)

type ArchiveMapper struct{}

func NewArchiveMapper() *ArchiveMapper {
	return &ArchiveMapper{}
}

func (m *ArchiveMapper) ToModel(e *entity.SessionArchive) *model.SessionArchive {
	specJSON, _ := json.Marshal(e.RequirementSpec)
	resultsJSON, _ := json.Marshal(e.RankedResults)
	traceJSON, _ := json.Marshal(e.NodeTrace)

	return &model.SessionArchive{
		Id:                 e.Id,
		SessionId:          e.SessionId,
		UserId:             e.UserId,
		Stage:              string(e.Stage),
		RequirementSpec:    specJSON,
		RankedResults:      resultsJSON,
		FinalResponse:      e.FinalResponse,
		LastError:          e.LastError,
		ClarificationCount: e.ClarificationCount,
		NodeTrace:          traceJSON,
		SessionCreatedAt:   e.SessionCreatedAt,
		ArchivedAt:         e.ArchivedAt,
	}
}

func (m *ArchiveMapper) ToEntity(mo *model.SessionArchive) *entity.SessionArchive {
	e := &entity.SessionArchive{
		Id:                 mo.Id,
		SessionId:          mo.SessionId,
		UserId:             mo.UserId,
		Stage:              store.Stage(mo.Stage),
		FinalResponse:      mo.FinalResponse,
		LastError:          mo.LastError,
		ClarificationCount: mo.ClarificationCount,
		SessionCreatedAt:   mo.SessionCreatedAt,
		ArchivedAt:         mo.ArchivedAt,
	}

	if len(mo.RequirementSpec) > 0 {
		var spec store.RequirementSpec
		if err := json.Unmarshal(mo.RequirementSpec, &spec); err == nil && spec.ProductType != "" {
			e.RequirementSpec = &spec
		}
	}
	if len(mo.RankedResults) > 0 {
		_ = json.Unmarshal(mo.RankedResults, &e.RankedResults)
	}
	if len(mo.NodeTrace) > 0 {
		_ = json.Unmarshal(mo.NodeTrace, &e.NodeTrace)
	}

	return e
}
