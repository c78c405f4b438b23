// Package transport defines the request/response DTOs for the pipelines module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreatePipelineRequest struct {
	Name  string `json:"name" binding:"required" validate:"required,min=1,max=120"`
	Notes string `json:"notes" validate:"max=2000"`
}

type StageSpec struct {
	Name        string `json:"name" binding:"required" validate:"required,min=1,max=120"`
	Position    int    `json:"position" validate:"required,gt=0"`
	Probability int    `json:"probability" validate:"gte=0,lte=100"`
}

type CreateStagesRequest struct {
	Stages []StageSpec `json:"stages" binding:"required" validate:"required,min=1,dive"`
}

type StageResponse struct {
	ID          uuid.UUID `json:"id"`
	PipelineID  uuid.UUID `json:"pipelineId"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	Probability int       `json:"probability"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PipelineResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	OwnerID   uuid.UUID       `json:"ownerId"`
	Notes     string          `json:"notes,omitempty"`
	Stages    []StageResponse `json:"stages,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type PipelinesResponse struct {
	Items []PipelineResponse `json:"items"`
}
