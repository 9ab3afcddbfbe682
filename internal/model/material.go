package model

import "github.com/google/uuid"

type Material struct {
	ID            uuid.UUID
	Code          string
	Name          string
	StandardPrice float64
	Unit          string
}
