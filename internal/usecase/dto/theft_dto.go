package dto

import "github.com/theft-heatmap/internal/domain"

// ListTheftsRequest - параметры выборки точек
type ListTheftsRequest struct {
	Limit int `query:"limit" validate:"min=1,max=50000"`
}

// TheftListResponse - ответ /api/v1/thefts
type TheftListResponse struct {
	Thefts []domain.TheftPoint `json:"thefts"`
}

// HealthResponse - ответ health check
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadinessResponse - ответ readiness check с состоянием зависимостей
type ReadinessResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks"`
}
