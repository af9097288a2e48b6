package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/theft-heatmap/internal/pkg/errors"
	"github.com/theft-heatmap/internal/pkg/utils"
	"github.com/theft-heatmap/internal/pkg/validator"
	"github.com/theft-heatmap/internal/usecase"
	"github.com/theft-heatmap/internal/usecase/dto"
	"go.uber.org/zap"
)

// TheftHandler - выдача точек для тепловой карты
type TheftHandler struct {
	theftUC *usecase.TheftUseCase
	logger  *zap.Logger
}

// NewTheftHandler - создание нового TheftHandler
func NewTheftHandler(theftUC *usecase.TheftUseCase, logger *zap.Logger) *TheftHandler {
	return &TheftHandler{
		theftUC: theftUC,
		logger:  logger,
	}
}

// ListThefts godoc
// @Summary Точки краж для тепловой карты
// @Description Возвращает до limit точек, новые первыми. Ответ - JSON массив без обертки.
// @Tags Thefts
// @Produce json
// @Param limit query int false "Максимальное количество точек (1..50000)" default(5000)
// @Success 200 {array} domain.TheftPoint
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /thefts [get]
func (h *TheftHandler) ListThefts(c *fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	points, err := h.theftUC.ListRecent(c.Context(), req.Limit)
	if err != nil {
		return utils.SendError(c, err)
	}

	return c.JSON(points)
}

// ListTheftsV1 godoc
// @Summary Точки краж в стандартной обертке
// @Description Те же данные, что и /thefts, в формате {data, meta}
// @Tags Thefts
// @Produce json
// @Param limit query int false "Максимальное количество точек (1..50000)" default(5000)
// @Success 200 {object} utils.SuccessResponse{data=dto.TheftListResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/thefts [get]
func (h *TheftHandler) ListTheftsV1(c *fiber.Ctx) error {
	start := time.Now()

	req, err := parseListRequest(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	points, err := h.theftUC.ListRecent(c.Context(), req.Limit)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.TheftListResponse{Thefts: points}, &utils.Meta{
		Total:    len(points),
		Limit:    req.Limit,
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// parseListRequest разбирает limit строго: нечисловое значение - ошибка, а не дефолт
func parseListRequest(c *fiber.Ctx) (*dto.ListTheftsRequest, error) {
	req := &dto.ListTheftsRequest{Limit: usecase.DefaultLimit}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.ErrInvalidLimit.WithDetails(map[string]interface{}{"limit": raw})
		}
		req.Limit = limit
	}

	if err := validator.ValidateRequest(req, errors.ErrInvalidLimit); err != nil {
		return nil, err
	}
	return req, nil
}
