package api

import (
	"time"

	models "SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	icache "SignalGuard/internal/service/cache"
	"SignalGuard/internal/usecase"
	xhttp "SignalGuard/pkg/http"
	xlogger "SignalGuard/pkg/logger"
	"SignalGuard/pkg/util"

	"github.com/labstack/echo/v4"
)

// ValidationEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type ValidationEchoHandler struct {
	logger  *xlogger.Logger
	orch    domsvc.Orchestrator
	candles *usecase.CandlesUseCase
	legacy  *ValidationHandler
}

func NewValidationEchoHandler(logger *xlogger.Logger, orch domsvc.Orchestrator, candles *usecase.CandlesUseCase) *ValidationEchoHandler {
	legacy := NewValidationHandler(orch)
	legacy.SetLogger(logger)
	legacy.SetCache(icache.NewTTLCache())
	return &ValidationEchoHandler{logger: logger, orch: orch, candles: candles, legacy: legacy}
}

func (h *ValidationEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/signals/validate", h.Validate)
	g.GET("/candles", h.Candles)
	// Legacy route: verdict caching by signal id and per-client throttling.
	e.POST("/validate", echo.WrapHandler(h.legacy.Validate()))
}

// SetVerdictCache swaps the legacy route's verdict cache, e.g. for a
// Redis-backed one shared across replicas.
func (h *ValidationEchoHandler) SetVerdictCache(c icache.BytesCache) { h.legacy.SetCache(c) }

func (h *ValidationEchoHandler) Validate(c echo.Context) error {
	req := &models.ValidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	verdict, err := h.orch.ValidateSignal(c.Request().Context(), req.Signal())
	if err != nil {
		h.logger.Error("validate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, verdict)
}

func (h *ValidationEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)
	from, to = util.AlignFromTo(from, to, req.TF)

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}
