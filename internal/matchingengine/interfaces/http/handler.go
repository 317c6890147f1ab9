// Package http exposes the matching engine's Submit/Cancel/GetSnapshot/
// GetOrder operations over gin as the service's inter-process boundary.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/financialtrading/internal/matchingengine/application"
	"github.com/wyfcoding/financialtrading/internal/matchingengine/domain"
	"github.com/wyfcoding/financialtrading/pkg/logging"
)

// Handler adapts HTTP requests onto a single application.Engine.
type Handler struct {
	engine *application.Engine
}

// NewHandler constructs a Handler backed by engine.
func NewHandler(engine *application.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes wires every matching-engine endpoint under router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/matching")
	{
		api.POST("/orders", h.SubmitOrder)
		api.DELETE("/orders/:id", h.CancelOrder)
		api.GET("/orders/:id", h.GetOrder)
		api.GET("/orderbook/:symbol", h.GetSnapshot)
		api.POST("/books/:symbol/flush", h.FlushBook)
	}
}

// submitOrderBody is the wire shape of a NEW command. Side and Type are
// validated enum strings here, at the ingress boundary, before being
// converted into the domain's typed constants the application layer
// expects.
type submitOrderBody struct {
	Side     string `json:"side" binding:"required,oneof=BUY SELL"`
	Type     string `json:"type" binding:"required,oneof=LIMIT MARKET"`
	Quantity string `json:"quantity" binding:"required"`
	Price    string `json:"price"`
	Tag      string `json:"tag"`
}

// SubmitOrder handles POST /orders, the NEW command.
func (h *Handler) SubmitOrder(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		respondError(c, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	var body submitOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	side, err := parseSide(body.Side)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	orderType, err := parseType(body.Type)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	req := application.SubmitOrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     orderType,
		Quantity: body.Quantity,
		Price:    body.Price,
		Tag:      body.Tag,
	}

	resp, err := h.engine.Submit(c.Request.Context(), req)
	if err != nil {
		logging.Debug(c.Request.Context(), "order rejected", "symbol", symbol, "error", err)
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelOrder handles DELETE /orders/:id, the CANCEL command. A tag may be
// supplied instead of a numeric id via the "tag" query parameter.
func (h *Handler) CancelOrder(c *gin.Context) {
	idParam := c.Param("id")
	tag := c.Query("tag")

	var orderID uint64
	if idParam != "0" && idParam != "" {
		parsed, err := strconv.ParseUint(idParam, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid order id")
			return
		}
		orderID = parsed
	}
	if orderID == 0 && tag == "" {
		respondError(c, http.StatusBadRequest, "either a numeric order id or a tag is required")
		return
	}

	resp, err := h.engine.Cancel(c.Request.Context(), application.CancelOrderRequest{OrderID: orderID, Tag: tag})
	if err != nil {
		logging.Debug(c.Request.Context(), "cancel rejected", "order_id", orderID, "tag", tag, "error", err)
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order id")
		return
	}

	view, err := h.engine.GetOrder(id)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetSnapshot handles GET /orderbook/:symbol.
func (h *Handler) GetSnapshot(c *gin.Context) {
	symbol := c.Param("symbol")

	depth := 0
	if depthParam := c.Query("depth"); depthParam != "" {
		parsed, err := strconv.Atoi(depthParam)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "invalid depth parameter")
			return
		}
		depth = parsed
	}

	c.JSON(http.StatusOK, h.engine.GetSnapshot(symbol, depth))
}

// FlushBook handles POST /books/:symbol/flush, the FLUSH command.
func (h *Handler) FlushBook(c *gin.Context) {
	symbol := c.Param("symbol")
	h.engine.Flush(symbol)
	logging.Info(c.Request.Context(), "book flushed", "symbol", symbol)
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "flushed": true})
}

func parseSide(s string) (domain.Side, error) {
	switch s {
	case "BUY":
		return domain.SideBuy, nil
	case "SELL":
		return domain.SideSell, nil
	default:
		return 0, errors.New("side must be BUY or SELL")
	}
}

func parseType(s string) (domain.OrderType, error) {
	switch s {
	case "LIMIT":
		return domain.TypeLimit, nil
	case "MARKET":
		return domain.TypeMarket, nil
	default:
		return 0, errors.New("type must be LIMIT or MARKET")
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondEngineError maps a *domain.Error's Kind onto an HTTP status code.
func respondEngineError(c *gin.Context, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch derr.Kind {
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrDuplicateIdentity:
		status = http.StatusConflict
	case domain.ErrCapacityExhausted:
		status = http.StatusServiceUnavailable
	case domain.ErrValidationFailure, domain.ErrPriceOutOfBand:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": derr.Message, "kind": derr.Kind})
}
