package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantrymatch/backend/internal/domain"
	"github.com/pantrymatch/backend/internal/usecase"
)

// OwnerHeader carries the caller's owner id. Authentication happens upstream.
const OwnerHeader = "X-Owner-ID"

// maxBatchRecipes caps POST /recipes/match
const maxBatchRecipes = 50

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pantry  *usecase.PantryService
	matches *usecase.MatchService
	advisor *usecase.UnitAdvisor
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler. Any service may be nil; its
// endpoints then answer 501.
func NewHandler(pantry *usecase.PantryService, matches *usecase.MatchService, advisor *usecase.UnitAdvisor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pantry:  pantry,
		matches: matches,
		advisor: advisor,
		logger:  logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pantrymatch-backend",
		"version": "1.0.0",
	})
}

type resolveRequest struct {
	usecase.AddItemRequest
	Decision string `json:"decision"`
}

type adjustRequest struct {
	Mode   string   `json:"mode"`
	Amount *float64 `json:"amount"`
	Unit   string   `json:"unit"`
	Note   *string  `json:"note"`
}

type batchMatchRequest struct {
	RecipeIDs []string `json:"recipeIds"`
}

// rejectedResponse is the addOrMergeItem body for invalid input
type rejectedResponse struct {
	Outcome domain.AddOutcome `json:"outcome"`
	Code    string            `json:"code"`
	Reason  string            `json:"reason"`
}

// AddItem handles POST /api/v1/pantry/items
func (h *Handler) AddItem(c *gin.Context) {
	if h.pantry == nil {
		notConfigured(c, "pantry")
		return
	}

	var req usecase.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	req.OwnerID = ownerID(c)

	result, err := h.pantry.AddOrMergeItem(c.Request.Context(), req)
	if err != nil {
		h.respondAddError(c, err)
		return
	}
	c.JSON(addStatus(result), result)
}

// ResolveItem handles POST /api/v1/pantry/items/resolve
func (h *Handler) ResolveItem(c *gin.Context) {
	if h.pantry == nil {
		notConfigured(c, "pantry")
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	decision, err := domain.ParseMergeDecision(req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}
	req.OwnerID = ownerID(c)

	result, err := h.pantry.ResolveDecision(c.Request.Context(), req.AddItemRequest, decision)
	if err != nil {
		h.respondAddError(c, err)
		return
	}
	c.JSON(addStatus(result), result)
}

// ListItems handles GET /api/v1/pantry/items
func (h *Handler) ListItems(c *gin.Context) {
	if h.pantry == nil {
		notConfigured(c, "pantry")
		return
	}

	items, err := h.pantry.ListItems(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []domain.PantryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetItem handles GET /api/v1/pantry/items/:id
func (h *Handler) GetItem(c *gin.Context) {
	if h.pantry == nil {
		notConfigured(c, "pantry")
		return
	}

	entry, err := h.pantry.GetItem(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// UpdateItem handles PATCH /api/v1/pantry/items/:id. A body may carry a
// quantity mutation, a note, or both.
func (h *Handler) UpdateItem(c *gin.Context) {
	if h.pantry == nil {
		notConfigured(c, "pantry")
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Mode == "" && req.Note == nil {
		respondBadRequest(c, "mode and amount, or note, is required")
		return
	}
	if req.Mode != "" && req.Amount == nil {
		respondBadRequest(c, "amount is required with mode")
		return
	}

	ctx := c.Request.Context()
	owner, id := ownerID(c), c.Param("id")

	var (
		entry *domain.PantryEntry
		err   error
	)
	if req.Mode != "" {
		entry, err = h.pantry.AdjustQuantity(ctx, owner, id, domain.Mutation{
			Mode:   domain.MutationMode(strings.ToLower(req.Mode)),
			Amount: *req.Amount,
			Unit:   req.Unit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Note != nil {
		entry, err = h.pantry.UpdateNote(ctx, owner, id, *req.Note)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteItem handles DELETE /api/v1/pantry/items/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	if h.pantry == nil {
		notConfigured(c, "pantry")
		return
	}

	if err := h.pantry.RemoveItem(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SuggestUnit handles GET /api/v1/units/suggest?name=&unit=
func (h *Handler) SuggestUnit(c *gin.Context) {
	if h.advisor == nil {
		notConfigured(c, "unit advisor")
		return
	}

	name := strings.TrimSpace(c.Query("name"))
	unit := strings.TrimSpace(c.Query("unit"))
	if name == "" || unit == "" {
		respondBadRequest(c, "name and unit query parameters are required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":       name,
		"unit":       unit,
		"suggestion": h.advisor.Suggest(name, unit),
	})
}

// GetRecipeMatch handles GET /api/v1/recipes/:id/match
func (h *Handler) GetRecipeMatch(c *gin.Context) {
	if h.matches == nil {
		notConfigured(c, "recipe matching")
		return
	}

	resp, err := h.matches.GetMatch(c.Request.Context(), c.Param("id"), ownerID(c))
	if err != nil {
		h.logMatchError(c, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BatchRecipeMatch handles POST /api/v1/recipes/match
func (h *Handler) BatchRecipeMatch(c *gin.Context) {
	if h.matches == nil {
		notConfigured(c, "recipe matching")
		return
	}

	var req batchMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.RecipeIDs) == 0 {
		respondBadRequest(c, "recipeIds must not be empty")
		return
	}
	if len(req.RecipeIDs) > maxBatchRecipes {
		respondBadRequest(c, "too many recipeIds")
		return
	}

	matches, err := h.matches.GetMatches(c.Request.Context(), ownerID(c), req.RecipeIDs)
	if err != nil {
		h.logMatchError(c, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *Handler) respondAddError(c *gin.Context, err error) {
	if isRejection(err) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, rejectedResponse{
			Outcome: domain.OutcomeRejected,
			Code:    mapError(err).Code,
			Reason:  err.Error(),
		})
		return
	}
	respondError(c, err)
}

func (h *Handler) logMatchError(c *gin.Context, err error) {
	if mapError(err).Status >= http.StatusInternalServerError {
		h.logger.Error("recipe match failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("owner_id", ownerID(c)),
			zap.Error(err),
		)
	}
}

func ownerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(OwnerHeader))
}

func addStatus(result *usecase.AddItemResult) int {
	if result.Outcome == domain.OutcomeInserted {
		return http.StatusCreated
	}
	return http.StatusOK
}

func notConfigured(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotImplemented, APIError{
		Code:    "NOT_CONFIGURED",
		Message: what + " service not configured",
		Status:  http.StatusNotImplemented,
	})
}
