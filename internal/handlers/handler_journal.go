package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/dto"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journals.
type journalHandler struct {
	postingService portssvc.PostingSvc
}

func newJournalHandler(postingService portssvc.PostingSvc) *journalHandler {
	return &journalHandler{postingService: postingService}
}

func registerJournalRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvc) {
	h := newJournalHandler(postingService)
	journals := rg.Group("/journals")
	{
		journals.POST("", h.createDraft)
		journals.GET("", h.listJournals)
		journals.GET("/:journalID", h.getJournal)
		journals.POST("/:journalID/post", h.postJournal)
		journals.POST("/:journalID/void", h.voidJournal)
	}
}

// writeJournalError maps posting errors to HTTP responses. State
// machine violations are conflicts, structural problems bad requests.
func writeJournalError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
	case errors.Is(err, apperrors.ErrInvalidJournal), errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrImbalancedJournal):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAlreadyPosted),
		errors.Is(err, apperrors.ErrAlreadyVoid),
		errors.Is(err, apperrors.ErrNotPosted),
		errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// createDraft godoc
// @Summary Create a draft journal
// @Description Creates a journal in DRAFT status. Drafts may be imbalanced; balance is enforced at posting.
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   journal body dto.CreateJournalRequest true "Journal"
// @Success 201 {object} dto.JournalResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /journals [post]
func (h *journalHandler) createDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actor, ok := middleware.ActorFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	journal, err := h.postingService.CreateDraft(c.Request.Context(), req, actor)
	if err != nil {
		writeJournalError(c, logger, err, "create draft journal")
		return
	}

	logger.Info("Draft journal created", slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

// postJournal godoc
// @Summary Post a draft journal
// @Description Transitions a draft to POSTED, enforcing the balance invariant and assigning a sequence reference.
// @Tags journals
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Success 200 {object} dto.JournalResponse
// @Failure 409 {object} map[string]string "Journal is not a draft"
// @Failure 422 {object} map[string]string "Journal is imbalanced"
// @Router /journals/{journalID}/post [post]
func (h *journalHandler) postJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	actor, ok := middleware.ActorFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	journal, err := h.postingService.Post(c.Request.Context(), journalID, actor)
	if err != nil {
		writeJournalError(c, logger, err, "post journal")
		return
	}

	logger.Info("Journal posted", slog.String("journal_id", journalID), slog.String("reference", journal.Reference))
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// voidJournal godoc
// @Summary Void a posted journal
// @Description Creates a reversing mirror journal and marks the original VOID. Returns the reversing journal.
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Param   body body dto.VoidJournalRequest true "Void reason"
// @Success 200 {object} dto.JournalResponse
// @Failure 409 {object} map[string]string "Journal is not posted"
// @Router /journals/{journalID}/void [post]
func (h *journalHandler) voidJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.VoidJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Void reason is required"})
		return
	}

	actor, ok := middleware.ActorFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversing, err := h.postingService.Void(c.Request.Context(), journalID, req.Reason, actor)
	if err != nil {
		writeJournalError(c, logger, err, "void journal")
		return
	}

	logger.Info("Journal voided", slog.String("journal_id", journalID), slog.String("reversing_journal_id", reversing.JournalID))
	c.JSON(http.StatusOK, dto.ToJournalResponse(reversing))
}

// getJournal godoc
// @Summary Get a journal with its lines
// @Tags journals
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Success 200 {object} dto.JournalResponse
// @Failure 404 {object} map[string]string "Journal not found"
// @Router /journals/{journalID} [get]
func (h *journalHandler) getJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, err := h.postingService.GetJournalByID(c.Request.Context(), journalID)
	if err != nil {
		writeJournalError(c, logger, err, "retrieve journal")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// listJournals godoc
// @Summary List journals
// @Description Lists journals ordered by (journal date, journal ID) descending with token pagination. Defaults to POSTED journals only.
// @Tags journals
// @Produce  json
// @Param   branchID query string false "Branch filter"
// @Param   from query string false "Start date (RFC 3339)"
// @Param   to query string false "End date (RFC 3339)"
// @Param   status query string false "Status filter (DRAFT, POSTED, VOID)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination token"
// @Param   includeLines query bool false "Load lines for each journal"
// @Success 200 {object} dto.ListJournalsResponse
// @Router /journals [get]
func (h *journalHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListJournalsParams{
		BranchID:     c.Query("branchID"),
		IncludeLines: c.Query("includeLines") == "true",
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
			return
		}
		params.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
			return
		}
		params.To = &t
	}
	if v := c.Query("status"); v != "" {
		status := domain.JournalStatus(v)
		if status != domain.Draft && status != domain.Posted && status != domain.Void {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		params.Status = &status
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		params.Limit = limit
	}
	if v := c.Query("nextToken"); v != "" {
		params.NextToken = &v
	}

	resp, err := h.postingService.ListJournals(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list journals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list journals"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
