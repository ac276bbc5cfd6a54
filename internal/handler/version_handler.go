package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/tour-quote-service/internal/model"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
)

// ListVersions handles the GET /quotes/{id}/versions endpoint
// @Summary List versions
// @Description Get the saved versions of a quote and the loaded version index (-1 is the primary state)
// @Tags versions
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} service.VersionList "Versions"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/versions [get]
func (h *QuoteHandler) ListVersions(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	versions, err := h.quoteService.ListVersions(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, "failed_to_list_versions", err)
		return
	}

	respondOK(c, versions)
}

// SaveVersion handles the POST /quotes/{id}/versions endpoint
// @Summary Save a version
// @Description Snapshot the live state; as_new also makes the snapshot the loaded version
// @Tags versions
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param version body model.SaveVersionRequest false "Version name and note"
// @Success 201 {object} service.SavedVersion "Saved version"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 404 {object} model.ErrorResponse "Quote not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/versions [post]
func (h *QuoteHandler) SaveVersion(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.SaveVersionRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
			return
		}
	}

	saved, err := h.quoteService.SaveVersion(c.Request.Context(), quoteID, service.SaveVersionInput{
		Name:  req.Name,
		Note:  req.Note,
		AsNew: req.AsNew,
	})
	if err != nil {
		respondServiceError(c, "failed_to_save_version", err)
		return
	}

	respondCreated(c, saved)
}

// LoadVersion handles the POST /quotes/{id}/versions/{index}/load endpoint
// @Summary Load a version
// @Description Make a saved version the live state; index -1 returns to the primary state
// @Tags versions
// @Produce json
// @Param id path string true "Quote ID"
// @Param index path int true "Version index, -1 for primary"
// @Success 200 {object} model.VersionMarkerResponse "Loaded"
// @Failure 400 {object} model.ErrorResponse "Invalid index"
// @Failure 404 {object} model.ErrorResponse "Quote or version not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/versions/{index}/load [post]
func (h *QuoteHandler) LoadVersion(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	index, err := getPathInt(c, "index")
	if err != nil {
		respondBadRequest(c, ErrInvalidID, newErrorDetail("index", err.Error()))
		return
	}

	quote, err := h.quoteService.LoadVersion(c.Request.Context(), quoteID, index)
	if err != nil {
		respondServiceError(c, "failed_to_load_version", err)
		return
	}

	respondOK(c, model.VersionMarkerResponse{CurrentVersion: quote.CurrentVersion, Quote: quote})
}

// DeleteVersion handles the DELETE /quotes/{id}/versions/{index} endpoint
// @Summary Delete a version
// @Description Remove a saved version; deleting the loaded version returns the marker to the primary state
// @Tags versions
// @Produce json
// @Param id path string true "Quote ID"
// @Param index path int true "Version index"
// @Success 200 {object} model.VersionMarkerResponse "Deleted"
// @Failure 400 {object} model.ErrorResponse "Invalid index"
// @Failure 404 {object} model.ErrorResponse "Quote or version not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/quotes/{id}/versions/{index} [delete]
func (h *QuoteHandler) DeleteVersion(c *gin.Context) {
	quoteID, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	index, err := getPathInt(c, "index")
	if err != nil {
		respondBadRequest(c, ErrInvalidID, newErrorDetail("index", err.Error()))
		return
	}

	quote, err := h.quoteService.DeleteVersion(c.Request.Context(), quoteID, index)
	if err != nil {
		respondServiceError(c, "failed_to_delete_version", err)
		return
	}

	respondOK(c, model.VersionMarkerResponse{CurrentVersion: quote.CurrentVersion, Quote: quote})
}
