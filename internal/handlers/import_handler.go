package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/fileio"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/services"
)

// maxImportSize caps an uploaded spreadsheet.
const maxImportSize = 10 << 20

// ImportHandler handles spreadsheet import and export.
type ImportHandler struct {
	importService services.ImportServicer
	auditService  services.AuditServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{importService: importService, auditService: auditService}
}

// Import stores every row of an uploaded spreadsheet as a movement
// @Summary     Import transactions
// @Description Upload an xlsx or csv file. Every sheet is read; amounts are taken in the stored currency.
// @Tags        transactions
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "Spreadsheet (.xlsx or .csv)"
// @Success     201 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Missing file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Unreadable file"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	if header.Size > maxImportSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrImportFailed, err))
		return
	}
	defer file.Close()

	result, err := h.importService.Import(c.Request.Context(), userID, header.Filename, file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditImport, models.AuditResourceTransaction, "", c.ClientIP(),
		map[string]interface{}{"file": header.Filename, "imported": result.Imported, "with_rates": result.WithRates})

	c.JSON(http.StatusCreated, result)
}

// Export downloads the movement log as a spreadsheet
// @Summary     Export transactions
// @Tags        transactions
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce     text/csv
// @Security    BearerAuth
// @Param       format query string false "xlsx (default) or csv"
// @Success     200 {file}   file "Spreadsheet"
// @Failure     400 {object} ErrorResponse "Unknown format"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/export [get]
func (h *ImportHandler) Export(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	format, err := fileio.ParseFormat(c.Query("format"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := h.importService.Export(userID, format, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.FileName()+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
