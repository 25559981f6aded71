// Package api exposes the FormX services over HTTP with gin.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/apperr"
	"github.com/formx360/formx/internal/directory"
	"github.com/formx360/formx/internal/forms"
	"github.com/formx360/formx/internal/middleware"
	"github.com/formx360/formx/internal/responses"
	"github.com/formx360/formx/pkg/schema"
)

type Handler struct {
	Forms     *forms.Service
	Responses *responses.Service
	Directory *directory.Service
	Log       logrus.FieldLogger
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "Server is running!")
}

// --- Companies and users ---

type createCompanyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Malformed("Invalid request body."))
		return
	}
	company, err := h.Directory.CreateCompany(c.Request.Context(), req.Name, middleware.CallerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Company created successfully",
		"company": company,
	})
}

func (h *Handler) GetCompany(c *gin.Context) {
	company, err := h.Directory.GetCompany(c.Request.Context(), companyParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Malformed("Invalid request body."))
		return
	}
	user, err := h.Directory.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Directory.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// --- Forms ---

type createFormRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// companyParam reads the company id from either the /companies/:companyId or the
// legacy /forms/:id/forms route.
func companyParam(c *gin.Context) string {
	if id := c.Param("companyId"); id != "" {
		return id
	}
	return c.Param("id")
}

func (h *Handler) CreateForm(c *gin.Context) {
	var req createFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Malformed("Invalid request body."))
		return
	}
	form, err := h.Forms.Create(c.Request.Context(), forms.CreateInput{
		CompanyID:   companyParam(c),
		OwnerUserID: middleware.CallerID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Form created successfully!",
		"formId":  form.ID,
		"form":    form,
	})
}

func (h *Handler) ListCompanyForms(c *gin.Context) {
	list, err := h.Forms.ListByCompany(c.Request.Context(), companyParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetForm(c *gin.Context) {
	form, err := h.Forms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Form retrieved successfully",
		"form":    form,
	})
}

// updateFormRequest mirrors the form builder payload. Fields is decoded separately so a
// non-array value is reported as such; values is accepted and ignored.
type updateFormRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	FieldOrder  []string        `json:"field_order"`
	Fields      json.RawMessage `json:"fields"`
	Values      json.RawMessage `json:"values"`
}

func (h *Handler) UpdateForm(c *gin.Context) {
	var req updateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Malformed("Invalid request body."))
		return
	}
	fields, err := forms.DecodeFields(req.Fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	form, err := h.Forms.Update(c.Request.Context(), c.Param("id"), forms.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Fields:      fields,
		FieldOrder:  req.FieldOrder,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Form updated successfully",
		"form":    form,
	})
}

func (h *Handler) DeleteForm(c *gin.Context) {
	if err := h.Forms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Form deleted successfully"})
}

// --- Responses ---

type submitRequest struct {
	FormID    string              `json:"form_id"`
	UserID    string              `json:"user_id"`
	Responses []schema.FieldValue `json:"responses"`
}

func (h *Handler) SubmitResponse(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Malformed("Invalid request body."))
		return
	}
	// An authenticated caller submits as themselves unless the body names a user.
	userID := req.UserID
	if userID == "" {
		userID = middleware.CallerID(c)
	}
	response, err := h.Responses.Submit(c.Request.Context(), responses.SubmitInput{
		FormID:    req.FormID,
		UserID:    userID,
		Responses: req.Responses,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Response submitted successfully",
		"response": response,
	})
}

func (h *Handler) ListFormResponses(c *gin.Context) {
	list, err := h.Responses.ListByForm(c.Request.Context(), c.Param("form_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListUserResponses(c *gin.Context) {
	list, err := h.Responses.ListByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// fail renders err. Internal errors are logged and answered with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal("unexpected error", err)
	}

	switch appErr.Kind {
	case apperr.KindInternal:
		h.Log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	case apperr.KindValidationFailed:
		c.JSON(appErr.HTTPStatus(), gin.H{
			"error":  appErr.Message,
			"errors": appErr.Violations,
		})
	default:
		c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message})
	}
}
