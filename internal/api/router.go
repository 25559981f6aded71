package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/metrics"
	"github.com/formx360/formx/internal/middleware"
)

// RouterOptions configures the middleware around the handlers.
type RouterOptions struct {
	Auth           *middleware.Authenticator
	AllowedOrigins []string
	SubmitLimiter  *middleware.RateLimiter // nil disables submission rate limiting
	Log            logrus.FieldLogger
}

// NewRouter builds the gin engine serving every FormX route. opts.Auth is required.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if h.Log == nil {
		h.Log = logrus.StandardLogger()
	}
	log := opts.Log
	if log == nil {
		log = h.Log
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Instrument(), middleware.CORS(opts.AllowedOrigins))

	r.GET("/", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := opts.Auth.Required()
	optionalAuth := opts.Auth.Optional()

	companies := r.Group("/companies")
	{
		companies.POST("", requireAuth, h.CreateCompany)
		companies.GET("/:companyId", h.GetCompany)
		companies.POST("/:companyId/forms", requireAuth, h.CreateForm)
		companies.GET("/:companyId/forms", h.ListCompanyForms)
	}

	users := r.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
	}

	formsGroup := r.Group("/forms")
	{
		// Legacy paths of the form builder: /forms/:companyId/forms.
		formsGroup.POST("/:id/forms", requireAuth, h.CreateForm)
		formsGroup.GET("/:id/forms", h.ListCompanyForms)

		formsGroup.GET("/:id", h.GetForm)
		formsGroup.PUT("/:id", h.UpdateForm)
		formsGroup.DELETE("/:id", h.DeleteForm)
	}

	submit := []gin.HandlerFunc{optionalAuth}
	if opts.SubmitLimiter != nil {
		submit = append(submit, opts.SubmitLimiter.Handler())
	}
	submit = append(submit, h.SubmitResponse)

	responsesGroup := r.Group("/responses")
	{
		responsesGroup.POST("", submit...)
		responsesGroup.GET("/form/:form_id", h.ListFormResponses)
		responsesGroup.GET("/user/:user_id", h.ListUserResponses)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return r
}
