package handler

import (
	"strconv"

	"chamapay/internal/auth"
	"chamapay/internal/authz"
	"chamapay/internal/config"
	"chamapay/internal/infrastructure/mpesa"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler bundles every service behind the HTTP surface.
type Handler struct {
	authService         *service.AuthService
	chamaService        *service.ChamaService
	contributionService *service.ContributionService
	loanService         *service.LoanService
	payoutService       *service.PayoutService
	transactionService  *service.TransactionService
	collabService       *service.CollabService
	adminService        *service.AdminService
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, mpesaClient *mpesa.Client) *Handler {
	return &Handler{
		authService:         service.NewAuthService(db, cfg),
		chamaService:        service.NewChamaService(db, cfg),
		contributionService: service.NewContributionService(db, rdb, cfg, mpesaClient),
		loanService:         service.NewLoanService(db, rdb, cfg),
		payoutService:       service.NewPayoutService(db, rdb, cfg),
		transactionService:  service.NewTransactionService(db, rdb, cfg),
		collabService:       service.NewCollabService(db, cfg),
		adminService:        service.NewAdminService(db, cfg),
	}
}

const claimsKey = "claims"

// claimsFrom returns the session claims placed by AuthMiddleware.
func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// pathID parses an int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// pagination reads page/page_size query params with sane defaults.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// chamaScope resolves the :id path parameter and checks the caller holds the
// given capability in that chama. On failure the response is already written.
func (h *Handler) chamaScope(c *gin.Context, cap authz.Capability) (chamaID int64, claims *auth.Claims, ok bool) {
	chamaID, ok = pathID(c, "id")
	if !ok {
		return 0, nil, false
	}
	claims = claimsFrom(c)

	member, err := h.chamaService.Membership(c.Request.Context(), chamaID, claims.UserID)
	if err != nil {
		writeError(c, err)
		return 0, nil, false
	}
	if err := authz.Require(member, cap); err != nil {
		writeError(c, err)
		return 0, nil, false
	}
	return chamaID, claims, true
}
