package handler

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"healthloop/internal/model"
	"healthloop/internal/service"
	"healthloop/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	svcs *service.Services
	log  *zap.Logger
}

// NewHandler 创建处理器实例
func NewHandler(svcs *service.Services, log *zap.Logger) *Handler {
	return &Handler{svcs: svcs, log: log.Named("handler")}
}

var errorCodes = []struct {
	err  error
	code int
}{
	{service.ErrInvalidAmount, response.CodeInvalidAmount},
	{service.ErrAlreadyClaimed, response.CodeAlreadyClaimed},
	{service.ErrInvalidQuantity, response.CodeInvalidQuantity},
	{service.ErrProductNotFound, response.CodeProductNotFound},
	{service.ErrEmptyCart, response.CodeEmptyCart},
	{service.ErrAccountNotFound, response.CodeAccountNotFound},
	{service.ErrUnknownAction, response.CodeUnknownAction},
	{service.ErrInvalidAction, response.CodeParamError},
	{service.ErrNotProfessional, response.CodeNotProfessional},
	{service.ErrEmailTaken, response.CodeEmailTaken},
	{service.ErrOrderNotFound, response.CodeOrderNotFound},
	{service.ErrSystemBusy, response.CodeSystemBusy},
	{service.ErrInvalidRole, response.CodeParamError},
	{service.ErrInvalidDietType, response.CodeParamError},
	{service.ErrDuplicateRequest, response.CodeBusinessError},
}

// fail 业务错误返回对应错误码，其余错误只记录日志
func (h *Handler) fail(c *gin.Context, err error) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			response.BusinessError(c, ec.code, err.Error())
			return
		}
	}
	h.log.Error("请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
	response.ServerError(c, "服务器内部错误")
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// ============================================================
// 账户
// ============================================================

type RegisterRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role" binding:"omitempty,oneof=client professional"`
}

// Register 注册并发放注册奖励
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svcs.Accounts.Register(c.Request.Context(), service.RegisterRequest{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// GetBalance 积分余额与等级
// GET /api/v1/account/balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.svcs.Ledger.Balance(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, balance)
}

// ============================================================
// 积分
// ============================================================

// History GET /api/v1/points/history?limit=20
func (h *Handler) History(c *gin.Context) {
	entries, err := h.svcs.Ledger.History(c.Request.Context(), currentAccount(c), queryInt(c, "limit", 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": entries})
}

type AwardRequest struct {
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

// Award 领取动作奖励
// POST /api/v1/points/award
func (h *Handler) Award(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	accountID := currentAccount(c)
	entry, err := h.svcs.Actions.Award(ctx, accountID, req.Action, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	balance, err := h.svcs.Ledger.Balance(ctx, accountID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"entry": entry, "balance": balance})
}

type ConsultationRequest struct {
	ClientID    string `json:"client_id" binding:"required"`
	Description string `json:"description"`
}

// GrantConsultation 专业人员发放完成咨询奖励
// POST /api/v1/points/consultation
func (h *Handler) GrantConsultation(c *gin.Context) {
	var req ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	entry, err := h.svcs.Actions.GrantConsultation(c.Request.Context(), currentAccount(c), req.ClientID, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, entry)
}

// ListActions 积分规则
// GET /api/v1/points/actions
func (h *Handler) ListActions(c *gin.Context) {
	defs := h.svcs.Actions.Catalog().All()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })

	list := make([]gin.H, 0, len(defs))
	for _, d := range defs {
		list = append(list, gin.H{
			"code":                 d.Code,
			"points":               d.Points,
			"policy":               d.Policy.String(),
			"variable":             d.Variable,
			"professional_granted": d.ProfessionalGranted,
			"description":          d.Description,
		})
	}
	response.Success(c, gin.H{"list": list, "levels": model.Levels})
}

// ============================================================
// 排行榜
// ============================================================

// Leaderboard GET /api/v1/leaderboard?limit=10
func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.svcs.Leaderboard.Top(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": entries})
}

// MyRank GET /api/v1/leaderboard/me
func (h *Handler) MyRank(c *gin.Context) {
	entry, err := h.svcs.Leaderboard.RankOf(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, entry)
}

// ============================================================
// 商品
// ============================================================

// ListProducts GET /api/v1/products?diet_type=keto
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.svcs.Products.List(c.Request.Context(), c.Query("diet_type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": products})
}

// GetProduct GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.svcs.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, product)
}

// ============================================================
// 购物车
// ============================================================

// GetCart GET /api/v1/cart
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.svcs.Carts.GetCart(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view)
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	// Quantity 不传时默认为 1
	Quantity *int `json:"quantity"`
}

// AddToCart POST /api/v1/cart/add
func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.svcs.Carts.AddItem(c.Request.Context(), currentAccount(c), req.ProductID, quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view)
}

// ClearCart DELETE /api/v1/cart/clear
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.svcs.Carts.Clear(c.Request.Context(), currentAccount(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "购物车已清空"})
}

// ============================================================
// 订单
// ============================================================

type CheckoutRequest struct {
	RequestID string `json:"request_id"` // 幂等ID，也可以放在 X-Request-ID 头
}

// Checkout 结算购物车
// POST /api/v1/orders
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, "参数错误: "+err.Error())
			return
		}
	}
	if req.RequestID == "" {
		req.RequestID = strings.TrimSpace(c.GetHeader("X-Request-ID"))
	}

	result, err := h.svcs.Checkout.Checkout(c.Request.Context(), service.CheckoutRequest{
		AccountID: currentAccount(c),
		RequestID: req.RequestID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders GET /api/v1/orders?page=1&page_size=10
func (h *Handler) ListOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 10)

	orders, total, err := h.svcs.Orders.List(c.Request.Context(), currentAccount(c), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":      orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrder GET /api/v1/orders/:order_no
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.svcs.Orders.Get(c.Request.Context(), currentAccount(c), c.Param("order_no"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

// ============================================================
// 首页
// ============================================================

// ClientDashboard GET /api/v1/dashboard/client
func (h *Handler) ClientDashboard(c *gin.Context) {
	dash, err := h.svcs.Accounts.ClientDashboard(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, dash)
}

// ProfessionalDashboard GET /api/v1/dashboard/professional
func (h *Handler) ProfessionalDashboard(c *gin.Context) {
	dash, err := h.svcs.Accounts.ProfessionalDashboard(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, dash)
}
