package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/database/dbtest"
	"healthloop/internal/model"
	"healthloop/internal/service"
	"healthloop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	db := dbtest.New(t)
	svcs := service.NewServices(db, nil, cfg, zap.NewNop())
	return &testServer{t: t, db: db, router: SetupRouter(svcs, cfg, zap.NewNop())}
}

func (s *testServer) do(method, path, accountID string, body any, out any) envelope {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accountID != "" {
		req.Header.Set(HeaderAccountID, accountID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil && env.Code == response.CodeSuccess {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
	return env
}

func (s *testServer) register(email, role string) string {
	s.t.Helper()
	var res struct {
		Account model.Account `json:"account"`
	}
	env := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "name": "Test", "role": role}, &res)
	require.Equal(s.t, response.CodeSuccess, env.Code, env.Message)
	return res.Account.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	env := s.do(http.MethodGet, "/api/v1/account/balance", "", nil, nil)
	assert.Equal(t, response.CodeUnauthorized, env.Code)
}

func TestRegisterAndAward(t *testing.T) {
	s := newTestServer(t)
	id := s.register("ana@example.com", "")

	var balance service.Balance
	env := s.do(http.MethodGet, "/api/v1/account/balance", id, nil, &balance)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Equal(t, int64(150), balance.Points)
	assert.Equal(t, "Beginner", balance.Level)

	env = s.do(http.MethodPost, "/api/v1/points/award", id, gin.H{"action": "complete_profile"}, nil)
	assert.Equal(t, response.CodeSuccess, env.Code)

	env = s.do(http.MethodPost, "/api/v1/points/award", id, gin.H{"action": "complete_profile"}, nil)
	assert.Equal(t, response.CodeAlreadyClaimed, env.Code)

	env = s.do(http.MethodPost, "/api/v1/points/award", id, gin.H{"action": "nope"}, nil)
	assert.Equal(t, response.CodeUnknownAction, env.Code)

	env = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ana@example.com", "name": "Ana"}, nil)
	assert.Equal(t, response.CodeEmailTaken, env.Code)

	env = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "bad", "name": "Ana"}, nil)
	assert.Equal(t, response.CodeParamError, env.Code)

	var history struct {
		List []model.LedgerEntry `json:"list"`
	}
	env = s.do(http.MethodGet, "/api/v1/points/history?limit=10", id, nil, &history)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Len(t, history.List, 2)

	env = s.do(http.MethodGet, "/api/v1/account/balance", "missing", nil, nil)
	assert.Equal(t, response.CodeAccountNotFound, env.Code)
}

func TestConsultationRequiresProfessional(t *testing.T) {
	s := newTestServer(t)
	pro := s.register("doc@example.com", model.RoleProfessional)
	client := s.register("ana@example.com", model.RoleClient)

	env := s.do(http.MethodPost, "/api/v1/points/consultation", client, gin.H{"client_id": pro}, nil)
	assert.Equal(t, response.CodeNotProfessional, env.Code)

	env = s.do(http.MethodPost, "/api/v1/points/consultation", pro, gin.H{"client_id": client}, nil)
	assert.Equal(t, response.CodeSuccess, env.Code)

	var dash service.ProfessionalDashboard
	env = s.do(http.MethodGet, "/api/v1/dashboard/professional", pro, nil, &dash)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Equal(t, int64(1), dash.ConsultationsGranted)
}

func TestCartAndCheckout(t *testing.T) {
	s := newTestServer(t)
	id := s.register("ana@example.com", "")

	product := &model.Product{ID: "p-1", Name: "Bowl", Price: decimal.RequireFromString("12.00"), DietType: model.DietKeto}
	require.NoError(t, s.db.Create(product).Error)

	var products struct {
		List []model.Product `json:"list"`
	}
	env := s.do(http.MethodGet, "/api/v1/products?diet_type=keto", "", nil, &products)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Len(t, products.List, 1)

	env = s.do(http.MethodGet, "/api/v1/products?diet_type=paleo", "", nil, nil)
	assert.Equal(t, response.CodeParamError, env.Code)

	env = s.do(http.MethodGet, "/api/v1/products/missing", "", nil, nil)
	assert.Equal(t, response.CodeProductNotFound, env.Code)

	env = s.do(http.MethodPost, "/api/v1/orders", id, nil, nil)
	assert.Equal(t, response.CodeEmptyCart, env.Code)

	env = s.do(http.MethodPost, "/api/v1/cart/add", id, gin.H{"product_id": "p-1", "quantity": 0}, nil)
	assert.Equal(t, response.CodeInvalidQuantity, env.Code)

	var cart model.CartView
	env = s.do(http.MethodPost, "/api/v1/cart/add", id, gin.H{"product_id": "p-1"}, &cart)
	require.Equal(t, response.CodeSuccess, env.Code)
	env = s.do(http.MethodPost, "/api/v1/cart/add", id, gin.H{"product_id": "p-1", "quantity": 2}, &cart)
	require.Equal(t, response.CodeSuccess, env.Code)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("36").Equal(cart.Total))

	var result service.CheckoutResult
	env = s.do(http.MethodPost, "/api/v1/orders", id, gin.H{"request_id": "r-1"}, &result)
	require.Equal(t, response.CodeSuccess, env.Code, env.Message)
	assert.Equal(t, int64(360), result.Order.PointsFromPurchase)
	assert.Equal(t, int64(200), result.Order.FirstPurchaseBonus)
	assert.Equal(t, int64(710), result.Balance.Points)

	var order model.Order
	env = s.do(http.MethodGet, "/api/v1/orders/"+result.Order.OrderNo, id, nil, &order)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Len(t, order.Items, 1)

	other := s.register("bob@example.com", "")
	env = s.do(http.MethodGet, "/api/v1/orders/"+result.Order.OrderNo, other, nil, nil)
	assert.Equal(t, response.CodeOrderNotFound, env.Code)

	env = s.do(http.MethodDelete, "/api/v1/cart/clear", id, nil, nil)
	assert.Equal(t, response.CodeSuccess, env.Code)

	var dash service.ClientDashboard
	env = s.do(http.MethodGet, "/api/v1/dashboard/client", id, nil, &dash)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Equal(t, int64(1), dash.TotalOrders)
	assert.Equal(t, "Active", dash.Balance.Level)

	var rank service.LeaderboardEntry
	env = s.do(http.MethodGet, "/api/v1/leaderboard/me", id, nil, &rank)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Equal(t, int64(1), rank.Rank)
}

func TestListActions(t *testing.T) {
	s := newTestServer(t)
	var res struct {
		List []map[string]any `json:"list"`
	}
	env := s.do(http.MethodGet, "/api/v1/points/actions", "", nil, &res)
	require.Equal(t, response.CodeSuccess, env.Code)
	assert.Len(t, res.List, 7)
}
