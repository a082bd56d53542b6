// internal/handlers/agents_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/middleware"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

type fixedClock struct{ now int64 }

func (c fixedClock) Now() int64 { return c.now }

const (
	testOwner = contracts.Address("0xowner")
	testDev   = contracts.Address("0xdev")
)

func newTestRouter() (*gin.Engine, *services.MarketService) {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")

	clock := fixedClock{now: 1_700_000_000}
	sink := &contracts.MemorySink{}
	market := contracts.NewMarketplace(testOwner, 250, clock, sink, contracts.NopTransferer{})
	registry := contracts.NewRegistry(testOwner, clock, sink)
	listings := contracts.NewListingBook(registry, clock, sink)

	marketService := services.NewMarketService(market, registry, listings, nil)

	agentHandler := NewAgentHandler(marketService, nil)
	marketHandler := NewMarketHandler(marketService)

	r := gin.New()
	r.GET("/agents", agentHandler.GetAgents)
	r.GET("/agents/:id", agentHandler.GetAgent)
	r.POST("/agents", middleware.AuthRequired(), agentHandler.RegisterAgent)
	r.POST("/market/users", middleware.AuthRequired(), marketHandler.RegisterUser)
	r.GET("/market/stats", marketHandler.GetStats)
	return r, marketService
}

func bearerFor(t *testing.T, address contracts.Address) string {
	t.Helper()
	token, err := utils.GenerateJWT(uuid.New(), "tester", string(address), 1)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(r *gin.Engine, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAgentRequiresAuth(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodPost, "/agents", "", gin.H{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterAgentEndToEnd(t *testing.T) {
	r, _ := newTestRouter()
	auth := bearerFor(t, testDev)

	w := doJSON(r, http.MethodPost, "/market/users", auth, gin.H{"name": "dev"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/agents", auth, gin.H{
		"name":        "summarizer",
		"description": "Summarizes documents",
		"category":    "nlp",
		"price":       1000,
		"model_cid":   "bafymodel",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    contracts.Agent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, uint64(1), resp.Data.ID)
	assert.Equal(t, testDev, resp.Data.Developer)
}

func TestUnregisteredCallerGetsEngineFault(t *testing.T) {
	r, _ := newTestRouter()
	auth := bearerFor(t, testDev)

	// No market user registered for this address yet
	w := doJSON(r, http.MethodPost, "/agents", auth, gin.H{
		"name":        "orphan",
		"description": "No user yet",
		"category":    "misc",
		"model_cid":   "bafyorphan",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(contracts.CodeUnauthorized), resp.Error.Code)
}

func TestGetMissingAgentMapsToNotFound(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodGet, "/agents/99", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsAndListingsArePublic(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(r, http.MethodGet, "/market/stats", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/agents", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
