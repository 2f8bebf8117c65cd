package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
)

func setupRuleRouter(t *testing.T) (*gin.Engine, *gorm.DB, models.Policy) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Policy{}, &models.Rule{},
		&models.Notification{}, &models.NotificationProvider{},
	))

	policy := models.Policy{Name: "Academica", Enabled: true}
	require.NoError(t, services.NewPolicyService(db).Create(&policy))

	router := gin.New()
	handler := NewRuleHandler(db)
	router.GET("/rules", handler.List)
	router.POST("/rules", handler.Create)
	router.GET("/rules/:id", handler.Get)
	router.PUT("/rules/:id", handler.Update)
	router.POST("/rules/:id/toggle", handler.Toggle)
	router.DELETE("/rules/:id", handler.Delete)

	return router, db, policy
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func ruleBody(policyID uint, priority int) map[string]interface{} {
	return map[string]interface{}{
		"policy_id": policyID,
		"priority":  priority,
		"action":    "DENY",
		"enabled":   true,
		"condition": `{"version":1,"note":"block social media","match":{"urls":["facebook.com"]}}`,
	}
}

func TestRuleHandler_Create(t *testing.T) {
	router, _, policy := setupRuleRouter(t)

	w := postJSON(router, "/rules", ruleBody(policy.ID, 10))
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "block social media", created.Note)
}

func TestRuleHandler_CreateInvalidCondition(t *testing.T) {
	router, _, policy := setupRuleRouter(t)

	body := ruleBody(policy.ID, 10)
	body["condition"] = `{"version":1,"note":"n","match":{}}`

	w := postJSON(router, "/rules", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_MATCH")
}

func TestRuleHandler_DuplicatePriorityConflict(t *testing.T) {
	router, _, policy := setupRuleRouter(t)

	require.Equal(t, http.StatusCreated, postJSON(router, "/rules", ruleBody(policy.ID, 10)).Code)

	w := postJSON(router, "/rules", ruleBody(policy.ID, 10))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "priority")
}

func TestRuleHandler_UnknownPolicy(t *testing.T) {
	router, _, _ := setupRuleRouter(t)

	w := postJSON(router, "/rules", ruleBody(9999, 10))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuleHandler_Toggle(t *testing.T) {
	router, _, policy := setupRuleRouter(t)

	w := postJSON(router, "/rules", ruleBody(policy.ID, 10))
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = postJSON(router, fmt.Sprintf("/rules/%d/toggle", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
}

func TestRuleHandler_GetAndDelete(t *testing.T) {
	router, _, policy := setupRuleRouter(t)

	w := postJSON(router, "/rules", ruleBody(policy.ID, 10))
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/rules/%d", created.ID), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/rules/%d", created.ID), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/rules/%d", created.ID), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuleHandler_InvalidID(t *testing.T) {
	router, _, _ := setupRuleRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rules/abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
