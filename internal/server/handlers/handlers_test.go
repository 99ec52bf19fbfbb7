package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mamadbah2/logidash/internal/repository/memory"
	"github.com/mamadbah2/logidash/internal/service/activity"
	"github.com/mamadbah2/logidash/internal/service/dashboard"
	"github.com/mamadbah2/logidash/internal/service/forms"
	"github.com/mamadbah2/logidash/internal/service/records"
	"github.com/mamadbah2/logidash/internal/service/view"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type testServer struct {
	store  *memory.Store
	engine *gin.Engine
}

func newTestServer(t *testing.T, strict bool) *testServer {
	t.Helper()

	store := memory.NewStore()
	opts := records.Options{StrictLifecycle: strict}
	shipments := records.NewShipments(store, store, opts)
	customers := records.NewCustomers(store, store, opts)
	customers.OnDelete(func(id string) { shipments.ForgetCustomer(id) })

	feed := activity.NewFeed(store, activity.DefaultSize, nil)
	require.NoError(t, feed.Start(context.Background()))
	t.Cleanup(func() {
		_ = feed.Close()
		_ = store.Close(context.Background())
	})

	validator := forms.NewValidator()
	sh := NewShipmentHandler(shipments, validator, nil)
	ch := NewCustomerHandler(customers, validator, nil)
	dh := NewDashboardHandler(dashboard.NewService(shipments, customers, feed, nil), feed, view.NewShell(), nil)

	r := gin.New()
	r.GET("/shipments", sh.List)
	r.POST("/shipments", sh.Create)
	r.POST("/shipments/refresh", sh.Refresh)
	r.GET("/shipments/:id/form", sh.Form)
	r.PUT("/shipments/:id", sh.Edit)
	r.PATCH("/shipments/:id", sh.Patch)
	r.DELETE("/shipments/:id", sh.Delete)
	r.GET("/customers", ch.List)
	r.POST("/customers", ch.Create)
	r.PATCH("/customers/:id", ch.Patch)
	r.DELETE("/customers/:id", ch.Delete)
	r.GET("/dashboard", dh.Dashboard)
	r.GET("/activities", dh.Activities)
	r.GET("/sections", dh.Sections)
	r.GET("/views/:section", dh.Navigate)

	return &testServer{store: store, engine: r}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (s *testServer) createCustomer(t *testing.T) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/customers", gin.H{"name": "Fatou Diallo", "email": "fatou@acme.test", "company": "Acme Co"})
	require.Equal(t, http.StatusCreated, code, body)
	return body["customer"].(map[string]any)["id"].(string)
}

func shipmentBody(customerID, reference string) gin.H {
	return gin.H{
		"reference":          reference,
		"customer_id":        customerID,
		"origin":             "Shanghai",
		"destination":        "Conakry",
		"type":               "import",
		"status":             "pending",
		"value":              12500.5,
		"weight":             "830",
		"estimated_delivery": "2024-07-15",
		"carrier":            "Maersk",
	}
}

func (s *testServer) createShipment(t *testing.T, customerID, reference string) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/shipments", shipmentBody(customerID, reference))
	require.Equal(t, http.StatusCreated, code, body)
	return body["shipment"].(map[string]any)["id"].(string)
}

func TestCreateShipmentAndFilter(t *testing.T) {
	s := newTestServer(t, false)
	customerID := s.createCustomer(t)

	code, body := s.do(t, http.MethodPost, "/shipments", shipmentBody(customerID, "SH-2024-001"))
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]any{"kind": "closed"}, body["modal"])
	s.createShipment(t, customerID, "EXP-100")

	code, body = s.do(t, http.MethodGet, "/shipments?search=sh-2024", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["shipments"], 1)
	assert.EqualValues(t, 2, body["total"])

	code, body = s.do(t, http.MethodGet, "/shipments?status=delivered", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["shipments"])

	code, _ = s.do(t, http.MethodGet, "/shipments?status=Pending", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/customers?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateShipmentValidation(t *testing.T) {
	s := newTestServer(t, false)

	form := shipmentBody("c1", "")
	form["value"] = "-1"
	code, body := s.do(t, http.MethodPost, "/shipments", form)
	require.Equal(t, http.StatusBadRequest, code)

	fields := body["fields"].(map[string]any)
	assert.Equal(t, "Reference is required", fields["reference"])
	assert.Equal(t, "Value must be positive", fields["value"])

	code, _ = s.do(t, http.MethodPost, "/shipments", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDuplicateReferenceIsBadRequest(t *testing.T) {
	s := newTestServer(t, false)
	customerID := s.createCustomer(t)
	s.createShipment(t, customerID, "SH-1")

	code, body := s.do(t, http.MethodPost, "/shipments", shipmentBody(customerID, "SH-1"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Failed to create shipment", body["error"])
}

func TestPatchShipment(t *testing.T) {
	s := newTestServer(t, false)
	id := s.createShipment(t, s.createCustomer(t), "SH-1")

	code, body := s.do(t, http.MethodPatch, "/shipments/"+id, gin.H{"status": "in-transit"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "in-transit", body["shipment"].(map[string]any)["status"])

	code, _ = s.do(t, http.MethodPatch, "/shipments/"+id, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodPatch, "/shipments/missing", gin.H{"status": "delayed"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Failed to update shipment", body["error"])
}

func TestStrictLifecycleConflict(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createShipment(t, s.createCustomer(t), "SH-1")

	code, _ := s.do(t, http.MethodPatch, "/shipments/"+id, gin.H{"status": "delivered"})
	require.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPatch, "/shipments/"+id, gin.H{"status": "in-transit"})
	require.Equal(t, http.StatusOK, code)
}

func TestEditShipmentThroughForm(t *testing.T) {
	s := newTestServer(t, false)
	customerID := s.createCustomer(t)
	id := s.createShipment(t, customerID, "SH-1")

	code, body := s.do(t, http.MethodGet, "/shipments/"+id+"/form", nil)
	require.Equal(t, http.StatusOK, code)
	form := body["form"].(map[string]any)
	assert.Equal(t, "SH-1", form["reference"])
	assert.Equal(t, "12500.5", form["value"])

	form["carrier"] = "CMA CGM"
	code, body = s.do(t, http.MethodPut, "/shipments/"+id, form)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "CMA CGM", body["shipment"].(map[string]any)["carrier"])

	code, _ = s.do(t, http.MethodGet, "/shipments/missing/form", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteCustomerDropsShipments(t *testing.T) {
	s := newTestServer(t, false)
	customerID := s.createCustomer(t)
	s.createShipment(t, customerID, "SH-1")

	code, _ := s.do(t, http.MethodDelete, "/customers/"+customerID, nil)
	require.Equal(t, http.StatusNoContent, code)

	_, body := s.do(t, http.MethodGet, "/shipments", nil)
	assert.Empty(t, body["shipments"])
	_, body = s.do(t, http.MethodGet, "/customers", nil)
	assert.Empty(t, body["customers"])
}

func TestStoreFailureIsInternalError(t *testing.T) {
	s := newTestServer(t, false)
	s.store.FailWith(errors.New("connection reset"))

	code, body := s.do(t, http.MethodPost, "/shipments/refresh", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to fetch shipments", body["error"])

	code, _ = s.do(t, http.MethodDelete, "/shipments/x", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestDashboardAndNavigation(t *testing.T) {
	s := newTestServer(t, false)
	customerID := s.createCustomer(t)
	s.createShipment(t, customerID, "SH-1")

	code, body := s.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["recent_shipments"], 1)

	code, body = s.do(t, http.MethodGet, "/sections", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["sections"], 8)
	assert.Equal(t, "dashboard", body["active"])

	code, body = s.do(t, http.MethodGet, "/views/customers", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["customers"], 1)
	header := body["header"].(map[string]any)
	assert.Equal(t, "Customers", header["title"])
	assert.Equal(t, false, header["show_new_shipment"])

	code, body = s.do(t, http.MethodGet, "/views/nowhere", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dashboard", body["section"].(map[string]any)["id"])
	assert.Contains(t, body, "dashboard")
}

func TestActivitiesEndpoint(t *testing.T) {
	s := newTestServer(t, false)
	s.createShipment(t, s.createCustomer(t), "SH-1")

	require.Eventually(t, func() bool {
		_, body := s.do(t, http.MethodGet, "/activities", nil)
		items, _ := body["activities"].([]any)
		return len(items) > 0
	}, time.Second, 10*time.Millisecond)
}
