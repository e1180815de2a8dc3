package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	orchestrationengine "adorchestra/contexts/campaign-orchestration/orchestration-engine"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	orchestrationhttp "adorchestra/contexts/campaign-orchestration/orchestration-engine/transport/http"
)

func newTestServer() *Server {
	total := 1000.0
	module := orchestrationengine.NewInMemoryModule(
		[]entities.Connection{
			{ConnectionID: "conn-meta", OrgID: "org-1", Platform: entities.PlatformMeta, AccessToken: "token", IsActive: true},
			{ConnectionID: "conn-google", OrgID: "org-1", Platform: entities.PlatformGoogle, AccessToken: "token", IsActive: true},
		},
		[]entities.Template{{
			TemplateID:         "tpl-launch",
			Name:               "Product Launch",
			Platforms:          []entities.Platform{entities.PlatformMeta, entities.PlatformGoogle},
			Distribution:       map[entities.Platform]float64{entities.PlatformMeta: 40, entities.PlatformGoogle: 60},
			DefaultTotalBudget: &total,
			IsActive:           true,
		}},
		nil,
	)
	return New(module, nil, "")
}

func serve(server *Server, method string, path string, body []byte, orgID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if orgID != "" {
		req.Header.Set("X-Org-Id", orgID)
		req.Header.Set("X-User-Id", "user-1")
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func createOrchestration(t *testing.T, server *Server) orchestrationhttp.CreateOrchestrationResponse {
	t.Helper()
	rr := serve(server, http.MethodPost, "/v1/orchestrations", []byte(`{"template_id":"tpl-launch"}`), "org-1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp orchestrationhttp.CreateOrchestrationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

func TestOrchestrationRoutesRequireTenantHeaders(t *testing.T) {
	server := newTestServer()
	rr := serve(server, http.MethodGet, "/v1/orchestrations", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateOrchestrationAllocatesBudget(t *testing.T) {
	server := newTestServer()
	resp := createOrchestration(t, server)

	if resp.Orchestration.Status != string(entities.OrchestrationStatusDraft) {
		t.Fatalf("expected draft orchestration, got %s", resp.Orchestration.Status)
	}
	if resp.Orchestration.BudgetAllocation["meta"] != 400 || resp.Orchestration.BudgetAllocation["google"] != 600 {
		t.Fatalf("unexpected allocation: %+v", resp.Orchestration.BudgetAllocation)
	}
	if len(resp.Mappings) != 2 {
		t.Fatalf("expected one mapping per platform, got %d", len(resp.Mappings))
	}
}

func TestCreateOrchestrationRejectsInvalidJSON(t *testing.T) {
	server := newTestServer()
	rr := serve(server, http.MethodPost, "/v1/orchestrations", []byte(`{`), "org-1")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateOrchestrationUnknownTemplate(t *testing.T) {
	server := newTestServer()
	rr := serve(server, http.MethodPost, "/v1/orchestrations", []byte(`{"template_id":"tpl-missing"}`), "org-1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDeployIsQueued(t *testing.T) {
	server := newTestServer()
	created := createOrchestration(t, server)

	rr := serve(server, http.MethodPost, "/v1/orchestrations/"+created.Orchestration.OrchestrationID+"/deploy", nil, "org-1")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rr.Code, rr.Body.String())
	}
	var queued orchestrationhttp.QueuedOperationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode queued response: %v", err)
	}
	if queued.EventID == "" || queued.Operation != "deploy" {
		t.Fatalf("unexpected queued response: %+v", queued)
	}
}

func TestGetOrchestrationIsTenantScoped(t *testing.T) {
	server := newTestServer()
	created := createOrchestration(t, server)
	path := "/v1/orchestrations/" + created.Orchestration.OrchestrationID

	if rr := serve(server, http.MethodGet, path, nil, "org-1"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := serve(server, http.MethodGet, path, nil, "org-2"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another org, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListSyncLogsRejectsInvalidLimit(t *testing.T) {
	server := newTestServer()
	created := createOrchestration(t, server)
	rr := serve(server, http.MethodGet, "/v1/orchestrations/"+created.Orchestration.OrchestrationID+"/sync-logs?limit=ten", nil, "org-1")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestBudgetUpdateIsQueued(t *testing.T) {
	server := newTestServer()
	created := createOrchestration(t, server)
	path := "/v1/orchestrations/" + created.Orchestration.OrchestrationID + "/platforms/meta/budget"

	rr := serve(server, http.MethodPut, path, []byte(`{"budget":450}`), "org-1")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rr.Code, rr.Body.String())
	}
	var queued orchestrationhttp.QueuedOperationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode queued response: %v", err)
	}
	if queued.Operation != "update_budget" || queued.EventType != "orchestration.update_budget_requested" {
		t.Fatalf("unexpected queued response: %+v", queued)
	}

	missing := "/v1/orchestrations/" + created.Orchestration.OrchestrationID + "/platforms/tiktok/budget"
	if rr := serve(server, http.MethodPut, missing, []byte(`{"budget":450}`), "org-1"); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a platform without mapping, got %d body=%s", rr.Code, rr.Body.String())
	}
}
