package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/idhini/core/document"
)

func Test_documentApi_submit(t *testing.T) {
	e := setup(t)
	staffToken := e.getToken(t, e.staff)
	adminToken := e.getToken(t, e.admin)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/documents",
			body:     marshallObj(t, document.NewDocument{Type: document.TypeRequisition, Title: "t", Body: "b"}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "validation: missing title", method: http.MethodPost, path: "/v1/documents",
			body:     marshallObj(t, document.NewDocument{Type: document.TypeRequisition, Body: "b"}),
			token:    staffToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "validation: unknown type", method: http.MethodPost, path: "/v1/documents",
			body:     marshallObj(t, document.NewDocument{Type: "memo", Title: "t", Body: "b"}),
			token:    staffToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "staff requisition starts at department head", method: http.MethodPost, path: "/v1/documents",
			body:     marshallObj(t, document.NewDocument{Type: document.TypeRequisition, Title: "Laptops", Body: "5 units", Department: "Sales"}),
			token:    staffToken,
			wantCode: http.StatusCreated,
			extra:    document.StatusPendingDeptHead,
		},
		{
			name: "admin requisition starts at admin stage", method: http.MethodPost, path: "/v1/documents",
			body:     marshallObj(t, document.NewDocument{Type: document.TypeRequisition, Title: "Chairs", Body: "2 units", Department: "Sales"}),
			token:    adminToken,
			wantCode: http.StatusCreated,
			extra:    document.StatusPendingAdmin,
		},
		{
			name: "staff proposal starts at marketing", method: http.MethodPost, path: "/v1/documents",
			body:     marshallObj(t, document.NewDocument{Type: document.TypeProposal, Title: "Campaign", Body: "details", Department: "Sales"}),
			token:    staffToken,
			wantCode: http.StatusCreated,
			extra:    document.StatusPendingMarketing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if wantStatus, ok := tt.extra.(document.Status); ok {
				var doc document.Document
				decodeBody(t, rec, &doc)
				if doc.Status != wantStatus {
					t.Errorf("submit status = %s, want %s", doc.Status, wantStatus)
				}
			}
		})
	}
}

func Test_documentApi_advance(t *testing.T) {
	e := setup(t)
	staffToken := e.getToken(t, e.staff)
	headToken := e.getToken(t, e.salesHead)
	adminToken := e.getToken(t, e.admin)

	submit := func(t *testing.T) document.Document {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/documents", staffToken,
			marshallObj(t, document.NewDocument{Type: document.TypeRequisition, Title: "Laptops", Body: "5 units", Department: "Sales"}))
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
		}
		var doc document.Document
		decodeBody(t, rec, &doc)
		return doc
	}
	advance := func(t *testing.T, id, token string, ad document.AdvanceDocument) *document.Document {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/advance", id), token, marshallObj(t, ad))
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("advance failed: %d %s", rec.Code, rec.Body.String())
		}
		var doc document.Document
		decodeBody(t, rec, &doc)
		return &doc
	}

	t.Run("full approval chain", func(t *testing.T) {
		doc := submit(t)

		got := advance(t, doc.ID, headToken, document.AdvanceDocument{Decision: document.DecisionApproved, Notes: "ok"})
		if got.Status != document.StatusPendingAdmin {
			t.Errorf("status = %s, want %s", got.Status, document.StatusPendingAdmin)
		}

		got = advance(t, doc.ID, adminToken, document.AdvanceDocument{Decision: document.DecisionApproved})
		if got.Status != document.StatusAdminApproved {
			t.Errorf("status = %s, want %s", got.Status, document.StatusAdminApproved)
		}
		if len(got.Stages) != 2 {
			t.Errorf("stages = %d, want 2", len(got.Stages))
		}
	})

	t.Run("unauthorized roles get 403", func(t *testing.T) {
		doc := submit(t)

		for name, token := range map[string]string{"owner": staffToken, "marketing": e.getToken(t, e.marketer)} {
			req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/advance", doc.ID), token,
				marshallObj(t, document.AdvanceDocument{Decision: document.DecisionApproved}))
			e.app.ServeHTTP(rec, req)
			if rec.Code != http.StatusForbidden {
				t.Errorf("%s advance code = %d, want %d", name, rec.Code, http.StatusForbidden)
			}
		}
	})

	t.Run("terminal document gets 409", func(t *testing.T) {
		doc := submit(t)
		advance(t, doc.ID, headToken, document.AdvanceDocument{Decision: document.DecisionRejected, Notes: "no budget"})

		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/advance", doc.ID), adminToken,
			marshallObj(t, document.AdvanceDocument{Decision: document.DecisionApproved}))
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("advance code = %d, want %d (body: %s)", rec.Code, http.StatusConflict, rec.Body.String())
		}
	})

	t.Run("unknown document gets 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/documents/nope/advance", adminToken,
			marshallObj(t, document.AdvanceDocument{Decision: document.DecisionApproved}))
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("advance code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("invalid decision gets 400", func(t *testing.T) {
		doc := submit(t)
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/advance", doc.ID), headToken,
			marshallObj(t, document.AdvanceDocument{Decision: "maybe"}))
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("advance code = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_documentApi_query(t *testing.T) {
	e := setup(t)
	staffToken := e.getToken(t, e.staff)
	adminToken := e.getToken(t, e.admin)

	req, rec := newAuthRequest(http.MethodPost, "/v1/documents", staffToken,
		marshallObj(t, document.NewDocument{Type: document.TypeRequisition, Title: "Laptops", Body: "5 units", Department: "Sales"}))
	e.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}
	var doc document.Document
	decodeBody(t, rec, &doc)

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents", adminToken)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query code = %d", rec.Code)
		}
		var docs []document.Document
		decodeBody(t, rec, &docs)
		if len(docs) != 1 || docs[0].ID != doc.ID {
			t.Errorf("query = %+v, want the submitted document", docs)
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents?status=Admin_Approved", adminToken)
		e.app.ServeHTTP(rec, req)
		var docs []document.Document
		decodeBody(t, rec, &docs)
		if len(docs) != 0 {
			t.Errorf("query = %+v, want none", docs)
		}
	})

	t.Run("detail", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents/"+doc.ID, staffToken)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("detail code = %d", rec.Code)
		}
		var got document.Document
		decodeBody(t, rec, &got)
		if got.ID != doc.ID {
			t.Errorf("detail = %s, want %s", got.ID, doc.ID)
		}
	})

	t.Run("detail not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents/nope", staffToken)
		e.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("detail code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
