package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitgroup/internal/auth"
	"github.com/mmynk/splitgroup/internal/metrics"
	"github.com/mmynk/splitgroup/internal/models"
)

const (
	publicProcedure  = "/test.v1.TestService/Public"
	privateProcedure = "/test.v1.TestService/Private"
	failProcedure    = "/test.v1.TestService/Fail"
)

// setupServer serves three empty procedures behind the auth and observe interceptors.
// The private one echoes the authenticated user ID back in a response header.
func setupServer(t *testing.T, jwtManager *auth.JWTManager, m *metrics.Metrics) string {
	t.Helper()

	opts := connect.WithInterceptors(RequireAuth(jwtManager, publicProcedure), Observe(m))
	echo := func(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
		resp := connect.NewResponse(&emptypb.Empty{})
		resp.Header().Set("X-User-Id", GetUserID(ctx))
		resp.Header().Set("X-Email", GetEmail(ctx))
		return resp, nil
	}
	fail := func(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("nothing here"))
	}

	mux := http.NewServeMux()
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, echo, opts))
	mux.Handle(privateProcedure, connect.NewUnaryHandler(privateProcedure, echo, opts))
	mux.Handle(failProcedure, connect.NewUnaryHandler(failProcedure, fail, opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func call(t *testing.T, baseURL, procedure, authHeader string) (*connect.Response[emptypb.Empty], error) {
	t.Helper()
	client := connect.NewClient[emptypb.Empty, emptypb.Empty](http.DefaultClient, baseURL+procedure)
	req := connect.NewRequest(&emptypb.Empty{})
	if authHeader != "" {
		req.Header().Set("Authorization", authHeader)
	}
	return client.CallUnary(context.Background(), req)
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	baseURL := setupServer(t, jwtManager, nil)

	user := &models.User{ID: "user-1", Email: "alice@example.com"}
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	otherToken, err := auth.NewJWTManager("other-secret", time.Hour).Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name      string
		procedure string
		header    string
		wantCode  connect.Code // 0 means success
		wantUser  string
	}{
		{"public without token", publicProcedure, "", 0, ""},
		{"private with token", privateProcedure, "Bearer " + token, 0, "user-1"},
		{"private without token", privateProcedure, "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", privateProcedure, "Basic " + token, connect.CodeUnauthenticated, ""},
		{"empty bearer", privateProcedure, "Bearer ", connect.CodeUnauthenticated, ""},
		{"malformed token", privateProcedure, "Bearer abc.def.ghi", connect.CodeUnauthenticated, ""},
		{"token from another secret", privateProcedure, "Bearer " + otherToken, connect.CodeUnauthenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := call(t, baseURL, tt.procedure, tt.header)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if got := resp.Header().Get("X-User-Id"); got != tt.wantUser {
					t.Errorf("user ID: expected %q, got %q", tt.wantUser, got)
				}
				return
			}
			if got := connect.CodeOf(err); got != tt.wantCode {
				t.Errorf("expected %v, got %v (%v)", tt.wantCode, got, err)
			}
		})
	}
}

func TestRequireAuth_ExposesEmail(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	baseURL := setupServer(t, jwtManager, nil)

	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	resp, err := call(t, baseURL, privateProcedure, "Bearer "+token)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if got := resp.Header().Get("X-Email"); got != "alice@example.com" {
		t.Errorf("email: expected alice@example.com, got %q", got)
	}
}

func TestObserve_RecordsMetrics(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	baseURL := setupServer(t, jwtManager, m)

	if _, err := call(t, baseURL, publicProcedure, ""); err != nil {
		t.Fatalf("public call failed: %v", err)
	}
	if _, err := call(t, baseURL, publicProcedure, ""); err != nil {
		t.Fatalf("public call failed: %v", err)
	}
	if _, err := call(t, baseURL, failProcedure, ""); connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues(publicProcedure, "ok")); got != 2 {
		t.Errorf("ok count: expected 2, got %v", got)
	}
	// Rejected by auth before reaching the observer.
	if got := testutil.CollectAndCount(m.RPCRequests); got != 1 {
		t.Errorf("series: expected 1, got %d", got)
	}
}

func TestObserve_RecordsErrorCode(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	baseURL := setupServer(t, jwtManager, m)

	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err = call(t, baseURL, failProcedure, "Bearer "+token)
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues(failProcedure, connect.CodeNotFound.String())); got != 1 {
		t.Errorf("not_found count: expected 1, got %v", got)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if GetUserID(ctx) != "" || GetEmail(ctx) != "" {
		t.Error("expected empty identity on bare context")
	}

	ctx = WithUser(ctx, "user-1", "alice@example.com")
	if got := GetUserID(ctx); got != "user-1" {
		t.Errorf("user ID: expected user-1, got %q", got)
	}
	if got := GetEmail(ctx); got != "alice@example.com" {
		t.Errorf("email: expected alice@example.com, got %q", got)
	}
}
