package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitgroup/internal/auth"
	"github.com/mmynk/splitgroup/internal/feed"
	"github.com/mmynk/splitgroup/internal/metrics"
	"github.com/mmynk/splitgroup/internal/middleware"
	"github.com/mmynk/splitgroup/internal/storage/sqlite"
)

// testEnv is a full server on a temp database, reached through real Connect clients.
type testEnv struct {
	auth     *AuthServiceClient
	groups   *GroupServiceClient
	expenses *ExpenseServiceClient
	notifier *feed.Notifier
	metrics  *metrics.Metrics
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	notifier := feed.NewNotifier()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, PublicProcedures...),
		middleware.Observe(m),
	)

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), interceptors))
	mux.Handle(NewGroupServiceHandler(NewGroupService(store, notifier, m), interceptors))
	mux.Handle(NewExpenseServiceHandler(NewExpenseService(store, notifier, m), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		auth:     NewAuthServiceClient(server.Client(), server.URL),
		groups:   NewGroupServiceClient(server.Client(), server.URL),
		expenses: NewExpenseServiceClient(server.Client(), server.URL),
		notifier: notifier,
		metrics:  m,
	}
}

// testUser is a registered account and its bearer token.
type testUser struct {
	ID    string
	Email string
	Token string
}

func (e *testEnv) register(t *testing.T, email, name string) testUser {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return testUser{ID: resp.Msg.User.ID, Email: resp.Msg.User.Email, Token: resp.Msg.Token}
}

// as wraps msg in a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.Token)
	return req
}

func (e *testEnv) createGroup(t *testing.T, owner testUser, name string, members ...testUser) *Group {
	t.Helper()
	resp, err := e.groups.CreateGroup(context.Background(), as(owner, &CreateGroupRequest{Name: name}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	group := resp.Msg.Group
	for _, m := range members {
		added, err := e.groups.AddMember(context.Background(), as(owner, &AddMemberRequest{GroupID: group.ID, Email: m.Email}))
		if err != nil {
			t.Fatalf("AddMember(%s) failed: %v", m.Email, err)
		}
		group = added.Msg.Group
	}
	return group
}

func (e *testEnv) addExpense(t *testing.T, actor testUser, groupID, amount string, paidBy testUser) *Expense {
	t.Helper()
	resp, err := e.expenses.AddExpense(context.Background(), as(actor, &AddExpenseRequest{
		GroupID:     groupID,
		Description: "expense",
		Amount:      amount,
		PaidBy:      paidBy.ID,
	}))
	if err != nil {
		t.Fatalf("AddExpense(%s by %s) failed: %v", amount, paidBy.Email, err)
	}
	return resp.Msg.Expense
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%v)", want, connectErr.Code(), err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
