package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitgroup/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email, name string) *models.User {
	t.Helper()

	user := models.NewUser(email, name, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")

	t.Run("GetUserByEmail is case insensitive", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "ALICE@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != alice.ID {
			t.Errorf("got user %s, want %s", got.ID, alice.ID)
		}
	})

	t.Run("GetUserByEmail unknown email", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetUserByID", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.DisplayName != "Bob" || got.Email != "bob@example.com" {
			t.Errorf("unexpected user: %+v", got)
		}

		if _, err := store.GetUserByID(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Alice 2", "hash")
		if err := store.CreateUser(ctx, dup); err == nil {
			t.Error("expected error for duplicate email")
		}
	})

	t.Run("GetUsersByIDs omits unknown", func(t *testing.T) {
		users, err := store.GetUsersByIDs(ctx, []string{alice.ID, "missing", bob.ID})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
		if users[alice.ID] == nil || users[bob.ID] == nil {
			t.Errorf("missing expected users: %v", users)
		}
	})

	t.Run("GetUsersByIDs empty input", func(t *testing.T) {
		users, err := store.GetUsersByIDs(ctx, nil)
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 0 {
			t.Errorf("expected no users, got %d", len(users))
		}
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")
	carol := createUser(t, store, "carol@example.com", "Carol")

	group := &models.Group{Name: "Flat", CreatedBy: alice.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("CreateGroup generates ID and adds creator", func(t *testing.T) {
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if len(group.Members) != 1 || group.Members[0] != alice.ID {
			t.Errorf("Expected creator as sole member, got %v", group.Members)
		}
	})

	t.Run("AddGroupMember preserves insertion order", func(t *testing.T) {
		if err := store.AddGroupMember(ctx, group.ID, carol.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		if err := store.AddGroupMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		want := []string{alice.ID, carol.ID, bob.ID}
		if len(got.Members) != len(want) {
			t.Fatalf("members = %v, want %v", got.Members, want)
		}
		for i := range want {
			if got.Members[i] != want[i] {
				t.Errorf("members[%d] = %s, want %s", i, got.Members[i], want[i])
			}
		}
	})

	t.Run("AddGroupMember duplicate fails", func(t *testing.T) {
		if err := store.AddGroupMember(ctx, group.ID, bob.ID); err == nil {
			t.Error("expected error for duplicate membership")
		}
	})

	t.Run("AddGroupMember unknown group", func(t *testing.T) {
		err := store.AddGroupMember(ctx, "missing", bob.ID)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RemoveGroupMember", func(t *testing.T) {
		if err := store.RemoveGroupMember(ctx, group.ID, carol.ID); err != nil {
			t.Fatalf("RemoveGroupMember failed: %v", err)
		}
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.HasMember(carol.ID) {
			t.Error("carol should have been removed")
		}
		if len(got.Members) != 2 {
			t.Errorf("expected 2 members, got %v", got.Members)
		}

		err = store.RemoveGroupMember(ctx, group.ID, carol.ID)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second removal, got %v", err)
		}
	})

	t.Run("re-added member goes to the end", func(t *testing.T) {
		if err := store.AddGroupMember(ctx, group.ID, carol.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		got, _ := store.GetGroup(ctx, group.ID)
		if got.Members[len(got.Members)-1] != carol.ID {
			t.Errorf("expected carol last, got %v", got.Members)
		}
	})

	t.Run("GetGroup not found", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroupsForMember", func(t *testing.T) {
		other := &models.Group{Name: "Trip", CreatedBy: bob.ID}
		if err := store.CreateGroup(ctx, other); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		bobGroups, err := store.ListGroupsForMember(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListGroupsForMember failed: %v", err)
		}
		if len(bobGroups) != 2 {
			t.Fatalf("expected bob in 2 groups, got %d", len(bobGroups))
		}
		if bobGroups[0].ID != other.ID {
			t.Errorf("expected newest group first, got %s", bobGroups[0].Name)
		}
		for _, g := range bobGroups {
			if len(g.Members) == 0 {
				t.Errorf("group %s has no members", g.Name)
			}
		}

		aliceGroups, err := store.ListGroupsForMember(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListGroupsForMember failed: %v", err)
		}
		if len(aliceGroups) != 1 {
			t.Errorf("expected alice in 1 group, got %d", len(aliceGroups))
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	group := &models.Group{Name: "Flat", CreatedBy: alice.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("CreateExpense keeps exact amount", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Rent",
			Amount:      decimal.RequireFromString("1234.5678"),
			PaidBy:      alice.ID,
			CreatedBy:   alice.ID,
			CreatedAt:   100,
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 1 {
			t.Fatalf("expected 1 expense, got %d", len(expenses))
		}
		if !expenses[0].Amount.Equal(expense.Amount) {
			t.Errorf("amount = %s, want %s", expenses[0].Amount, expense.Amount)
		}
		if expenses[0].Description != "Rent" || expenses[0].PaidBy != alice.ID {
			t.Errorf("unexpected expense: %+v", expenses[0])
		}
	})

	t.Run("ListExpensesByGroup newest first", func(t *testing.T) {
		for _, e := range []*models.Expense{
			{Description: "Older", CreatedAt: 50},
			{Description: "Newer", CreatedAt: 200},
			{Description: "Same second later insert", CreatedAt: 200},
		} {
			e.GroupID = group.ID
			e.Amount = decimal.NewFromInt(1)
			e.PaidBy = alice.ID
			e.CreatedBy = alice.ID
			if err := store.CreateExpense(ctx, e); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		want := []string{"Same second later insert", "Newer", "Rent", "Older"}
		if len(expenses) != len(want) {
			t.Fatalf("expected %d expenses, got %d", len(want), len(expenses))
		}
		for i, w := range want {
			if expenses[i].Description != w {
				t.Errorf("expenses[%d] = %q, want %q", i, expenses[i].Description, w)
			}
		}
	})

	t.Run("expenses survive payer removal", func(t *testing.T) {
		bob := createUser(t, store, "bob@example.com", "Bob")
		if err := store.AddGroupMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		err := store.CreateExpense(ctx, &models.Expense{
			GroupID: group.ID, Description: "Bob paid", Amount: decimal.NewFromInt(30),
			PaidBy: bob.ID, CreatedBy: bob.ID,
		})
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.RemoveGroupMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("RemoveGroupMember failed: %v", err)
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		found := false
		for _, e := range expenses {
			if e.PaidBy == bob.ID {
				found = true
			}
		}
		if !found {
			t.Error("expected bob's expense to remain after removal")
		}
	})

	t.Run("empty group has no expenses", func(t *testing.T) {
		expenses, err := store.ListExpensesByGroup(ctx, "no-such-group")
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("expected no expenses, got %d", len(expenses))
		}
	})
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "?"},
		{2, "?, ?"},
		{4, "?, ?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
