package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitgroup/internal/auth"
	"github.com/mmynk/splitgroup/internal/feed"
	"github.com/mmynk/splitgroup/internal/membership"
	"github.com/mmynk/splitgroup/internal/metrics"
	"github.com/mmynk/splitgroup/internal/middleware"
	"github.com/mmynk/splitgroup/internal/models"
	"github.com/mmynk/splitgroup/internal/storage"
)

// GroupService implements the GroupService RPC interface.
type GroupService struct {
	store    storage.Store
	notifier *feed.Notifier
	metrics  *metrics.Metrics
}

// NewGroupService creates a new GroupService with the given storage backend.
// Membership changes are announced on notifier.
func NewGroupService(store storage.Store, notifier *feed.Notifier, m *metrics.Metrics) *GroupService {
	return &GroupService{store: store, notifier: notifier, metrics: m}
}

// actingUser returns the authenticated caller. Every guarded operation takes it explicitly.
func actingUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", toConnectError(auth.ErrMissingToken)
	}
	return userID, nil
}

// viewableGroup loads a group and checks the caller is one of its members.
func viewableGroup(ctx context.Context, store storage.Store, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group_id required", models.ErrInvalidInput)
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := membership.CheckView(group, userID); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) groupMessage(ctx context.Context, group *models.Group) (*Group, error) {
	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member names: %w", err)
	}
	return toGroupMessage(group, users), nil
}

// CreateGroup creates a new group with the caller as creator and sole member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("CreateGroup request received", "name", name, "user_id", userID)

	if name == "" {
		return nil, toConnectError(fmt.Errorf("%w: group name is required", models.ErrInvalidInput))
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: userID,
	}

	// Save to storage (generates ID, CreatedAt and the creator membership)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	msg, err := s.groupMessage(ctx, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&CreateGroupResponse{Group: msg}), nil
}

// ListGroups returns the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.store.ListGroupsForMember(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	// Resolve every member name in one lookup.
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.Members...)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, toConnectError(err)
	}

	msgs := make([]*Group, len(groups))
	for i, g := range groups {
		msgs[i] = toGroupMessage(g, users)
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&ListGroupsResponse{Groups: msgs}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := viewableGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	msg, err := s.groupMessage(ctx, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetGroupResponse{Group: msg}), nil
}

// AddMember adds a registered user, looked up by email, to the group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "user_id", userID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := membership.CheckAddPermission(group, userID); err != nil {
		return nil, toConnectError(err)
	}

	email, err := models.ParseEmail(req.Msg.Email)
	if err != nil {
		return nil, toConnectError(err)
	}
	target, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, toConnectError(fmt.Errorf("user with this email is not registered: %w", err))
	}

	if err := membership.CheckAdd(group, userID, target.ID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.AddGroupMember(ctx, group.ID, target.ID); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Publish(group.ID)

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	msg, err := s.groupMessage(ctx, updated)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "member_id", target.ID)
	return connect.NewResponse(&AddMemberResponse{
		Group: msg,
		Added: &Member{ID: target.ID, DisplayName: models.DisplayNameFor(map[string]*models.User{target.ID: target}, target.ID)},
	}), nil
}

// RemoveMember removes a member from the group. Only the creator may do this.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RemoveMember request received",
		"group_id", req.Msg.GroupID,
		"member_id", req.Msg.MemberID,
		"user_id", userID,
	)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := membership.CheckRemove(group, userID, req.Msg.MemberID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.RemoveGroupMember(ctx, group.ID, req.Msg.MemberID); err != nil {
		slog.Error("RemoveMember failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Publish(group.ID)

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	msg, err := s.groupMessage(ctx, updated)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Member removed", "group_id", group.ID, "member_id", req.Msg.MemberID)
	return connect.NewResponse(&RemoveMemberResponse{Group: msg}), nil
}

// GetGroupBalances recomputes balances and settlement suggestions for a group.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	userID, err := actingUser(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID)

	group, err := viewableGroup(ctx, s.store, groupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	ledger, err := loadLedger(ctx, s.store, group)
	if err != nil {
		slog.Error("GetGroupBalances failed - could not load ledger", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	balances, settlements := ledger.balances(s.metrics)

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"expenses_count", len(ledger.expenses),
		"members_count", len(balances),
		"settlements_count", len(settlements),
	)

	return connect.NewResponse(&GetGroupBalancesResponse{
		Balances:    balances,
		Settlements: settlements,
	}), nil
}
