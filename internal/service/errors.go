package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/splitgroup/internal/auth"
	"github.com/mmynk/splitgroup/internal/models"
)

// Reasons reported in the error detail of every mapped error.
const (
	ReasonNotFound        = "NOT_FOUND"
	ReasonUnauthorized    = "UNAUTHORIZED"
	ReasonInvalidInput    = "INVALID_INPUT"
	ReasonAlreadyExists   = "ALREADY_EXISTS"
	ReasonUnauthenticated = "UNAUTHENTICATED"
	ReasonInternal        = "INTERNAL"
)

// toConnectError maps domain errors to Connect codes and attaches a
// google.protobuf.Struct detail {reason, message} for clients.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code, reason := classify(err)
	connectErr = connect.NewError(code, err)

	detail, derr := structpb.NewStruct(map[string]any{
		"reason":  reason,
		"message": err.Error(),
	})
	if derr == nil {
		if d, derr := connect.NewErrorDetail(detail); derr == nil {
			connectErr.AddDetail(d)
		}
	}
	if code == connect.CodeInternal {
		slog.Error("Internal error", "error", err)
	}
	return connectErr
}

func classify(err error) (connect.Code, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return connect.CodeNotFound, ReasonNotFound
	case errors.Is(err, models.ErrUnauthorized):
		return connect.CodePermissionDenied, ReasonUnauthorized
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingName):
		return connect.CodeInvalidArgument, ReasonInvalidInput
	case errors.Is(err, auth.ErrEmailExists):
		return connect.CodeAlreadyExists, ReasonAlreadyExists
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return connect.CodeUnauthenticated, ReasonUnauthenticated
	default:
		return connect.CodeInternal, ReasonInternal
	}
}

// ErrorReason extracts the reason detail from an error returned by a client.
// Returns "" if the error carries none.
func ErrorReason(err error) string {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return ""
	}
	for _, d := range connectErr.Details() {
		msg, err := d.Value()
		if err != nil {
			continue
		}
		if st, ok := msg.(*structpb.Struct); ok {
			if reason, ok := st.GetFields()["reason"]; ok {
				return reason.GetStringValue()
			}
		}
	}
	return ""
}
