package grpc

import (
	"context"
	"net/http"

	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/VentixeAssignment/authservice/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthHandler implements AuthHandlerServer on top of the orchestrator.
// Domain failures are returned in the reply envelope with gRPC status OK;
// only malformed requests fail the call itself.
type AuthHandler struct {
	svc services.Orchestrator
}

func NewAuthHandler(svc services.Orchestrator) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// fields reads typed values out of a request Struct and remembers the first
// type mismatch.
type fields struct {
	s   *structpb.Struct
	err error
}

func (f *fields) value(name string) *structpb.Value {
	v, ok := f.s.GetFields()[name]
	if !ok || v == nil {
		return nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil
	}
	return v
}

func (f *fields) str(name string) string {
	v := f.value(name)
	if v == nil {
		return ""
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		f.fail(name, "a string")
		return ""
	}
	return s.StringValue
}

// boolean requires the field to be present.
func (f *fields) boolean(name string) bool {
	v := f.value(name)
	if v == nil {
		f.fail(name, "a boolean")
		return false
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		f.fail(name, "a boolean")
		return false
	}
	return b.BoolValue
}

func (f *fields) fail(name, want string) {
	if f.err == nil {
		f.err = status.Errorf(codes.InvalidArgument, "field %q must be %s", name, want)
	}
}

// reply builds the envelope. okStatus is used for successful results.
func reply(res models.AuthResult, okStatus int, extra map[string]*structpb.Value) *structpb.Struct {
	code := res.Status()
	if res.Success {
		code = okStatus
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"success":    structpb.NewBoolValue(res.Success),
		"statusCode": structpb.NewNumberValue(float64(code)),
		"message":    structpb.NewStringValue(res.Message),
	}}
	if res.Success {
		for k, v := range extra {
			out.Fields[k] = v
		}
	}
	return out
}

func dataFields(res models.AuthResult, keys ...string) map[string]*structpb.Value {
	if res.Data == nil {
		return nil
	}
	all := map[string]string{"id": res.Data.ID, "email": res.Data.Email, "userName": res.Data.UserName}
	out := make(map[string]*structpb.Value, len(keys))
	for _, k := range keys {
		out[k] = structpb.NewStringValue(all[k])
	}
	return out
}

func (h *AuthHandler) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	login := f.str("userName")
	if login == "" {
		login = f.str("email")
	}
	password := f.str("password")
	if f.err != nil {
		return nil, f.err
	}

	res := h.svc.SignIn(ctx, login, password)
	extra := map[string]*structpb.Value{"token": structpb.NewStringValue(res.Token)}
	for k, v := range dataFields(res, "id", "email") {
		extra[k] = v
	}
	return reply(res, http.StatusOK, extra), nil
}

func (h *AuthHandler) SignOut(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return reply(h.svc.SignOut(ctx), http.StatusOK, nil), nil
}

func (h *AuthHandler) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	p := services.CreateUserParams{
		Email:     f.str("email"),
		Password:  f.str("password"),
		UserName:  f.str("userName"),
		FirstName: f.str("firstName"),
		LastName:  f.str("lastName"),
	}
	if f.err != nil {
		return nil, f.err
	}

	res := h.svc.CreateUser(ctx, p)
	return reply(res, http.StatusCreated, dataFields(res, "id")), nil
}

func (h *AuthHandler) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	id, email := f.str("id"), f.str("email")
	if f.err != nil {
		return nil, f.err
	}
	return reply(h.svc.UpdateUser(ctx, id, email), http.StatusOK, nil), nil
}

func (h *AuthHandler) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	id, current, next := f.str("id"), f.str("currentPassword"), f.str("newPassword")
	if f.err != nil {
		return nil, f.err
	}
	return reply(h.svc.ChangePassword(ctx, id, current, next), http.StatusOK, nil), nil
}

func (h *AuthHandler) ChangeActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	id, active := f.str("id"), f.boolean("active")
	if f.err != nil {
		return nil, f.err
	}
	return reply(h.svc.ChangeActive(ctx, id, active), http.StatusOK, nil), nil
}

func (h *AuthHandler) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	id := f.str("id")
	if f.err != nil {
		return nil, f.err
	}
	return reply(h.svc.DeleteUser(ctx, id), http.StatusOK, nil), nil
}

func (h *AuthHandler) VerifyEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	email, code := f.str("email"), f.str("code")
	if f.err != nil {
		return nil, f.err
	}
	return reply(h.svc.VerifyEmail(ctx, email, code), http.StatusOK, nil), nil
}

func (h *AuthHandler) SendVerificationCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	email := f.str("email")
	if f.err != nil {
		return nil, f.err
	}
	return reply(h.svc.SendVerificationCode(ctx, email), http.StatusOK, nil), nil
}

// UserExists reports a miss as a successful call with exists=false.
func (h *AuthHandler) UserExists(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	email := f.str("email")
	if f.err != nil {
		return nil, f.err
	}

	res := h.svc.UserExists(ctx, email)
	if !res.Success && res.Status() != http.StatusNotFound {
		return reply(res, http.StatusOK, nil), nil
	}
	out := reply(models.Ok(res.Message), http.StatusOK, nil)
	out.Fields["exists"] = structpb.NewBoolValue(res.Success)
	return out, nil
}

func (h *AuthHandler) GetUserEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	id := f.str("id")
	if f.err != nil {
		return nil, f.err
	}
	res := h.svc.GetUserEmail(ctx, id)
	return reply(res, http.StatusOK, dataFields(res, "email")), nil
}

func (h *AuthHandler) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{s: req}
	token := f.str("token")
	if f.err != nil {
		return nil, f.err
	}
	res := h.svc.ValidateToken(ctx, token)
	out := reply(res, http.StatusOK, dataFields(res, "email"))
	if res.Success && res.Data != nil {
		out.Fields["userId"] = structpb.NewStringValue(res.Data.ID)
	}
	return out, nil
}

var _ AuthHandlerServer = (*AuthHandler)(nil)
