package httpapi

import (
	"context"
	"sync"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/VentixeAssignment/authservice/internal/server/services"
)

// fakeOrchestrator returns canned results per operation and records the
// arguments of the last call.
type fakeOrchestrator struct {
	mu       sync.Mutex
	results  map[string]models.AuthResult
	calls    []string
	lastArgs []any
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{results: map[string]models.AuthResult{}}
}

func (f *fakeOrchestrator) record(op string, args ...any) models.AuthResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	f.lastArgs = args
	if r, ok := f.results[op]; ok {
		return r
	}
	return models.Ok(op + " done")
}

func (f *fakeOrchestrator) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeOrchestrator) args() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastArgs
}

func (f *fakeOrchestrator) SignIn(_ context.Context, login, password string) models.AuthResult {
	return f.record("SignIn", login, password)
}

func (f *fakeOrchestrator) SignOut(context.Context) models.AuthResult {
	return f.record("SignOut")
}

func (f *fakeOrchestrator) CreateUser(_ context.Context, p services.CreateUserParams) models.AuthResult {
	return f.record("CreateUser", p)
}

func (f *fakeOrchestrator) UpdateUser(_ context.Context, id, email string) models.AuthResult {
	return f.record("UpdateUser", id, email)
}

func (f *fakeOrchestrator) ChangePassword(_ context.Context, id, current, next string) models.AuthResult {
	return f.record("ChangePassword", id, current, next)
}

func (f *fakeOrchestrator) DeleteUser(_ context.Context, id string) models.AuthResult {
	return f.record("DeleteUser", id)
}

func (f *fakeOrchestrator) ChangeActive(_ context.Context, id string, active bool) models.AuthResult {
	return f.record("ChangeActive", id, active)
}

func (f *fakeOrchestrator) SendVerificationCode(_ context.Context, email string) models.AuthResult {
	return f.record("SendVerificationCode", email)
}

func (f *fakeOrchestrator) VerifyEmail(_ context.Context, email, code string) models.AuthResult {
	return f.record("VerifyEmail", email, code)
}

func (f *fakeOrchestrator) UserExists(_ context.Context, email string) models.AuthResult {
	return f.record("UserExists", email)
}

func (f *fakeOrchestrator) GetUserEmail(_ context.Context, id string) models.AuthResult {
	return f.record("GetUserEmail", id)
}

// ValidateToken accepts only the token "good", which belongs to user u-1.
func (f *fakeOrchestrator) ValidateToken(_ context.Context, token string) models.AuthResult {
	f.record("ValidateToken", token)
	if token != "good" {
		return models.Fail(common.KindUnauthorized, "Invalid or expired token.")
	}
	r := models.Ok("Token is valid.")
	r.Data = &models.UserView{ID: "u-1", Email: "a@b.com"}
	return r
}

var _ services.Orchestrator = (*fakeOrchestrator)(nil)
