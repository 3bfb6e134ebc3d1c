package models

import "github.com/VentixeAssignment/authservice/internal/common"

// AuthResult is the outcome of every account operation. A successful result
// carries no error message and KindNone; Token is only set by sign-in.
type AuthResult struct {
	Success      bool
	Data         *UserView
	Token        string
	Message      string
	ErrorMessage string
	Kind         common.ErrorKind
}

// Ok builds a successful result.
func Ok(message string) AuthResult {
	return AuthResult{Success: true, Message: message}
}

// OkWith builds a successful result carrying a user snapshot.
func OkWith(message string, u *User) AuthResult {
	return AuthResult{Success: true, Message: message, Data: u.View()}
}

// Fail builds a failed result. The message is both the human message and
// the error message so transports can use either.
func Fail(kind common.ErrorKind, message string) AuthResult {
	if kind == common.KindNone {
		kind = common.KindInternal
	}
	return AuthResult{Kind: kind, Message: message, ErrorMessage: message}
}

// Status is the transport status code for the result.
func (r AuthResult) Status() int {
	return common.HTTPStatus(r.Kind)
}
