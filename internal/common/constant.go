// Package common contains shared constants, sentinel errors and the result
// kind taxonomy used across the auth service.
package common

// AuthorizationHeaderName is the HTTP header / gRPC metadata key that carries
// a bearer token.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization header value.
const BearerPrefix = "Bearer "
