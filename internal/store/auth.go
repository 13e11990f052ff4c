package store

import (
	"context"
	"crypto/subtle"

	"StockTracker/internal/apperr"
)

// Op names a mutating store operation for authorization.
type Op string

const (
	OpReplaceAll Op = "replace_all"
	OpAppend     Op = "append"
	OpUpdate     Op = "update"
	OpRecordExit Op = "record_exit"
	OpDelete     Op = "delete"
)

// Authorizer decides whether the caller carried by ctx may perform op.
type Authorizer interface {
	Authorize(ctx context.Context, op Op) error
}

// AllowAll permits every operation. Used for local CLI access and when no
// access code is configured.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, Op) error { return nil }

// AccessCode gates mutations behind a shared static code.
type AccessCode struct {
	Code string
}

func (a AccessCode) Authorize(ctx context.Context, _ Op) error {
	given, _ := CredentialFrom(ctx)
	if given == "" {
		return apperr.Unauthorized("access code required")
	}
	if subtle.ConstantTimeCompare([]byte(given), []byte(a.Code)) != 1 {
		return apperr.Unauthorized("invalid access code")
	}
	return nil
}

type credentialKey struct{}

// WithCredential attaches the caller's credential to ctx.
func WithCredential(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, credentialKey{}, code)
}

// CredentialFrom returns the credential attached by WithCredential.
func CredentialFrom(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(credentialKey{}).(string)
	return code, ok
}
