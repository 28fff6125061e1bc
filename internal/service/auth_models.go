package service

import (
	"time"

	"perfreview/internal/entity"

	"github.com/google/uuid"
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	JobTitle  string
	IsAdmin   bool
}

// AuthGrant is a completed login: a signed bearer token backed by a live
// session row.
type AuthGrant struct {
	Token     string
	ExpiresIn time.Duration
	User      *entity.User
}

// TwoFactorChallenge is the intermediate outcome of a password login for an
// account with 2FA enabled. No token exists yet; the client must complete
// VerifyTwoFactorAndAuthenticate with this user id.
type TwoFactorChallenge struct {
	UserID uuid.UUID
}

// LoginOutcome is a sum of the two mutually exclusive login results.
// Exactly one field is non-nil.
type LoginOutcome struct {
	Grant     *AuthGrant
	Challenge *TwoFactorChallenge
}

type TwoFactorSetup struct {
	Secret          string
	ProvisioningURI string
}
