package service

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPEngine generates shared secrets and verifies 6-digit codes with a
// ±2-step drift window, absorbing clock skew between the server and the
// user's authenticator device.
type TOTPEngine struct {
	Issuer     string
	Period     uint
	Skew       uint
	SecretSize uint
}

func NewTOTPEngine(issuer string) *TOTPEngine {
	return &TOTPEngine{
		Issuer:     issuer,
		Period:     30,
		Skew:       2,
		SecretSize: 32,
	}
}

func (e *TOTPEngine) GenerateSecret(accountEmail string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer(),
		AccountName: accountEmail,
		Period:      e.period(),
		SecretSize:  e.secretSize(),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (e *TOTPEngine) ValidateCode(secret string, code string) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    e.period(),
		Skew:      e.skew(),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (e *TOTPEngine) issuer() string {
	if strings.TrimSpace(e.Issuer) == "" {
		return "Performance Review System"
	}
	return e.Issuer
}

func (e *TOTPEngine) period() uint {
	if e.Period == 0 {
		return 30
	}
	return e.Period
}

func (e *TOTPEngine) skew() uint {
	if e.Skew == 0 {
		return 2
	}
	return e.Skew
}

func (e *TOTPEngine) secretSize() uint {
	if e.SecretSize == 0 {
		return 32
	}
	return e.SecretSize
}
