package providers

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// StateAudience es el audience esperado en los state del login externo.
const StateAudience = "external-login-state"

var (
	ErrStateInvalid = errors.New("invalid state token")
	ErrStateScheme  = errors.New("state scheme mismatch")
)

// StateClaims viaja firmado en el parámetro state del challenge externo.
type StateClaims struct {
	Scheme    string `json:"scheme"`
	ReturnURL string `json:"return_url,omitempty"`
	// Nonce también queda en una cookie del browser que inició el challenge.
	Nonce     string `json:"nonce"`
	jwtv5.RegisteredClaims
}

// StateSigner firma y valida states HS256.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(key []byte, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateSigner{key: key, ttl: ttl, now: time.Now}
}

func (s *StateSigner) Sign(scheme, returnURL, nonce string) (string, error) {
	now := s.now().UTC()
	claims := StateClaims{
		Scheme:    scheme,
		ReturnURL: returnURL,
		Nonce:     nonce,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Audience:  jwtv5.ClaimStrings{StateAudience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse valida firma, expiración y audience. scheme vacío no se compara.
func (s *StateSigner) Parse(raw, scheme string) (*StateClaims, error) {
	var claims StateClaims
	_, err := jwtv5.ParseWithClaims(raw, &claims,
		func(*jwtv5.Token) (any, error) { return s.key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithAudience(StateAudience),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, ErrStateInvalid
	}
	if scheme != "" && claims.Scheme != scheme {
		return nil, ErrStateScheme
	}
	return &claims, nil
}
