package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/models"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour

	refreshTokenBytes = 48
)

type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshToken is a freshly minted refresh secret. Token goes to the client,
// Hash goes to the database.
type RefreshToken struct {
	ID        uuid.UUID
	Token     string
	Hash      string
	ExpiresAt time.Time
}

type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	now func() time.Time
}

func NewIssuer(secret []byte) *Issuer {
	return &Issuer{
		Secret:     secret,
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) clock() time.Time {
	if i.now == nil {
		return time.Now()
	}
	return i.now()
}

func (i *Issuer) CreateAccessToken(user models.PublicUser) (string, time.Time, error) {
	iat := i.clock().Truncate(time.Second)
	exp := iat.Add(i.AccessTTL)

	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, exp, nil
}

// VerifyAccessToken returns nil for anything that is not a valid, unexpired
// HS256 token signed with the issuer's secret.
func (i *Issuer) VerifyAccessToken(tokenStr string) *AccessClaims {
	if tokenStr == "" {
		return nil
	}

	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return i.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil || !tkn.Valid {
		return nil
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil
	}
	return &claims
}

// UserID parses the subject claim.
func (c *AccessClaims) UserID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

func (i *Issuer) GenerateRefreshToken() (RefreshToken, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}
	token := hex.EncodeToString(buf)

	return RefreshToken{
		ID:        uuid.New(),
		Token:     token,
		Hash:      HashToken(token),
		ExpiresAt: i.clock().Add(i.RefreshTTL),
	}, nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
