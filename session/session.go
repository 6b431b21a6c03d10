package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL bounds how long a respondent may take to fill in a survey.
const TTL = 24 * time.Hour

var ErrWrongSurvey = errors.New("session token was issued for another survey")

// Claims identify a respondent session, never a respondent.
type Claims struct {
	AccessCode string `json:"code"`
	jwt.RegisteredClaims
}

// Manager issues and verifies respondent session tokens.
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// Issue starts a new session on the survey with the given access code. The
// session id is carried as the token subject.
func (m *Manager) Issue(accessCode string) (token string, sessionID string, err error) {
	sessionID = uuid.NewString()
	now := m.now()
	claims := Claims{
		AccessCode: accessCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return
}

// Parse verifies token and returns its session id. The token must have been
// issued for accessCode.
func (m *Manager) Parse(token, accessCode string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid session token")
	}
	if claims.AccessCode != accessCode {
		return "", ErrWrongSurvey
	}
	if _, err = uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("invalid session id: %w", err)
	}
	return claims.Subject, nil
}
