package storefront

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

var (
	ErrNotLoggedIn  = errors.New("session has no signed-in user")
	ErrInvalidPhone = errors.New("invalid M-Pesa phone number")
)

// Session carries everything one shopper's checkout needs. It is passed by
// pointer to the checkout and poller; nothing is looked up globally.
type Session struct {
	ID   uuid.UUID
	User models.User
	Cart Cart
}

func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

func (s *Session) SignIn(u models.User) {
	s.User = u
}

func (s *Session) SignedIn() bool {
	return s.User.ID != ""
}

// NormalizePhone turns 07XXXXXXXX, 01XXXXXXXX, +254XXXXXXXXX and
// 254XXXXXXXXX into the 254XXXXXXXXX form used for STK push.
func NormalizePhone(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	if strings.HasPrefix(p, "+") {
		if !strings.HasPrefix(p, "+254") {
			return "", ErrInvalidPhone
		}
		p = p[1:]
	}
	switch {
	case strings.HasPrefix(p, "0") && len(p) == 10:
		p = "254" + p[1:]
	case strings.HasPrefix(p, "254") && len(p) == 12:
	default:
		return "", ErrInvalidPhone
	}
	if p[3] != '7' && p[3] != '1' {
		return "", ErrInvalidPhone
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return p, nil
}
