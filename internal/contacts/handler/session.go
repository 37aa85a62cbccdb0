package handler

import (
	"errors"
	"net/http"
	"time"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/pkg/sealer"
)

type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// sessionCookies keeps the upload ID in a sealed cookie so clients never see or forge raw IDs.
type sessionCookies struct {
	sealer *sealer.Sealer
	cfg    CookieConfig
}

// uploadID returns "" when no cookie is present and ErrSessionInvalid when it cannot be opened.
func (s *sessionCookies) uploadID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.cfg.Name)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && cookie.Value == "") {
		return "", nil
	}
	if err != nil {
		return "", contactserrors.ErrSessionInvalid
	}

	id, err := s.sealer.Open(cookie.Value)
	if err != nil {
		return "", contactserrors.ErrSessionInvalid
	}
	return id, nil
}

func (s *sessionCookies) set(w http.ResponseWriter, uploadID string) error {
	token, err := s.sealer.Seal(uploadID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *sessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
