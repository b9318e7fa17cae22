package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserDisabled = errors.New("user disabled")
)

// Servicio que valida tokens: localmente si hay secreto compartido, o
// consultando al microservicio externo de autenticación.
type AuthService struct {
	authURL   string
	jwtSecret []byte
	client    *http.Client
}

type AuthUser struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Login       string   `json:"login"`
	Enabled     bool     `json:"enabled"`
}

type authClaims struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

func NewAuthService(authURL, jwtSecret string) *AuthService {
	a := &AuthService{
		authURL: authURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	if jwtSecret != "" {
		a.jwtSecret = []byte(jwtSecret)
	}
	return a
}

func (a *AuthService) ValidateToken(ctx context.Context, token string) (*AuthUser, error) {
	if a.jwtSecret != nil {
		return a.validateLocal(token)
	}
	return a.validateRemote(ctx, token)
}

// Tokens HS256 firmados por el proveedor de identidad con el secreto compartido.
func (a *AuthService) validateLocal(token string) (*AuthUser, error) {
	var claims authClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &AuthUser{
		ID:          claims.UserID,
		Name:        claims.Name,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		Enabled:     true,
	}, nil
}

// Valida el token consultando a /users/current del microservicio de auth.
func (a *AuthService) validateRemote(ctx context.Context, token string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users/current", a.authURL), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}

	if !user.Enabled {
		return nil, ErrUserDisabled
	}
	if user.Email == "" {
		user.Email = user.Login
	}

	return &user, nil
}
