package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davicafu/hrlab/internal/shared/infra/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAuthUnavailable = errors.New("auth service unavailable")
	ErrTokenInvalid    = errors.New("token is not valid")
)

// Identity es la respuesta del servicio de autenticación para un token válido.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Active bool      `json:"active"`
}

// Client llama al servicio de autenticación externo. Todas las llamadas pasan
// por un circuit breaker: si el servicio encadena fallos, dejamos de insistir
// durante una ventana con backoff exponencial en lugar de degradar cada petición.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *utils.Breaker
	log     *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: utils.NewBreaker(5, 2*time.Second, 60*time.Second),
		log:     log,
	}
}

// VerifyToken valida un token contra el servicio de autenticación y devuelve
// la identidad asociada.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	var identity Identity

	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tokens/verify", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return json.NewDecoder(resp.Body).Decode(&identity)
		case resp.StatusCode == http.StatusUnauthorized:
			// Token inválido: respuesta legítima del servicio, no cuenta como fallo.
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: status %d", ErrAuthUnavailable, resp.StatusCode)
		default:
			return fmt.Errorf("unexpected auth service response: status %d", resp.StatusCode)
		}
	})
	if err != nil {
		if errors.Is(err, utils.ErrBreakerOpen) {
			c.log.Warn("🛑 Auth service breaker open, request short-circuited")
		}
		return nil, err
	}

	if identity.UserID == uuid.Nil || !identity.Active {
		return nil, ErrTokenInvalid
	}
	return &identity, nil
}

// GetUserEmail recupera el email registrado para un user_id.
func (c *Client) GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var out struct {
		Email string `json:"email"`
	}

	err := c.breaker.Execute(func() error {
		url := fmt.Sprintf("%s/v1/users/%s", c.baseURL, userID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", ErrAuthUnavailable, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected auth service response: status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return "", err
	}
	return out.Email, nil
}

// State expone el estado del breaker para el endpoint de health.
func (c *Client) State() utils.BreakerState {
	return c.breaker.State()
}
