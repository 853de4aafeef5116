// Package bankapi adaptadores HTTP hacia los servicios remotos del banco
// (servicio de usuarios y servicio bancario).
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okojic12722rn/banka-provisioning/internal/domain"
)

const maxResponseBytes = 64 * 1024

// CallObserver recibe la duración y el status de cada llamada remota (métricas).
type CallObserver interface {
	ObserveRemoteCall(op string, statusCode int, elapsed time.Duration)
}

type tokenKey struct{}
type requestIDKey struct{}

// WithBearerToken guarda en ctx el token del operador; se reenvía como Authorization.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// WithRequestID guarda en ctx el id de la petición entrante; se reenvía como X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func bearerToken(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

func requestID(ctx context.Context) string {
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		return id
	}
	return uuid.New().String()
}

// Client cliente JSON compartido por los adaptadores de un mismo servicio.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   CallObserver
}

// NewClient construye el cliente. observer puede ser nil.
func NewClient(baseURL string, timeout time.Duration, observer CallObserver) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		observer:   observer,
	}
}

// envelope campos comunes de las respuestas de los servicios del banco.
type envelope struct {
	Success *bool           `json:"success"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	return string(e.Error)
}

// postJSON envía payload y devuelve el cuerpo de una respuesta 2xx.
// Cualquier otro resultado es un *domain.RemoteWriteError.
func (c *Client) postJSON(ctx context.Context, op, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: serializar request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: crear HTTP request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if tok := bearerToken(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		return nil, &domain.RemoteWriteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(op, resp.StatusCode, start)
	if err != nil {
		return nil, &domain.RemoteWriteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("leer respuesta: %w", err)}
	}

	var env envelope
	decoded := json.Unmarshal(raw, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decoded {
			msg = env.text()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &domain.RemoteWriteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	// Algunos endpoints responden 200 con success=false.
	if decoded && env.Success != nil && !*env.Success {
		msg := env.text()
		if msg == "" {
			msg = "el servicio respondió success=false"
		}
		return nil, &domain.RemoteWriteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRemoteCall(op, status, time.Since(start))
	}
}

// remoteID acepta ids como string o como número.
type remoteID string

func (r *remoteID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = remoteID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id con formato inesperado: %s", string(b))
	}
	if i, err := n.Int64(); err == nil {
		*r = remoteID(strconv.FormatInt(i, 10))
		return nil
	}
	*r = remoteID(n.String())
	return nil
}

type idHolder struct {
	ID remoteID `json:"id"`
}
