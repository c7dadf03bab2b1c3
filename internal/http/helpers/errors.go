package helpers

import (
	"encoding/json"
	"net/http"
)

// ErrorKind is the caller-facing failure classification. Kinds are coarse
// on purpose: which specific verification check failed stays in internal
// logs only, to avoid oracle attacks on the verifier.
type ErrorKind string

const (
	KindMissingToken       ErrorKind = "missing_token"
	KindInvalidToken       ErrorKind = "invalid_token"
	KindTokenExpired       ErrorKind = "token_expired"
	KindInvalidPayload     ErrorKind = "invalid_payload"
	KindServerConfig       ErrorKind = "server_config"
	KindUserCreationFailed ErrorKind = "user_creation_failed"
	KindAuthFailed         ErrorKind = "auth_failed"
	KindServerError        ErrorKind = "server_error"
)

// HTTPError is the JSON error envelope: {success:false, error, message}.
type HTTPError struct {
	Success bool      `json:"success"`
	Kind    ErrorKind `json:"error"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
}

func (e *HTTPError) Error() string { return string(e.Kind) + ": " + e.Message }

// Standard responses. Messages are generic; details belong in logs.
var (
	ErrMissingToken       = &HTTPError{Kind: KindMissingToken, Message: "Missing token", Status: http.StatusBadRequest}
	ErrMalformedToken     = &HTTPError{Kind: KindInvalidToken, Message: "Malformed token", Status: http.StatusBadRequest}
	ErrInvalidToken       = &HTTPError{Kind: KindInvalidToken, Message: "Invalid token", Status: http.StatusUnauthorized}
	ErrTokenExpired       = &HTTPError{Kind: KindTokenExpired, Message: "Token expired", Status: http.StatusUnauthorized}
	ErrInvalidPayload     = &HTTPError{Kind: KindInvalidPayload, Message: "Invalid token payload", Status: http.StatusUnauthorized}
	ErrServerConfig       = &HTTPError{Kind: KindServerConfig, Message: "Service misconfigured", Status: http.StatusInternalServerError}
	ErrUserCreationFailed = &HTTPError{Kind: KindUserCreationFailed, Message: "Account provisioning failed", Status: http.StatusInternalServerError}
	ErrAuthFailed         = &HTTPError{Kind: KindAuthFailed, Message: "Authentication failed", Status: http.StatusUnauthorized}
	ErrServerError        = &HTTPError{Kind: KindServerError, Message: "Internal server error", Status: http.StatusInternalServerError}
)

// WriteError writes the error envelope to the response.
func WriteError(w http.ResponseWriter, err error) {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		httpErr = ErrServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpErr.Status)
	out := *httpErr
	out.Success = false
	_ = json.NewEncoder(w).Encode(&out)
}
