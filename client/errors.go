package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string { return e.Message }

// NewAPIError builds the user-facing error for a failed response. The message is taken
// from the body when it carries one, then fallback, then a default for the status.
func NewAPIError(status int, body []byte, fallback string) *APIError {
	msg := MessageFromBody(body)
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = StatusMessage(status)
	}
	return &APIError{Status: status, Message: msg, Body: body}
}

// StatusMessage is the message shown when the body explains nothing.
func StatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "Données invalides"
	case http.StatusUnauthorized:
		return "Session expirée. Veuillez vous reconnecter."
	case http.StatusForbidden:
		return "Accès refusé. Vous n'avez pas les permissions nécessaires."
	case http.StatusNotFound:
		return "Ressource non trouvée"
	case http.StatusInternalServerError:
		return "Erreur serveur. Veuillez réessayer plus tard."
	default:
		return fmt.Sprintf("Erreur %d: %s", status, http.StatusText(status))
	}
}

var preferredKeys = []string{"detail", "error", "details"}

// MessageFromBody extracts the first human readable message of an error body:
// detail, then error, then details, then the first field error in document order.
// Returns "" when nothing usable is found.
func MessageFromBody(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	fields, ok := objectFields(body)
	if !ok {
		return firstText(body)
	}
	for _, key := range preferredKeys {
		for _, f := range fields {
			if f.key == key {
				if m := firstText(f.value); m != "" {
					return m
				}
			}
		}
	}
	for _, f := range fields {
		if m := firstText(f.value); m != "" {
			return m
		}
	}
	return ""
}

type field struct {
	key   string
	value json.RawMessage
}

// objectFields lists the members of a JSON object keeping their order.
func objectFields(raw []byte) ([]field, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var out []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out, true
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out, true
		}
		out = append(out, field{key: key, value: v})
	}
	return out, true
}

func firstText(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			return ""
		}
		for _, it := range items {
			if m := firstText(it); m != "" {
				return m
			}
		}
	case '{':
		fields, _ := objectFields(raw)
		for _, f := range fields {
			if f.key == "msg" || f.key == "message" {
				if m := firstText(f.value); m != "" {
					return m
				}
			}
		}
		for _, f := range fields {
			if m := firstText(f.value); m != "" {
				return m
			}
		}
	}
	return ""
}
