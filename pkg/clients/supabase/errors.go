package supabase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// APIError mirrors the error payloads of both GoTrue and PostgREST.
type APIError struct {
	Status int `json:"-"`

	// PostgREST
	Code    textCode `json:"code"`
	Message string   `json:"message"`
	Details string   `json:"details"`
	Hint    string   `json:"hint"`

	// GoTrue
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase api error: status=%d, message=%s", e.Status, e.Text())
}

// Text returns the human readable message of the payload.
func (e *APIError) Text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.ErrorName != "":
		return e.ErrorName
	default:
		return http.StatusText(e.Status)
	}
}

// IsUnauthorized reports whether err is a rejected or expired credential.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

func checkResponse(resp *resty.Response, apiErr *APIError) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

// textCode accepts both the string codes of PostgREST ("PGRST103") and the
// numeric codes of GoTrue (401).
type textCode string

func (c *textCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = textCode(s)
		return nil
	}
	*c = textCode(data)
	return nil
}
