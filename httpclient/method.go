package httpclient

import (
	"net/http"
	"strings"

	"github.com/kbukum/reqkit/errors"
)

// Method is an HTTP method supported by Request.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// Methods lists the supported methods.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod converts a case-insensitive method name.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", errors.UnsupportedOperation("create a request", "method "+s)
	}
	return m, nil
}

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

// EnclosesEntity reports whether requests with this method may carry a body.
func (m Method) EnclosesEntity() bool {
	return m == MethodPost || m == MethodPut
}

func (m Method) String() string { return string(m) }
