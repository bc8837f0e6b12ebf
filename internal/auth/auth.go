package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// UserIDHeader передает id пользователя, уже проверенного на внешней границе
const UserIDHeader = "X-User-Id"

var ErrUnauthorized = errors.New("unauthorized")

// CallerID извлекает id вызывающего пользователя из доверенного заголовка
func CallerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("%w: no %s header", ErrUnauthorized, UserIDHeader)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s header", ErrUnauthorized, UserIDHeader)
	}
	return id, nil
}
