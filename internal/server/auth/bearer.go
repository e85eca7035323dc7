package auth

import (
	"strings"

	"github.com/dmitrijs2005/classroom/internal/common"
)

const bearerPrefix = common.BearerScheme + " "

// ParseBearer extracts the secret from an authorization value of the exact
// form "Bearer <secret>". Any other scheme, casing or an empty secret
// reports false; it never fails.
func ParseBearer(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	secret := strings.TrimSpace(value[len(bearerPrefix):])
	if secret == "" {
		return "", false
	}
	return secret, true
}
