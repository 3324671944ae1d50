package api

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// IATAValidator accepts three upper-case letters.
var IATAValidator validator.Func = func(fl validator.FieldLevel) bool {
	return iataPattern.MatchString(fl.Field().String())
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom tags on gin's validator engine.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("unexpected validator engine")
			return
		}
		registerErr = v.RegisterValidation("iata", IATAValidator)
	})
	return registerErr
}

// upperQuery upper-cases the given query parameters in place so airport codes
// bind case-insensitively.
func upperQuery(c *gin.Context, keys ...string) {
	q := c.Request.URL.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			q.Set(k, strings.ToUpper(strings.TrimSpace(v)))
		}
	}
	c.Request.URL.RawQuery = q.Encode()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
