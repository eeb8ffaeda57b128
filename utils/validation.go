package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeAndValidate decodes a JSON request body into dst and runs struct
// validation. The returned details map is suitable for WriteBadRequest.
func DecodeAndValidate(r *http.Request, dst interface{}) map[string]interface{} {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return map[string]interface{}{"body": "invalid JSON payload"}
	}

	if err := validate.Struct(dst); err != nil {
		details := make(map[string]interface{})
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[strings.ToLower(fe.Field())] = fmt.Sprintf("failed %s validation", fe.Tag())
			}
		} else {
			details["body"] = err.Error()
		}
		return details
	}

	return nil
}
