// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"foodlog/modules/middleware/problem"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
)

// LoadSpec reads and validates an OpenAPI document from fsys.
func LoadSpec(ctx context.Context, fsys fs.FS, specPath string) (*openapi3.T, error) {
	data, err := fs.ReadFile(fsys, specPath)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", specPath, err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", specPath, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: invalid %s: %w", specPath, err)
	}
	return doc, nil
}

// OpenAPIValidation rejects requests that do not match spec with a 400 problem
// listing the offending parameters. Unknown routes are answered 404.
func OpenAPIValidation(spec *openapi3.T) func(http.Handler) http.Handler {
	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError: true,
			// bearer tokens are checked by auth.Middleware
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts:  writeValidationProblem,
	}
	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}

func writeValidationProblem(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, eopts nethttpmiddleware.ErrorHandlerOpts) {
	switch eopts.StatusCode {
	case http.StatusNotFound:
		problem.Write(w, problem.NotFound("Not found"))
		return
	case http.StatusMethodNotAllowed:
		problem.Write(w, problem.MethodNotAllowed("Method not allowed"))
		return
	}

	slog.DebugContext(ctx, "request validation failed",
		slog.String("url", r.URL.Path),
		slog.Any("error", err),
	)

	var opts []problem.Option
	for _, ve := range ExtractValidationErrors(err) {
		opts = append(opts, problem.WithInvalidParam(ve.Field, ve.Reason))
	}
	problem.Write(w, problem.BadRequest("Invalid request", opts...))
}

// ValidationError names the offending field and a reason safe to echo.
type ValidationError struct {
	Field  string
	Reason string
}

// ExtractValidationErrors flattens kin-openapi errors into field/reason pairs.
func ExtractValidationErrors(err error) []ValidationError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []ValidationError
		for _, item := range multi {
			out = append(out, ExtractValidationErrors(item)...)
		}
		return out
	}
	return []ValidationError{extractSingleError(err)}
}

func extractSingleError(err error) ValidationError {
	var re *openapi3filter.RequestError
	if errors.As(err, &re) {
		var se *openapi3.SchemaError
		if errors.As(re.Err, &se) {
			if re.Parameter != nil {
				return ValidationError{Field: re.Parameter.Name, Reason: se.Reason}
			}
			return ValidationError{Field: fieldFromPointer(se.JSONPointer()), Reason: se.Reason}
		}
		if re.Parameter != nil {
			return ValidationError{Field: re.Parameter.Name, Reason: SafeReason(re.Reason)}
		}
		return ValidationError{Field: "body", Reason: SafeReason(re.Reason)}
	}

	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		return ValidationError{Field: fieldFromPointer(se.JSONPointer()), Reason: se.Reason}
	}
	return ValidationError{Field: "request", Reason: "invalid value"}
}

func fieldFromPointer(ptr []string) string {
	if len(ptr) == 0 || ptr[0] == "" || ptr[0] == "0" {
		return "body"
	}
	return ptr[0]
}

// SafeReason keeps kin-openapi reasons from reflecting request input back.
func SafeReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case reason == "":
		return "invalid value"
	case strings.Contains(lower, "doesn't match schema"):
		return "doesn't match schema"
	case strings.Contains(lower, "must be one of"):
		return reason
	case strings.Contains(lower, "value is required"):
		return "value is required"
	default:
		return "invalid value"
	}
}
