package http

import (
	"context"
	"errors"
	"net/http"

	apierrors "salesbi/internal/errors"
	"salesbi/internal/middleware"
	"salesbi/internal/services"
)

type paramsKey struct{}

// ParamsCtx reads the report filters from the query string, validates them
// and stores them in the request context
func ParamsCtx(validator *middleware.Validator, errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			params, err := services.ParamsFromQuery(r.URL.Query())
			if err == nil {
				err = validator.Struct(params)
			}
			if err != nil {
				errorHandler.HandleError(w, r, paramError(err))
				return
			}
			ctx := context.WithValue(r.Context(), paramsKey{}, params)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParamsFromContext returns the validated report filters of the request
func ParamsFromContext(ctx context.Context) services.ReportParams {
	params, _ := ctx.Value(paramsKey{}).(services.ReportParams)
	return params
}

// paramError converts a query parsing failure to a validation error;
// validator errors pass through untouched
func paramError(err error) error {
	var perr *services.ParamError
	if errors.As(err, &perr) {
		return apierrors.ErrValidation(perr.Field, "must be a whole number")
	}
	return err
}
