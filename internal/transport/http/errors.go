package http

import (
	"net/http"

	apierrors "salesbi/internal/errors"
	"salesbi/internal/services"
)

// RegisterErrors maps the service sentinel errors to their problem types
func RegisterErrors(h *apierrors.ErrorHandler) {
	h.Register(services.ErrNoDataset, http.StatusServiceUnavailable, apierrors.TypeNoDataset, "No Dataset")
	h.Register(services.ErrSourceUnavailable, http.StatusBadGateway, apierrors.TypeSourceUnavailable, "Source Unavailable")
	h.Register(services.ErrEmptyUpload, http.StatusBadRequest, apierrors.TypeValidation, "Empty Upload")
}
