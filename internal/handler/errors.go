package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"skinvault/internal/inventory"
	"skinvault/internal/lock"
	"skinvault/internal/pricing"
	"skinvault/pkg/apierror"
	"skinvault/pkg/response"
)

// toAPIError maps pipeline failures onto HTTP errors.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var upstream *pricing.UpstreamError
	switch {
	case errors.Is(err, inventory.ErrInventoryTimeout),
		errors.Is(err, pricing.ErrFetchTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return apierror.GatewayTimeout(err.Error())
	case errors.As(err, &upstream), errors.Is(err, pricing.ErrNotAList):
		return apierror.BadGateway(err.Error())
	case errors.Is(err, lock.ErrBusy):
		return apierror.Conflict("a run of this pipeline is already in progress")
	default:
		return apierror.InternalError(err.Error())
	}
}

func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).WithField("status", apiErr.StatusCode).Error("request failed")
	}
	response.Error(w, apiErr)
}
