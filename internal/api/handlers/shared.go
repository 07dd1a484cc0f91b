package handlers

import (
	"errors"
	"net/http"

	"github.com/cryptoinsight/backend/internal/api/response"
	"github.com/cryptoinsight/backend/internal/apperrors"
)

// respondServiceError maps a service-layer error to an HTTP status. Unknown
// errors fall through to 500 with the given fallback message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrAssetNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrUnknownSymbol):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrUnknownSymbol.Error(), err.Error())
	case errors.Is(err, apperrors.ErrUnknownAsset):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrUnknownAsset.Error(), err.Error())
	case errors.Is(err, apperrors.ErrSellUnheldAsset):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrSellUnheldAsset.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInsufficientBalance.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidTargetAllocation):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidTargetAllocation.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidAssetID), errors.Is(err, apperrors.ErrInvalidSymbol):
		response.RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, apperrors.ErrDataUnavailable):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrDataUnavailable.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInsufficientData):
		response.RespondError(w, http.StatusInternalServerError, "unable to calculate", err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
