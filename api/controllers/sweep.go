package controllers

import (
	"net/http"

	"github.com/arunmurugan-dev/kadai-backend/api/responses"
	internalorders "github.com/arunmurugan-dev/kadai-backend/internal/orders"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

// ExpireOrders triggers the stale order sweep on demand. The route sits
// behind the shared secret middleware.
func ExpireOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		count, err := svc.ExpireStale(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"expired": count})
	}
}
