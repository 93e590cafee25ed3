package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

const actorHeader = "X-Actor-Id"

// Actor reads the optional X-Actor-Id header. Requests without it run as the system actor.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(actorHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id").WithDetails(map[string]any{"header": actorHeader}))
				return
			}

			ctx := WithActorID(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actor.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
