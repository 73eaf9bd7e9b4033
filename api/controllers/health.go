package controllers

import (
	"net/http"

	"github.com/marketloop/marketloop-backend/api/responses"
	"github.com/marketloop/marketloop-backend/pkg/db"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/logger"
	"github.com/marketloop/marketloop-backend/pkg/redis"
)

// HealthLive reports process liveness.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady reports readiness by pinging the datasources.
func HealthReady(dbClient db.Pinger, redisClient redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if dbClient != nil {
			if err := dbClient.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
