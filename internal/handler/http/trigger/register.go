package trigger

import (
	"log/slog"
	"net/http"
	"time"

	"commutecast/internal/handler/http/auth"
)

// Path is the route the scheduler calls.
const Path = "/api/cron/generate-episodes"

// Register mounts the trigger behind the shared-secret check. GET is
// accepted alongside POST for schedulers that can only issue GET. HEAD, which
// ServeMux would otherwise route to the GET handler, is refused so that a
// link checker or monitor never starts a batch.
func Register(mux *http.ServeMux, runner BatchRunner, secret string, clock func() time.Time, logger *slog.Logger) {
	h := auth.RequireBearerSecret(secret)(GenerateHandler{
		Runner: runner,
		Clock:  clock,
		Logger: logger,
	})
	mux.Handle("POST "+Path, h)
	mux.Handle("GET "+Path, h)
	mux.HandleFunc("HEAD "+Path, methodNotAllowed)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "GET, POST")
	w.WriteHeader(http.StatusMethodNotAllowed)
}
