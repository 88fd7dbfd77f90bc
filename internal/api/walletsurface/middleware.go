package walletsurface

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger mirrors the teacher's walletserver/middleware logger, adapted
// to this package's mux.Router.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.Infof("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}
