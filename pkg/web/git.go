package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GitRoute is a route scoped to one repository.
type GitRoute struct {
	method  []string
	handler http.HandlerFunc
	path    string
}

var _ http.Handler = GitRoute{}

// ServeHTTP implements http.Handler.
func (g GitRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var hasMethod bool
	for _, m := range g.method {
		if m == r.Method {
			hasMethod = true
			break
		}
	}

	if !hasMethod {
		renderMethodNotAllowed(w, r)
		return
	}

	g.handler(w, r)
}

var (
	browseCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitview",
		Subsystem: "http",
		Name:      "browse_total",
		Help:      "The total number of repository browse requests",
	}, []string{"repo", "mode"})

	lfsBatchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitview",
		Subsystem: "http",
		Name:      "lfs_batch_total",
		Help:      "The total number of LFS batch requests",
	}, []string{"repo", "operation"})

	lfsTransferCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitview",
		Subsystem: "http",
		Name:      "lfs_transfer_total",
		Help:      "The total number of LFS object transfer requests",
	}, []string{"repo", "method"})
)

func withParams(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		vars["repo"] = sanitizeRepo(vars["repo"])
		r = mux.SetURLVars(r, vars)
		h.ServeHTTP(w, r)
	})
}

// GitController mounts the repository routes.
func GitController(_ context.Context, r *mux.Router) {
	basePrefix := `/{repo:.*\.git}`
	for _, route := range gitRoutes {
		// NOTE: withParams must always be the outermost wrapper, otherwise the
		// request vars will not be set.
		r.Handle(basePrefix+route.path, withParams(route))
	}

	// Repository overview
	r.Handle(basePrefix, withParams(GitRoute{
		method:  []string{http.MethodGet},
		handler: serviceRepoOverview,
	}))
}

var gitRoutes = []GitRoute{
	// Repository browsing
	{
		method:  []string{http.MethodGet},
		handler: serviceBrowse,
		path:    "/{mode:(?:tree|blob)}/{ref}",
	},
	{
		method:  []string{http.MethodGet},
		handler: serviceBrowse,
		path:    "/{mode:(?:tree|blob)}/{ref}/{path:.*}",
	},
	// Git LFS batch API
	{
		method:  []string{http.MethodPost},
		handler: serviceLfsBatch,
		path:    "/info/lfs/objects/batch",
	},
	// Git LFS locks
	{
		method:  []string{http.MethodPost},
		handler: serviceLfsLocksVerify,
		path:    "/info/lfs/locks/verify",
	},
	// Presigned object transfer
	{
		method:  []string{http.MethodGet, http.MethodPut},
		handler: serviceLfsTransfer,
		path:    "/lfs/objects/{oid:[0-9a-f]{64}$}",
	},
}
