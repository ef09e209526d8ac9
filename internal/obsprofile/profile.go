// Package obsprofile registers net/http/pprof handlers on a mux, the same
// opt-in debug surface the teacher exposes next to its metrics endpoint.
// Unlike the teacher's variant this one has no TLS-gating option: cipsolve's
// metrics listener is a local operator aid, not a multi-tenant service.
package obsprofile

import (
	"net/http"
	"net/http/pprof"
)

// RegisterHandlers mounts the standard /debug/pprof/* handlers on mux.
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
