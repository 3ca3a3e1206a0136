package handlers

import "net/http"

// Health answers load balancer probes.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}
