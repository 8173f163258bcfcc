// Package routes registers the authority HTTP surface.
package routes

import (
	"github.com/gorilla/mux"

	"v2vfabric/authorityserver/controllers"
	"v2vfabric/authorityserver/middleware"
)

// Register wires every authority route onto r.
func Register(r *mux.Router, ac *controllers.AuthorityController) {
	r.Use(middleware.Logger)

	r.HandleFunc("/operators", ac.Operators).Methods("GET")
	r.HandleFunc("/operator/{id}", ac.Operator).Methods("GET")

	r.HandleFunc("/authorizations", ac.Authorizations).Methods("GET")
	r.HandleFunc("/authorization/{gufi}", ac.Authorization).Methods("GET")
	r.HandleFunc("/authorization", ac.CreateAuthorization).Methods("POST")

	r.HandleFunc("/token_keys", ac.TokenKeys).Methods("GET")
	r.HandleFunc("/token_key/{kid}", ac.TokenKey).Methods("GET")

	r.HandleFunc("/message_keys", ac.MessageKeys).Methods("GET")
	r.HandleFunc("/message_key/{kid}", ac.MessageKey).Methods("GET")

	r.HandleFunc("/loadset/{gufi}", ac.LoadSet).Methods("GET")
}
