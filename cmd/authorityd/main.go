// Command authorityd runs the authority HTTP server: credential
// issuance, load-set retrieval, and public key distribution.
package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"v2vfabric/authorityserver/config"
	"v2vfabric/authorityserver/controllers"
	"v2vfabric/authorityserver/routes"
	"v2vfabric/authorityserver/services"
	"v2vfabric/internal/authority"
	"v2vfabric/internal/timecode"
	pkgconfig "v2vfabric/pkg/config"
)

func main() {
	if err := config.Load(); err != nil {
		logrus.WithError(err).Fatal("loading server config")
	}
	settings, err := pkgconfig.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading fabric settings")
	}

	epoch, err := settings.Epoch()
	if err != nil {
		logrus.WithError(err).Fatal("parsing min_datetime")
	}
	tickClock, err := timecode.NewClock(epoch, settings.TimeResolution())
	if err != nil {
		logrus.WithError(err).Fatal("constructing timecode clock")
	}

	store := authority.NewMemoryStore(
		authority.Operator{ID: "demo", Name: "Demo Fleet Operator", Email: "ops@demo.example"},
	)
	auth := authority.New(store, tickClock, time.Now, authority.Config{
		KeyInterval:  settings.KeyInterval(),
		KeyExpBuffer: settings.KeyExpBuffer(),
	})

	svc := services.NewAuthorityService(auth, store)
	ctrl := controllers.NewAuthorityController(svc)

	r := mux.NewRouter()
	routes.Register(r, ctrl)

	logrus.Infof("authority server listening on %s", config.AppConfig.Port)
	if err := http.ListenAndServe(":"+config.AppConfig.Port, r); err != nil {
		logrus.Fatal(err)
	}
}
