package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"v2vfabric/internal/authority"
	"v2vfabric/internal/geo"
	"v2vfabric/internal/timecode"
	"v2vfabric/internal/transceiver"
	"v2vfabric/internal/wire"
	pkgconfig "v2vfabric/pkg/config"
)

func runCmd() *cobra.Command {
	var gufiStr, loadsetFile, role string

	cmd := &cobra.Command{
		Use:   "run [gufi]",
		Short: "Run a transceiver: broadcast signed state and validate peers",
		Long: "Run drives a live transceiver loop. Supply --loadset to load a " +
			"previously saved load set file instead of calling the authority live.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := pkgconfig.Load()
			if err != nil {
				return fmt.Errorf("fleetctl: loading settings: %w", err)
			}

			ls, gufi, err := resolveLoadSet(cmd, args, gufiStr, loadsetFile)
			if err != nil {
				return err
			}

			epoch, err := settings.Epoch()
			if err != nil {
				return err
			}
			clock, err := timecode.NewClock(epoch, settings.TimeResolution())
			if err != nil {
				return err
			}

			appRole := transceiver.RoleBaseline
			var nav transceiver.NavSource
			if role == "blackhat" {
				appRole = transceiver.RoleBlackHat
			} else {
				nav = transceiver.NewRandomNavSource(boundingBoxOf(ls), time.Now().UnixNano())
			}

			pool := transceiver.NewWorkerPool(settings.NumThreads)
			app, err := transceiver.NewApplication(
				gufi, ls.Tokens, ls.TokenKeys, ls.MessageKeys, ls.SigningKeys,
				nav, appRole, clock, time.Now, settings.BroadcastPeriod(), pool,
			)
			if err != nil {
				return err
			}

			receive := transceiver.NewQueue[transceiver.TimestampedMessage](256)
			transmit := transceiver.NewQueue[[]byte](256)
			link := &transceiver.Link{
				GroupAddr: settings.MulticastAddr,
				Port:      settings.MulticastPort,
				Receive:   receive,
				Transmit:  transmit,
				Log:       logrus.WithField("gufi", gufi.String()),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 3)
			go func() { errs <- link.Run(ctx) }()
			go func() { errs <- app.RunProduce(ctx, transmit) }()
			go func() { errs <- app.RunConsume(ctx, receive, transmit) }()

			for i := 0; i < 3; i++ {
				if err := <-errs; err != nil && ctx.Err() == nil {
					stop()
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&loadsetFile, "loadset", "", "load a previously saved load set file instead of an authorize/loadset call")
	cmd.Flags().StringVar(&role, "role", "baseline", "baseline or blackhat")
	return cmd
}

// resolveLoadSet loads the vehicle's load set from a file, if given, or
// fetches it live for the supplied gufi.
func resolveLoadSet(cmd *cobra.Command, args []string, gufiStr, loadsetFile string) (authority.LoadSet, wire.GUFI, error) {
	if loadsetFile != "" {
		b, err := os.ReadFile(loadsetFile)
		if err != nil {
			return authority.LoadSet{}, wire.GUFI{}, err
		}
		var ls authority.LoadSet
		if err := json.Unmarshal(b, &ls); err != nil {
			return authority.LoadSet{}, wire.GUFI{}, err
		}
		return ls, ls.Gufi, nil
	}
	if len(args) != 1 {
		return authority.LoadSet{}, wire.GUFI{}, fmt.Errorf("fleetctl: run requires a gufi argument or --loadset")
	}
	gufi, err := wire.ParseGUFI(args[0])
	if err != nil {
		return authority.LoadSet{}, wire.GUFI{}, err
	}
	base, _ := cmd.Flags().GetString("authority")
	ls, err := newAuthorityClient(base).LoadSet(gufi)
	return ls, gufi, err
}

// boundingBoxOf returns the bbox of the vehicle's first token, the area
// RandomNavSource samples from when no real positioning stack is wired.
func boundingBoxOf(ls authority.LoadSet) geo.BBox {
	if len(ls.Tokens) == 0 {
		return geo.BBox{}
	}
	return ls.Tokens[0].Payload.BBox
}
