package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/claw-network/clawnet/internal/api"
	"github.com/claw-network/clawnet/internal/api/walletsurface"
	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/gossip"
	"github.com/claw-network/clawnet/internal/identity"
	"github.com/claw-network/clawnet/internal/keystore"
	"github.com/claw-network/clawnet/internal/node"
	"github.com/claw-network/clawnet/internal/reducers"
	"github.com/claw-network/clawnet/internal/validation"
	"github.com/claw-network/clawnet/pkg/config"
)

// statusAdapter satisfies api.StatusProvider from a *node.HealthMonitor
// without internal/api importing internal/node.
type statusAdapter struct{ hm *node.HealthMonitor }

func (a statusAdapter) Status() api.NodeStatus {
	s := a.hm.Status()
	return api.NodeStatus{DID: s.DID, Peers: s.Peers, Cursor: s.Cursor, Version: s.Version, UptimeSec: s.UptimeSec}
}

var serveNetwork string
var serveWSListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a clawnet node: event log, gossip, committer, REST API, metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveNetwork, "network", "", "override config file selected on top of defaults (e.g. testnet)")
	serveCmd.Flags().StringVar(&serveWSListen, "ws-listen", ":8081", "listen address for the wallet balance websocket surface")
}

func runServe() error {
	cfg, err := config.Load(serveNetwork)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	did, err := nodeIdentity(cfg)
	if err != nil {
		return fmt.Errorf("node identity: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	log, err := eventlog.Open(store)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	pipeline := validation.NewPipeline(log)
	state := reducers.New()

	var listenAddr string
	if len(cfg.P2PListen) > 0 {
		listenAddr = cfg.P2PListen[0]
	}
	gcfg := gossip.Config{
		ListenAddr:     listenAddr,
		BootstrapPeers: cfg.Bootstrap,
		DiscoveryTag:   cfg.DiscoveryTag,
		EventsTopic:    "clawnet/events/" + cfg.Network,
	}
	gnode, err := gossip.New(gcfg, log)
	if err != nil {
		return fmt.Errorf("start gossip node: %w", err)
	}
	defer gnode.Close()

	committer := node.New(log, pipeline, state, gnode, gossip.NewScoreBoard())

	if err := gnode.SubscribeEvents(func(from gossip.PeerID, envelopeBytes []byte) error {
		env, err := envelope.Unmarshal(envelopeBytes)
		if err != nil {
			return err
		}
		committer.SubmitGossip(env, from)
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe to gossip events: %w", err)
	}
	if len(cfg.Bootstrap) > 0 {
		if err := gnode.DialSeed(cfg.Bootstrap); err != nil {
			logrus.WithError(err).Warn("serve: failed to dial configured bootstrap peers")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go committer.Run(ctx)

	hm := node.NewHealthMonitor(did, committer, node.NewGossipPeerCounter(gnode))
	go hm.RunMetricsCollector(ctx, time.Duration(cfg.HealthIntervalMS)*time.Millisecond)
	metricsSrv := hm.StartMetricsServer(":9090")
	defer metricsSrv.Shutdown(context.Background())

	var apiSrv *http.Server
	if cfg.APIEnable {
		srv := api.NewServer(committer, committer, statusAdapter{hm}, 10*time.Second)
		apiSrv = &http.Server{Addr: cfg.APIListen, Handler: srv}
		go func() {
			logrus.WithField("addr", cfg.APIListen).Info("serve: REST API listening")
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.WithError(err).Error("serve: REST API server stopped")
			}
		}()
	}

	wsRouter, hub := walletsurface.NewRouter(committer)
	go hub.Run(ctx, time.Second)
	wsSrv := &http.Server{Addr: serveWSListen, Handler: wsRouter}
	go func() {
		logrus.WithField("addr", serveWSListen).Info("serve: wallet balance stream listening")
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("serve: wallet stream server stopped")
		}
	}()

	logrus.WithFields(logrus.Fields{"did": did, "network": cfg.Network}).Info("serve: node started")
	<-ctx.Done()
	logrus.Info("serve: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if apiSrv != nil {
		apiSrv.Shutdown(shutdownCtx)
	}
	wsSrv.Shutdown(shutdownCtx)
	return nil
}

// nodeIdentity loads or, on first run, mints the keystore identity this
// node uses for its own status() DID (spec §6.1); it is independent of
// any key a CLI caller passes via --key.
func nodeIdentity(cfg *config.Config) (string, error) {
	dir := filepath.Join(cfg.DataDir, "keystore")
	ks, err := keystore.Open(dir)
	if err != nil {
		return "", err
	}
	ids, err := ks.List()
	if err != nil {
		return "", err
	}
	var pub ed25519.PublicKey
	if len(ids) == 0 {
		_, p, err := ks.Create(cfg.Passphrase)
		if err != nil {
			return "", err
		}
		pub = p
	} else {
		rec, err := ks.Load(ids[0])
		if err != nil {
			return "", err
		}
		pub = ed25519.PublicKey(rec.Pub)
	}
	return identity.DIDFromPublicKey(pub)
}

func openStore(cfg *config.Config) (eventlog.KVStore, error) {
	if cfg.DataDir == "" || cfg.DataDir == ":memory:" {
		return eventlog.NewMemStore(), nil
	}
	return eventlog.OpenLevelStore("clawnet", filepath.Join(cfg.DataDir, "log"))
}
