// Command ledgerd is the node's entry point: argument parsing,
// data-directory layout, and wiring together the ledger, peer
// directory, server, and (in "peers" mode) the bootstrap client.
// These concerns sit outside the core ledger/peer-exchange subsystems
// spec.md scopes (spec.md §1), so this file stays a thin shim over
// them rather than a place for protocol or ledger logic.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chaind/ledgerd/client"
	"github.com/chaind/ledgerd/ledger"
	"github.com/chaind/ledgerd/logger"
	"github.com/chaind/ledgerd/peerdir"
	"github.com/chaind/ledgerd/server"
	"github.com/chaind/ledgerd/store"
)

var log = logger.Get(logger.TagMain)

// seedAddress is where a peers-mode node dials to bootstrap; the
// canonical server always listens here (spec.md §6).
const seedAddress = "127.0.0.1:6000"

// defaultLogLevel is applied to every subsystem logger at startup;
// LEDGERD_LOG_LEVEL overrides it (one of trace/debug/info/warn/error/
// critical).
const defaultLogLevel = "info"

func main() {
	args := os.Args

	peerID, peersMode := parsePeersMode(args)

	peerStorePath := "data/peers_db"
	logFile := "data/ledgerd.log"
	listenAddress := seedAddress
	var selfPeer *peerdir.Peer

	if peersMode {
		peerStorePath = fmt.Sprintf("data/peers_db_%s", peerID)
		logFile = fmt.Sprintf("data/ledgerd_%s.log", peerID)
		port := 6000 + mustAtoi(peerID)
		listenAddress = fmt.Sprintf("127.0.0.1:%d", port)
		selfPeer = &peerdir.Peer{
			ID:      fmt.Sprintf("peer_%s", peerID),
			Address: listenAddress,
		}
	}

	if err := logger.InitLogRotator(logFile); err != nil {
		log.Warnf("failed to initialize log file %s, continuing with stdout only: %s", logFile, err)
	}

	level := defaultLogLevel
	if fromEnv := os.Getenv("LEDGERD_LOG_LEVEL"); fromEnv != "" {
		level = fromEnv
	}
	if err := logger.SetLevels(level); err != nil {
		fatal("invalid log level %q: %s", level, err)
	}
	log.Debugf("log level %q applied to subsystems: %s", level, strings.Join(logger.SupportedSubsystems(), ", "))

	ledgerStore, err := store.OpenLedgerStore("data/blockchain_db")
	if err != nil {
		fatal("failed to open ledger store: %s", err)
	}

	l, err := ledger.Open(ledgerStore)
	if err != nil {
		fatal("failed to open ledger: %s", err)
	}

	peerStore, err := store.OpenPeerStore(peerStorePath)
	if err != nil {
		fatal("failed to open peer store: %s", err)
	}

	directory, err := peerdir.Open(peerStore)
	if err != nil {
		fatal("failed to open peer directory: %s", err)
	}

	if selfPeer != nil {
		if err := directory.Add(*selfPeer); err != nil {
			log.Warnf("failed to register self as a peer: %s", err)
		}
	}

	s := server.New(l, directory)
	if err := s.Listen(listenAddress); err != nil {
		log.Criticalf("failed to bind listener on %s: %s", listenAddress, err)
		os.Exit(1)
	}

	if peersMode {
		go func() {
			if err := client.Bootstrap(seedAddress, *selfPeer, directory); err != nil {
				log.Warnf("bootstrap against seed %s failed: %s", seedAddress, err)
			}
		}()
	}

	if err := s.Serve(); err != nil {
		log.Errorf("server stopped: %s", err)
	}
}

// parsePeersMode implements spec.md §6's CLI surface: an optional
// first argument "peers" followed by a numeric id, which defaults to
// "0" when omitted.
func parsePeersMode(args []string) (id string, ok bool) {
	if len(args) > 1 && args[1] == "peers" {
		if len(args) > 2 {
			return args[2], true
		}
		return "0", true
	}
	return "", false
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func fatal(format string, args ...interface{}) {
	log.Criticalf(format, args...)
	os.Exit(1)
}
