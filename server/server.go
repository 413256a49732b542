// Package server implements the TCP accept loop and per-connection
// session loop of spec.md §4.10, grounded on the teacher's
// netadapter: one long-lived accept loop, one goroutine spawned per
// accepted connection, no shared per-connection state beyond the
// ledger and peer directory every session dispatches into.
//
// Exactly two serializing locks exist in this node, per spec.md §5:
// the ledger's own internal mutex (held for the full duration of
// whichever Ledger method a session calls, including the
// proof-of-work loop) and the peer directory's own internal mutex.
// Every session path that touches both calls the ledger first and
// the peer directory second, matching the fixed global order spec.md
// §5 requires.
package server

import (
	"net"

	"github.com/chaind/ledgerd/appmessage"
	"github.com/chaind/ledgerd/ledger"
	"github.com/chaind/ledgerd/logger"
	"github.com/chaind/ledgerd/peerdir"
	"github.com/chaind/ledgerd/wallet"
)

var log = logger.Get(logger.TagServer)

// readBufferSize is the single-read framing limit of spec.md §4.9: a
// compatibility minimum inherited from the source, not a true framer.
const readBufferSize = 1024

// Server accepts connections and dispatches each session's messages
// into a Ledger and a Directory.
type Server struct {
	ledger    *ledger.Ledger
	directory *peerdir.Directory
	listener  net.Listener
}

// New constructs a Server; it does not bind until Listen is called.
func New(l *ledger.Ledger, d *peerdir.Directory) *Server {
	return &Server{ledger: l, directory: d}
}

// Listen binds TCP on address. A bind failure here is the node's one
// fatal I/O error (spec.md §7 kind (d)); callers should exit(1) on a
// non-nil return.
func (s *Server) Listen(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = listener
	log.Infof("listening on %s", address)
	return nil
}

// Serve runs the accept loop, spawning one goroutine per connection,
// until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleSession(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleSession(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n == 0 || err != nil {
			log.Infof("session with %s ended", remote)
			return
		}

		msg, err := appmessage.Decode(buf[:n])
		if err != nil {
			log.Warnf("failed to decode message from %s: %s", remote, err)
			continue
		}

		if err := s.dispatch(conn, msg); err != nil {
			log.Warnf("failed to handle message from %s: %s", remote, err)
			return
		}

		if err := s.writePeerSnapshot(conn); err != nil {
			log.Warnf("failed to write peer snapshot to %s: %s", remote, err)
			return
		}
	}
}

// dispatch handles one decoded message and writes back any primary
// response spec.md §4.10 step 4 calls for.
func (s *Server) dispatch(conn net.Conn, msg *appmessage.Message) error {
	switch msg.Type {
	case appmessage.TypeRequestBlockchain:
		return s.writeMessage(conn, appmessage.SendBlockchain(s.ledger.Chain()))

	case appmessage.TypeSendBlockchain:
		replaced, err := s.ledger.ReplaceChainIfLonger(msg.Blockchain)
		if err != nil {
			log.Errorf("failed to persist replacement chain: %s", err)
		}
		if replaced {
			log.Infof("chain replaced by peer-supplied candidate")
		}
		return nil

	case appmessage.TypeRequestPeers:
		return s.writeMessage(conn, appmessage.SendPeers(s.directory.Snapshot()))

	case appmessage.TypeSendPeers:
		if err := s.directory.AddAll(msg.Peers); err != nil {
			log.Errorf("failed to merge peers: %s", err)
		}
		return nil

	case appmessage.TypeNewTransaction:
		return s.handleNewTransaction(msg)

	case appmessage.TypeMineNewBlock:
		if _, err := s.ledger.MineBlock(); err != nil {
			log.Errorf("failed to mine block: %s", err)
		}
		return nil

	default:
		log.Warnf("unhandled message type %q", msg.Type)
		return nil
	}
}

func (s *Server) handleNewTransaction(msg *appmessage.Message) error {
	if msg.Transaction == nil {
		log.Warnf("NewTransaction message carried no transaction")
		return nil
	}
	pubKeyBytes, err := msg.SenderPublicKeyBytes()
	if err != nil {
		log.Warnf("NewTransaction message carried an invalid public key: %s", err)
		return nil
	}
	pubKey, err := wallet.ParsePublicKey(pubKeyBytes)
	if err != nil {
		log.Warnf("NewTransaction message carried an unparseable public key: %s", err)
		return nil
	}
	if err := s.ledger.AddTransaction(msg.Transaction, pubKey); err != nil {
		log.Infof("transaction rejected: %s", err)
	}
	return nil
}

// writePeerSnapshot is the legacy secondary payload of spec.md §4.10
// step 5: a serialized peer-list snapshot written after every
// successfully handled request, preserved for protocol compatibility.
func (s *Server) writePeerSnapshot(conn net.Conn) error {
	return s.writeMessage(conn, appmessage.SendPeers(s.directory.Snapshot()))
}

func (s *Server) writeMessage(conn net.Conn, msg *appmessage.Message) error {
	data, err := appmessage.Encode(msg)
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}
