// Package client implements the outbound bootstrap dial of spec.md
// §4.11: connect to a seed peer, announce this node's own peer
// entry, and merge back whatever peers the seed returns. Grounded on
// the original source's PeerManager.connect_to_peer and the
// teacher's general dial-send-receive shape.
package client

import (
	"net"
	"time"

	"github.com/chaind/ledgerd/appmessage"
	"github.com/chaind/ledgerd/logger"
	"github.com/chaind/ledgerd/peerdir"
	"github.com/pkg/errors"
)

var log = logger.Get(logger.TagClient)

const (
	dialTimeout    = 5 * time.Second
	readTimeout    = 5 * time.Second
	readBufferSize = 1024
)

// Bootstrap dials seedAddress, announces self as a known peer, reads
// back the seed's reply, and merges every peer in it (other than
// self) into directory.
func Bootstrap(seedAddress string, self peerdir.Peer, directory *peerdir.Directory) error {
	conn, err := net.DialTimeout("tcp", seedAddress, dialTimeout)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to seed peer %s", seedAddress)
	}
	defer conn.Close()

	msg := appmessage.SendPeers([]peerdir.Peer{self})
	data, err := appmessage.Encode(msg)
	if err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return errors.Wrapf(err, "failed to send peer announcement to %s", seedAddress)
	}
	log.Infof("announced self (%s at %s) to seed %s", self.ID, self.Address, seedAddress)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return errors.Wrapf(err, "failed to read reply from seed %s", seedAddress)
	}

	reply, err := appmessage.Decode(buf[:n])
	if err != nil {
		return errors.Wrapf(err, "failed to decode reply from seed %s", seedAddress)
	}
	if reply.Type != appmessage.TypeSendPeers {
		log.Warnf("seed %s replied with unexpected message type %s", seedAddress, reply.Type)
		return nil
	}

	var toMerge []peerdir.Peer
	for _, p := range reply.Peers {
		if p.ID == self.ID {
			continue
		}
		toMerge = append(toMerge, p)
	}
	if err := directory.AddAll(toMerge); err != nil {
		return errors.Wrap(err, "failed to merge peers received from seed")
	}
	log.Infof("merged %d peer(s) received from seed %s", len(toMerge), seedAddress)
	return nil
}
