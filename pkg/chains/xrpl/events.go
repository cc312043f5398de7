package xrpl

import (
	"context"

	"github.com/sigweihq/walletkit/pkg/types"
)

// eventStreams maps event names onto the ledger subscription streams that
// carry them. Client-level events (connection state, transport errors) have
// no stream; they are emitted by the client itself.
var eventStreams = map[types.EventName]string{
	types.EventConnected:          "",
	types.EventDisconnected:       "",
	types.EventError:              "",
	types.EventLedgerClosed:       "ledger",
	types.EventValidationReceived: "validations",
	types.EventTransaction:        "transactions",
	types.EventPeerStatusChange:   "peer_status",
	types.EventConsensusPhase:     "consensus",
	types.EventManifestReceived:   "manifests",
}

// SubscribeToEvents registers a callback for a named event. Subscriptions are
// keyed by name: re-subscribing replaces the callback without issuing a
// second ledger subscription, since the client's registration is
// last-write-wins per event.
func (p *Provider) SubscribeToEvents(name types.EventName, cb types.EventCallback) error {
	stream, supported := eventStreams[name]
	if !supported {
		return &types.UnsupportedOperationError{Op: "subscribe to " + string(name), Blockchain: string(types.BlockchainXRPL)}
	}
	if err := p.requireConnected("subscribe to events"); err != nil {
		return err
	}

	p.subsMu.Lock()
	_, already := p.subs[name]
	p.subsMu.Unlock()

	if stream != "" && !already {
		if _, err := p.client.Request(context.Background(), map[string]any{
			"command": "subscribe",
			"streams": []string{stream},
		}); err != nil {
			return &types.NetworkOperationError{Op: "subscribe to events", Err: err}
		}
	}

	p.client.On(string(name), cb)

	p.subsMu.Lock()
	p.subs[name] = stream
	p.subsMu.Unlock()
	return nil
}

// UnsubscribeFromEvents removes a named subscription, closing the underlying
// ledger stream when one was opened.
func (p *Provider) UnsubscribeFromEvents(name types.EventName) error {
	stream, supported := eventStreams[name]
	if !supported {
		return &types.UnsupportedOperationError{Op: "unsubscribe from " + string(name), Blockchain: string(types.BlockchainXRPL)}
	}

	p.subsMu.Lock()
	_, active := p.subs[name]
	delete(p.subs, name)
	p.subsMu.Unlock()

	if !active {
		return nil
	}

	p.client.Off(string(name))

	if stream != "" && p.client.IsConnected() {
		if _, err := p.client.Request(context.Background(), map[string]any{
			"command": "unsubscribe",
			"streams": []string{stream},
		}); err != nil {
			return &types.NetworkOperationError{Op: "unsubscribe from events", Err: err}
		}
	}
	return nil
}
