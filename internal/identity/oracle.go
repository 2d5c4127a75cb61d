package identity

import (
	"context"

	"go.mau.fi/whatsmeow/types"
)

// Oracle answers mapping questions between the phone address form and the
// linked address form. The session layer implements it over the protocol
// client's identity store; lookups may hit the network and can fail.
type Oracle interface {
	LIDForPN(ctx context.Context, pn types.JID) (types.JID, error)
	PNForLID(ctx context.Context, lid types.JID) (types.JID, error)
}
