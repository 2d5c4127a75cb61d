package wa

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/instance"
	"github.com/pvictorino/zapgate/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// Adapter wraps the whatsmeow client and manages the protocol connection
// for the hosted account.
type Adapter struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	bus       *bus.Bus
	log       *zap.Logger
	name      string
}

// NewAdapter creates an adapter for the named account, backed by its own
// session database.
func NewAdapter(ctx context.Context, dataDir, name string, b *bus.Bus, log *zap.Logger) (*Adapter, error) {
	// Device name shown on the phone's linked devices list.
	wastore.SetOSInfo("ZapGate", [3]uint32{0, 1, 0})

	dbPath := instance.SessionDBPath(dataDir, name)

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", dbPath),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	return &Adapter{
		client:    client,
		container: container,
		bus:       b,
		log:       log,
		name:      name,
	}, nil
}

// Client returns the underlying whatsmeow client.
func (a *Adapter) Client() *whatsmeow.Client {
	return a.client
}

// IsLoggedIn returns whether the adapter has valid credentials.
func (a *Adapter) IsLoggedIn() bool {
	return a.client.Store.ID != nil
}

// Connect initiates the protocol connection.
func (a *Adapter) Connect() error {
	a.log.Info("connecting", zap.String("instance", a.name))
	return a.client.Connect()
}

// Disconnect terminates the protocol connection.
func (a *Adapter) Disconnect() {
	a.log.Info("disconnecting", zap.String("instance", a.name))
	a.client.Disconnect()
}

// Logout invalidates the session and removes credentials.
func (a *Adapter) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

// RegisterEventHandler adds a handler for whatsmeow events.
func (a *Adapter) RegisterEventHandler(handler whatsmeow.EventHandler) {
	a.client.AddEventHandler(handler)
}

// OwnJID returns the connected account address, or "" before login.
func (a *Adapter) OwnJID() string {
	if a.client.Store.ID == nil {
		return ""
	}
	return a.client.Store.ID.ToNonAD().String()
}

// SendText sends a text message and returns it in persisted form.
func (a *Adapter) SendText(ctx context.Context, jid string, text string) (*store.Message, error) {
	to, err := types.ParseJID(jid)
	if err != nil {
		return nil, fmt.Errorf("parse JID: %w", err)
	}
	resp, err := a.client.SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &store.Message{
		Key: store.MessageKey{
			ID:        resp.ID,
			FromMe:    true,
			RemoteJID: to.String(),
		},
		MessageType:      "conversation",
		Content:          &store.MessageContent{Conversation: text},
		MessageTimestamp: resp.Timestamp.Unix(),
		Source:           "api",
	}, nil
}

// GetContacts returns all contacts from the whatsmeow device store.
func (a *Adapter) GetContacts(ctx context.Context) []store.Contact {
	allContacts, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		a.log.Warn("failed to get contacts from device store", zap.Error(err))
		return nil
	}
	var contacts []store.Contact
	for jid, info := range allContacts {
		name := info.PushName
		if name == "" {
			name = info.FullName
		}
		contacts = append(contacts, store.Contact{
			RemoteJID: jid.ToNonAD().String(),
			PushName:  name,
		})
	}
	return contacts
}

// LIDForPN resolves the linked address for a phone address from the
// device store mapping.
func (a *Adapter) LIDForPN(ctx context.Context, pn types.JID) (types.JID, error) {
	return a.client.Store.LIDs.GetLIDForPN(ctx, pn)
}

// PNForLID resolves the phone address behind a linked address from the
// device store mapping.
func (a *Adapter) PNForLID(ctx context.Context, lid types.JID) (types.JID, error) {
	return a.client.Store.LIDs.GetPNForLID(ctx, lid)
}
