// Package admin is the bridge's read-only introspection surface: a
// process-wide, mutex-guarded directory of connected clients rendered as
// JSON under a small key-space ("config", "version", "clients",
// "clients/<uuid>", "clients/<uuid>/stats"), the way the fabric's own admin
// space organizes its tree.
package admin

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pingcap/errors"

	"github.com/nano-kit/zenoh-remote-bridge/internal/remotestate"
)

// Version is stamped at build time; left as a plain var so cmd/ can override
// it with -ldflags.
var Version = "dev"

// ClientRecord is the directory's view of one connected client. statsFn and
// recordFn read live state from the connection's RemoteState rather than
// caching a snapshot, so the admin tree is always current.
type ClientRecord struct {
	UUID        string    `json:"uuid"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`

	statsFn  func() remotestate.Stats
	recordFn func() remotestate.AdminRecord
}

// Stats renders the record's live RemoteState snapshot.
func (c *ClientRecord) Stats() remotestate.Stats { return c.statsFn() }

// AdminRecord renders the record's live id->key_expr registry.
func (c *ClientRecord) AdminRecord() remotestate.AdminRecord { return c.recordFn() }

// clientView is the JSON shape for a single client entry, stats and the
// id->key_expr registry inlined.
type clientView struct {
	UUID             string            `json:"uuid"`
	RemoteAddr       string            `json:"remote_addr"`
	ConnectedAt      time.Time         `json:"connected_at"`
	Stats            remotestate.Stats `json:"stats"`
	Publishers       map[uint32]string `json:"publishers"`
	Subscribers      map[uint32]string `json:"subscribers"`
	Queryables       map[uint32]string `json:"queryables"`
	Queriers         map[uint32]string `json:"queriers"`
	LivelinessTokens map[uint32]string `json:"liveliness_tokens"`
}

func (c *ClientRecord) view() clientView {
	rec := c.recordFn()
	return clientView{
		UUID:             c.UUID,
		RemoteAddr:       c.RemoteAddr,
		ConnectedAt:      c.ConnectedAt,
		Stats:            c.statsFn(),
		Publishers:       rec.Publishers,
		Subscribers:      rec.Subscribers,
		Queryables:       rec.Queryables,
		Queriers:         rec.Queriers,
		LivelinessTokens: rec.LivelinessTokens,
	}
}

// Directory is the process-wide client registry. The zero value is not
// ready for use; call New.
type Directory struct {
	mu      sync.RWMutex
	clients map[string]*ClientRecord
	config  map[string]any
}

func New(config map[string]any) *Directory {
	return &Directory{clients: make(map[string]*ClientRecord), config: config}
}

// Register adds a client record to the directory, returning a handle the
// connection supervisor holds for the life of the connection.
func (d *Directory) Register(uuid, remoteAddr string, statsFn func() remotestate.Stats, recordFn func() remotestate.AdminRecord) *ClientRecord {
	rec := &ClientRecord{UUID: uuid, RemoteAddr: remoteAddr, ConnectedAt: time.Now(), statsFn: statsFn, recordFn: recordFn}
	d.mu.Lock()
	d.clients[uuid] = rec
	d.mu.Unlock()
	return rec
}

// Remove drops a client record, called once the connection is fully torn
// down.
func (d *Directory) Remove(uuid string) {
	d.mu.Lock()
	delete(d.clients, uuid)
	d.mu.Unlock()
}

// ErrNotFound is returned by Snapshot for an unknown path.
var ErrNotFound = errors.New("admin: path not found")

// Snapshot renders the JSON value at path. Recognized paths:
//
//	config                 -- the bridge's effective configuration
//	version                -- the bridge's version string
//	clients                -- array of every connected client, stats inlined
//	clients/<uuid>         -- a single client, stats inlined
//	clients/<uuid>/stats   -- just that client's live counters
func (d *Directory) Snapshot(path string) ([]byte, error) {
	switch {
	case path == "config":
		return json.Marshal(d.config)
	case path == "version":
		return json.Marshal(Version)
	case path == "clients":
		return json.Marshal(d.allClients())
	case len(path) > len("clients/") && path[:len("clients/")] == "clients/":
		rest := path[len("clients/"):]
		uuid, sub := splitOnce(rest, '/')
		d.mu.RLock()
		rec, ok := d.clients[uuid]
		d.mu.RUnlock()
		if !ok {
			return nil, errors.Annotatef(ErrNotFound, "client %s", uuid)
		}
		switch sub {
		case "":
			return json.Marshal(rec.view())
		case "stats":
			return json.Marshal(rec.Stats())
		default:
			return nil, errors.Annotatef(ErrNotFound, "client sub-path %s", sub)
		}
	default:
		return nil, errors.Annotatef(ErrNotFound, "%s", path)
	}
}

func (d *Directory) allClients() []clientView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	views := make([]clientView, 0, len(d.clients))
	for _, rec := range d.clients {
		views = append(views, rec.view())
	}
	return views
}

func splitOnce(s string, sep byte) (head, tail string) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// ClientCount reports the number of currently connected clients.
func (d *Directory) ClientCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.clients)
}
