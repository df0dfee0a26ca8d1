package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samuel/go-zookeeper/zk"
)

const liveNodeSuffix = "_solr"

// zkConn is the subset of *zk.Conn used to discover nodes.
type zkConn interface {
	Children(path string) ([]string, *zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Close()
}

// ZookeeperHost resolves a random live node registered in a Zookeeper
// ensemble. The live node list is read again on every call. The context is
// checked before each read; the read itself is bounded by the zk session
// timeout, not by the context.
type ZookeeperHost struct {
	servers []string
	root    string
	scheme  string
	conn    zkConn
	logger  Logger
}

func NewZookeeperHost(servers []string, timeout time.Duration, opts ...func(*ZookeeperHost)) (*ZookeeperHost, error) {
	z := &ZookeeperHost{
		servers: servers,
		scheme:  "http",
		logger:  defaultLogger(),
	}
	for _, opt := range opts {
		opt(z)
	}
	if len(servers) == 0 {
		return nil, ErrNoHostSpecified
	}
	conn, events, err := zk.Connect(servers, timeout, zk.WithLogger(zkLogger{logger: z.logger}))
	if err != nil {
		return nil, NewConnectionError("zookeeper connect", err)
	}
	z.conn = conn
	go z.watch(events)
	return z, nil
}

func newZookeeperHostWithConn(conn zkConn, opts ...func(*ZookeeperHost)) *ZookeeperHost {
	z := &ZookeeperHost{scheme: "http", logger: defaultLogger(), conn: conn}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// ZookeeperRoot sets the chroot Solr registers under, e.g. "solr".
func ZookeeperRoot(root string) func(*ZookeeperHost) {
	return func(z *ZookeeperHost) {
		z.root = strings.Trim(root, "/")
	}
}

func ZookeeperURLScheme(scheme string) func(*ZookeeperHost) {
	return func(z *ZookeeperHost) {
		z.scheme = scheme
	}
}

func ZookeeperLogger(logger Logger) func(*ZookeeperHost) {
	return func(z *ZookeeperHost) {
		z.logger = logger
	}
}

func (z *ZookeeperHost) GetZookeepers() string {
	return strings.Join(z.servers, ",")
}

func (z *ZookeeperHost) ResolveHost(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewConnectionError("resolution cancelled", err)
	}
	nodes, err := z.LiveNodes()
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", ErrNoReadyNodes
	}
	//pick a random node
	return z.nodeURL(nodes[rand.Intn(len(nodes))]), nil
}

// LiveNodes lists the raw registrations under live_nodes, e.g. "10.0.0.1:8983_solr".
func (z *ZookeeperHost) LiveNodes() ([]string, error) {
	children, _, err := z.conn.Children(z.path("live_nodes"))
	if err != nil {
		return nil, NewConnectionError("zookeeper live nodes", err)
	}
	return children, nil
}

// ClusterState reads the state.json of one collection.
func (z *ZookeeperHost) ClusterState(collection string) (Collection, error) {
	node, _, err := z.conn.Get(z.path("collections", collection, "state.json"))
	if err != nil {
		return Collection{}, NewConnectionError(fmt.Sprintf("zookeeper state of %s", collection), err)
	}
	collections, err := deserializeClusterState(node)
	if err != nil {
		return Collection{}, NewDecodeError("state.json", err)
	}
	cs, ok := collections[collection]
	if !ok {
		return Collection{}, NewDecodeError("state.json", errors.Errorf("collection %s missing from state", collection))
	}
	return cs, nil
}

// LeaderResolver returns a HostResolver pointing at the leader of the shard
// owning id. The cluster state is read on every resolution.
func (z *ZookeeperHost) LeaderResolver(collection string, id string) HostResolver {
	return &leaderResolver{zookeeper: z, collection: collection, id: id}
}

func (z *ZookeeperHost) Close() {
	z.conn.Close()
}

// watch only reports session changes, resolution always lists again.
func (z *ZookeeperHost) watch(events <-chan zk.Event) {
	for event := range events {
		if event.State < zk.StateConnected {
			z.logger.Error("solr cluster zk disconnected", "type", event.Type.String(), "state", event.State.String(), "server", event.Server)
		} else {
			z.logger.Debug("solr cluster zk state changed", "type", event.Type.String(), "state", event.State.String(), "server", event.Server)
		}
	}
}

func (z *ZookeeperHost) nodeURL(node string) string {
	return fmt.Sprintf("%s://%s", z.scheme, strings.TrimSuffix(node, liveNodeSuffix))
}

func (z *ZookeeperHost) path(parts ...string) string {
	if z.root != "" {
		parts = append([]string{z.root}, parts...)
	}
	return "/" + strings.Join(parts, "/")
}

type leaderResolver struct {
	zookeeper  *ZookeeperHost
	collection string
	id         string
}

func (l *leaderResolver) ResolveHost(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewConnectionError("resolution cancelled", err)
	}
	cs, err := l.zookeeper.ClusterState(l.collection)
	if err != nil {
		return "", err
	}
	leader, err := findLeader(l.id, &cs)
	if err != nil {
		return "", err
	}
	return l.zookeeper.nodeURL(leader.NodeName), nil
}

func deserializeClusterState(node []byte) (map[string]Collection, error) {
	var collections map[string]Collection
	decoder := json.NewDecoder(bytes.NewBuffer(node))
	if err := decoder.Decode(&collections); err != nil {
		return nil, err
	}
	return collections, nil
}
