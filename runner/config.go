package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	solr "github.com/sendgrid/go-solr/v2"
)

// RunnerConfig drives the runner against a live cluster.
type RunnerConfig struct {
	Hosts        []string      `env:"SOLR_HOSTS" envSeparator:","`
	ZkHosts      []string      `env:"SOLR_ZK_HOSTS" envSeparator:","`
	ZkRoot       string        `env:"SOLR_ZK_ROOT" envDefault:"solr"`
	Username     string        `env:"SOLR_USERNAME"`
	Password     string        `env:"SOLR_PASSWORD"`
	ProbeTimeout time.Duration `env:"SOLR_PROBE_TIMEOUT" envDefault:"5s"`
	ConfigDir    string        `env:"SOLR_CONFIG_DIR" envDefault:"./configsets/cfgA"`
	ConfigName   string        `env:"SOLR_CONFIG_NAME" envDefault:"cfgA"`
	Collection   string        `env:"SOLR_COLLECTION" envDefault:"colA"`
	Debug        bool          `env:"SOLR_DEBUG" envDefault:"false"`
}

func loadConfig() (*RunnerConfig, error) {
	_ = godotenv.Load() // .env is optional
	cfg := &RunnerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing runner environment")
	}
	if len(cfg.Hosts) == 0 && len(cfg.ZkHosts) == 0 {
		return nil, errors.New("one of SOLR_HOSTS or SOLR_ZK_HOSTS is required")
	}
	return cfg, nil
}

func newLogger(cfg *RunnerConfig) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type connection struct {
	server    *solr.ServerContext
	zookeeper *solr.ZookeeperHost
}

func (c *connection) Close() {
	if c.zookeeper != nil {
		c.zookeeper.Close()
	}
}

// connect prefers Zookeeper discovery when an ensemble is configured.
func connect(cfg *RunnerConfig, logger solr.Logger) (*connection, error) {
	conn := &connection{}
	var host solr.HostResolver
	if len(cfg.ZkHosts) > 0 {
		zk, err := solr.NewZookeeperHost(cfg.ZkHosts, cfg.ProbeTimeout, solr.ZookeeperRoot(cfg.ZkRoot), solr.ZookeeperLogger(logger))
		if err != nil {
			return nil, err
		}
		conn.zookeeper = zk
		host = zk
	} else {
		host = solr.NewMultiHost(cfg.Hosts, cfg.ProbeTimeout, solr.MultiHostLogger(logger))
	}
	opts := []func(*solr.ServerContext){solr.ContextLogger(logger)}
	if cfg.Username != "" {
		opts = append(opts, solr.Auth(solr.NewBasicAuth(cfg.Username, cfg.Password)))
	}
	server, err := solr.NewServerContext(host, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.server = server
	return conn, nil
}
