// Package config loads the per-process configuration every cmd/stract
// subcommand starts from: a YAML file overlaid with environment variable
// overrides (SPEC_FULL.md "internal/config/ configuration loading (yaml,
// env)"). The teacher itself never builds a config loader beyond small
// yaml-tagged structs (e.g. stream/binding/pulsar.Config); this package
// keeps that struct-with-yaml-tags shape and adds the env-override layer
// the rest of the retrieval pack shows (e.g. 2lar-b2's internal/config
// loader), scaled down to what a single-binary CLI actually needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stract/stract/internal/message"
	"github.com/stract/stract/pkg/dataunit"
	"github.com/stract/stract/pkg/ptr"
)

// Config is the full set of tunables any cmd/stract subcommand may read.
// Subcommands pick the sections relevant to their role and ignore the
// rest.
type Config struct {
	Cluster  ClusterConfig  `yaml:"cluster"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Search   SearchConfig   `yaml:"search"`
	Harmonic HarmonicConfig `yaml:"harmonic"`
	Kafka    *message.KafkaConfig  `yaml:"kafka,omitempty"`
	Pulsar   *message.PulsarConfig `yaml:"pulsar,omitempty"`
}

// ClusterConfig configures gossip membership (internal/cluster).
type ClusterConfig struct {
	SelfID      string        `yaml:"self_id"`
	SelfAddr    string        `yaml:"self_addr"`
	GossipEvery time.Duration `yaml:"gossip_interval"`
	MemberTTL   time.Duration `yaml:"member_ttl"`
}

// CrawlerConfig configures both the crawl coordinator and worker roles
// (internal/crawler).
type CrawlerConfig struct {
	NumCoordinators   int           `yaml:"num_coordinators"`
	QueueDir          string        `yaml:"queue_dir"`
	JobTimeout        time.Duration `yaml:"job_timeout"`
	CrawlBudget       float64       `yaml:"crawl_budget"`
	WanderFraction    float64       `yaml:"wander_fraction"`
	PolitenessDelay   time.Duration `yaml:"politeness_delay"`
	MaxRedirects      int               `yaml:"max_redirects"`
	MaxContentBytes   dataunit.DataSize `yaml:"max_content_bytes"`
	MaxRetries        int               `yaml:"max_retries"`
	UserAgent         string        `yaml:"user_agent"`
}

// SearchConfig configures the search coordinator role (internal/search).
type SearchConfig struct {
	NumShards     int           `yaml:"num_shards"`
	RoundDeadline time.Duration `yaml:"round_deadline"`
	BangsFile     string        `yaml:"bangs_file"`
}

// HarmonicConfig configures the AMPC harmonic-centrality roles
// (internal/centrality, internal/ampc).
type HarmonicConfig struct {
	WebgraphDir string `yaml:"webgraph_dir"`
	DhtShards   int    `yaml:"dht_shards"`
	MaxRounds   int    `yaml:"max_rounds"`
}

// Default returns a Config with sensible standalone-process defaults, so
// a subcommand can run without a config file at all.
func Default() Config {
	return Config{
		Cluster: ClusterConfig{
			SelfAddr:    "127.0.0.1:7000",
			GossipEvery: time.Second,
			MemberTTL:   10 * time.Second,
		},
		Crawler: CrawlerConfig{
			NumCoordinators: 1,
			QueueDir:        "./data/crawl-queues",
			JobTimeout:      5 * time.Minute,
			CrawlBudget:     1000,
			WanderFraction:  0.1,
			PolitenessDelay: 500 * time.Millisecond,
			MaxRedirects:    5,
			MaxContentBytes: dataunit.SizeOfB(32 << 20),
			MaxRetries:      3,
			UserAgent:       "stractbot/1.0",
		},
		Search: SearchConfig{
			NumShards:     1,
			RoundDeadline: 2 * time.Second,
		},
		Harmonic: HarmonicConfig{
			WebgraphDir: "./data/webgraph",
			DhtShards:   8,
			MaxRounds:   64,
		},
	}
}

// Load reads path (if non-empty and present), overlays it onto Default(),
// then overlays environment variables prefixed STRACT_ (highest priority),
// mirroring the teacher pack's file-then-env precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("STRACT_CLUSTER_SELF_ID"); ok {
		cfg.Cluster.SelfID = v
	}
	if v, ok := os.LookupEnv("STRACT_CLUSTER_SELF_ADDR"); ok {
		cfg.Cluster.SelfAddr = v
	}
	if v, ok := os.LookupEnv("STRACT_CRAWLER_QUEUE_DIR"); ok {
		cfg.Crawler.QueueDir = v
	}
	if v, ok := os.LookupEnv("STRACT_CRAWLER_NUM_COORDINATORS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.NumCoordinators = n
		}
	}
	if v, ok := os.LookupEnv("STRACT_SEARCH_NUM_SHARDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.NumShards = n
		}
	}
	if v, ok := os.LookupEnv("STRACT_HARMONIC_WEBGRAPH_DIR"); ok {
		cfg.Harmonic.WebgraphDir = v
	}
	// Kafka/Pulsar sections are *message.KafkaConfig / *message.PulsarConfig
	// (yaml,omitempty): a file with no "kafka:"/"pulsar:" section leaves
	// these nil, so an env override has to allocate the section itself
	// rather than just assign into an existing struct.
	if v, ok := os.LookupEnv("STRACT_KAFKA_ADDRESS"); ok {
		if cfg.Kafka == nil {
			cfg.Kafka = ptr.Pointer(message.KafkaConfig{})
		}
		cfg.Kafka.Address = v
	}
	if v, ok := os.LookupEnv("STRACT_PULSAR_URL"); ok {
		if cfg.Pulsar == nil {
			cfg.Pulsar = ptr.Pointer(message.PulsarConfig{})
		}
		cfg.Pulsar.URL = v
	}
}
