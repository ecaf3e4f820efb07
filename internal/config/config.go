package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ZilDuck/marketplace-indexer/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env     string
	Network string
	Index   string
	Debug   bool
	Reindex bool

	FirstBlockNum uint64
	Confirmations uint64
	PollInterval  int
	BatchSize     uint64
	Subscribe     bool

	ReconcileInterval int
	ReconcileSize     int

	HealthPort string
	ApiPort    string

	Marketplaces []MarketplaceConfig

	Ethereum      EthereumConfig
	Subgraph      SubgraphConfig
	ElasticSearch ElasticSearchConfig
	Amqp          AmqpConfig
	SentryDsn     string
	LogPath       string
}

type MarketplaceConfig struct {
	ContractAddr string
	ChainId      uint64
}

type EthereumConfig struct {
	Url     string
	Debug   bool
	Timeout int
}

type SubgraphConfig struct {
	Url     string
	Timeout int
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

type AmqpConfig struct {
	Uri string
}

func Init(app string) {
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Unable to load .env, using environment")
	}

	initLogger(app)
}

func initLogger(app string) {
	log.NewLogger(fmt.Sprintf("%s/%s.log", Get().LogPath, app), Get().Debug, Get().SentryDsn)
}

func Get() *Config {
	return &Config{
		Env:               getString("ENV", ""),
		Network:           getString("NETWORK", "ethereum"),
		Index:             getString("INDEX_NAME", "marketplace"),
		Debug:             getBool("DEBUG", false),
		Reindex:           getBool("REINDEX", false),
		FirstBlockNum:     getUint64("FIRST_BLOCK_NUM", 0),
		Confirmations:     getUint64("CONFIRMATIONS", 6),
		PollInterval:      getInt("POLL_INTERVAL", 5),
		BatchSize:         getUint64("BATCH_SIZE", 500),
		Subscribe:         getBool("SUBSCRIBE", true),
		ReconcileInterval: getInt("RECONCILE_INTERVAL", 300),
		ReconcileSize:     getInt("RECONCILE_SIZE", 25),
		HealthPort:        getString("HEALTH_PORT", "8080"),
		ApiPort:           getString("API_PORT", "8081"),
		Marketplaces:      getMarketplaces("MARKETPLACES"),
		SentryDsn:         getString("SENTRY_DSN", ""),
		LogPath:           getString("LOG_PATH", "./var/log"),
		Ethereum: EthereumConfig{
			Url:     getString("ETHEREUM_URL", ""),
			Timeout: getInt("ETHEREUM_TIMEOUT", 30),
			Debug:   getBool("ETHEREUM_DEBUG", false),
		},
		Subgraph: SubgraphConfig{
			Url:     getString("SUBGRAPH_URL", ""),
			Timeout: getInt("SUBGRAPH_TIMEOUT", 30),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
		Amqp: AmqpConfig{
			Uri: getString("AMQP_URI", ""),
		},
	}
}

// getMarketplaces parses "0xabc:1,0xdef:137" into contract/chain pairs.
func getMarketplaces(key string) []MarketplaceConfig {
	marketplaces := make([]MarketplaceConfig, 0)
	for _, part := range getSlice(key, make([]string, 0), ",") {
		segments := strings.Split(part, ":")
		if len(segments) != 2 {
			zap.L().With(zap.String("marketplace", part)).Warn("Config: Invalid marketplace definition")
			continue
		}
		chainId, err := strconv.ParseUint(segments[1], 10, 64)
		if err != nil {
			zap.L().With(zap.String("marketplace", part)).Warn("Config: Invalid marketplace chain id")
			continue
		}
		marketplaces = append(marketplaces, MarketplaceConfig{
			ContractAddr: strings.ToLower(segments[0]),
			ChainId:      chainId,
		})
	}

	return marketplaces
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint) uint64 {
	return uint64(getInt(key, int(defaultValue)))
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
