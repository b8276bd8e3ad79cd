package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration.
type Config struct {
	// Server
	Port int
	Host string

	// Database (empty URI = run without persistence)
	MongoURI           string
	TradeRetentionDays int

	// Local trade archive (opt-in: only active when ArchiveDir is set)
	ArchiveDir           string
	ArchiveMaxGB         int
	ArchiveIntervalHours int
	ArchiveAfterHours    int

	// Simulation
	Seed           int64
	Instruments    int
	Workers        int
	Orders         int
	MinQty         int
	MaxQty         int
	SendBufferSize int

	// Load pacing
	CalmMinMs   int
	CalmMaxMs   int
	ActiveMinMs int
	ActiveMaxMs int
	BurstMinMs  int
	BurstMaxMs  int
}

func Load() *Config {
	// Optional .env file for local development.
	godotenv.Load()

	c := &Config{}

	flag.IntVar(&c.Port, "port", envInt("MATCHBOOK_PORT", 8200), "HTTP/WebSocket server port")
	flag.StringVar(&c.Host, "host", envStr("MATCHBOOK_HOST", "0.0.0.0"), "Listen host")

	flag.StringVar(&c.MongoURI, "mongo-uri", envStr("MONGO_URI", ""), "MongoDB connection URI (empty = no persistence)")
	flag.IntVar(&c.TradeRetentionDays, "trade-retention", envInt("TRADE_RETENTION_DAYS", 7), "Trade log retention in days (0 = keep forever)")

	flag.StringVar(&c.ArchiveDir, "archive-dir", envStr("ARCHIVE_DIR", ""), "Directory for trade archives (empty = disabled)")
	flag.IntVar(&c.ArchiveMaxGB, "archive-max-gb", envInt("ARCHIVE_MAX_GB", 10), "Max total archive size in GB before rotation")
	flag.IntVar(&c.ArchiveIntervalHours, "archive-interval", envInt("ARCHIVE_INTERVAL_HOURS", 6), "Hours between archive runs")
	flag.IntVar(&c.ArchiveAfterHours, "archive-after", envInt("ARCHIVE_AFTER_HOURS", 24), "Archive trades older than this many hours")

	flag.Int64Var(&c.Seed, "seed", envInt64("MATCHBOOK_SEED", 0), "PRNG seed (0 = random)")
	flag.IntVar(&c.Instruments, "instruments", envInt("MATCHBOOK_INSTRUMENTS", 1024), "Number of instruments")
	flag.IntVar(&c.Workers, "workers", envInt("MATCHBOOK_WORKERS", 8), "Concurrent order submitters")
	flag.IntVar(&c.Orders, "orders", envInt("MATCHBOOK_ORDERS", 100000), "Total orders to submit")
	flag.IntVar(&c.MinQty, "min-qty", envInt("MATCHBOOK_MIN_QTY", 1), "Minimum order quantity")
	flag.IntVar(&c.MaxQty, "max-qty", envInt("MATCHBOOK_MAX_QTY", 100), "Maximum order quantity")
	flag.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", 4096), "Per-client send buffer size")

	flag.IntVar(&c.CalmMinMs, "calm-min", 5, "Calm phase min delay ms")
	flag.IntVar(&c.CalmMaxMs, "calm-max", 20, "Calm phase max delay ms")
	flag.IntVar(&c.ActiveMinMs, "active-min", 1, "Active phase min delay ms")
	flag.IntVar(&c.ActiveMaxMs, "active-max", 10, "Active phase max delay ms")
	flag.IntVar(&c.BurstMinMs, "burst-min", 0, "Burst phase min delay ms")
	flag.IntVar(&c.BurstMaxMs, "burst-max", 1, "Burst phase max delay ms")

	flag.Parse()

	return c
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
