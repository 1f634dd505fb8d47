package container

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/lleria/internal/shortener"
)

// EnvFile is loaded into the environment before options are parsed, when present.
const EnvFile = "config.env"

const shutdownTimeout = 10 * time.Second

type Options struct {
	Port            int    `default:"5000"                      help:"Port to listen on"                                short:"p"`
	BaseURL         string `default:""                          help:"Public base URL of short links (default http://localhost:<port>)"`
	Store           string `default:"memory"                    help:"Store backend: memory, postgres or mongo"         short:"s"`
	DatabaseURL     string `default:"postgres://localhost:5432/lleria" help:"PostgreSQL connection string"`
	MongoURI        string `default:"mongodb://localhost:27017" help:"MongoDB connection URI"`
	MongoDatabase   string `default:"lleria"                    help:"MongoDB database name"`
	MongoCollection string `default:"urls"                      help:"MongoDB collection name"`
	RedisAddr       string `default:""                          help:"Redis server address, empty disables Redis"     short:"r"`
	CacheTTL        int    `default:"3600"                      help:"Cache TTL in seconds"`
	LocalCacheSize  int    `default:"10000"                     help:"Maximum records held in the in-process cache"`
	CodePrefix      string `default:"lleria"                    help:"Prefix of generated short codes"`
	LogFormat       string `default:"console"                   help:"Log format: json or console"`
}

// LoadEnv reads EnvFile into the process environment. A missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load(EnvFile)
}

// PublicBaseURL returns the configured base URL or the local default for Port.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// Redis owns the optional Redis client. Client is nil when RedisAddr is empty.
type Redis struct {
	Client *redis.Client
}

// Enabled reports whether Redis is configured.
func (r *Redis) Enabled() bool {
	return r.Client != nil
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	if r.Client == nil {
		return nil
	}

	return r.Client.Close()
}

// Backend is the store selected by Options.Store, before any decorator.
type Backend struct {
	shortener.Store
}

// Shutdown disconnects the store.
func (b *Backend) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return b.Disconnect(ctx)
}
