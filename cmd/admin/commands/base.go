package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/taqiudeen275/furniture-auth/internal/auth"
	"github.com/taqiudeen275/furniture-auth/internal/config"
	"github.com/taqiudeen275/furniture-auth/internal/database"
	"github.com/taqiudeen275/furniture-auth/internal/settings"
	"github.com/taqiudeen275/furniture-auth/internal/sms"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

const connectTimeout = 10 * time.Second

// Colors for CLI output
var (
	ColorSuccess = color.New(color.FgGreen, color.Bold)
	ColorError   = color.New(color.FgRed, color.Bold)
	ColorWarning = color.New(color.FgYellow, color.Bold)
	ColorInfo    = color.New(color.FgCyan)
	ColorHeader  = color.New(color.FgHiBlue, color.Bold)
)

// BaseCommand holds the configuration and connections shared by all commands.
// Connections are opened on first use.
type BaseCommand struct {
	Config  *config.Config
	Verbose bool
	AutoYes bool

	db    *database.DB
	redis *redis.Client
	in    *bufio.Reader
	out   io.Writer
}

// NewBase creates a base command reading confirmations from in
func NewBase(in io.Reader) *BaseCommand {
	return &BaseCommand{in: bufio.NewReader(in), out: os.Stdout}
}

// Initialize loads configuration from the persistent flags
func (b *BaseCommand) Initialize(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("CONFIG_PATH", path); err != nil {
			return err
		}
	}
	b.Verbose, _ = cmd.Flags().GetBool("verbose")
	b.AutoYes, _ = cmd.Flags().GetBool("yes")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	b.Config = cfg
	b.PrintVerbose(fmt.Sprintf("Environment: %s", cfg.Environment))
	return nil
}

// Close releases any open connections
func (b *BaseCommand) Close() {
	if b.db != nil {
		b.db.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// AuthService connects to postgres and builds the account service
func (b *BaseCommand) AuthService(ctx context.Context) (*auth.Service, error) {
	if b.db == nil {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		db, err := database.New(ctx, b.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.db = db
	}

	// The admin CLI never sends codes
	notifier := sms.NewService(sms.NewLogProvider(logger.NewNop()), b.Config.SMS.AppName)
	return auth.NewService(
		auth.NewAccountRepository(b.db),
		auth.NewChallengeRepository(b.db),
		notifier,
		b.Config.Auth,
		logger.NewNop(),
	), nil
}

// Settings connects to redis and returns the settings store
func (b *BaseCommand) Settings(ctx context.Context) (*settings.RedisStore, error) {
	if b.redis == nil {
		client := redis.NewClient(&redis.Options{
			Addr:     b.Config.Redis.Addr,
			Password: b.Config.Redis.Password,
			DB:       b.Config.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.redis = client
	}
	return settings.NewRedisStore(b.redis), nil
}

// PrintHeader prints a formatted header
func (b *BaseCommand) PrintHeader(title string) {
	ColorHeader.Fprintf(b.out, "\n=== %s ===\n", title)
}

// PrintSuccess prints a success message
func (b *BaseCommand) PrintSuccess(message string) {
	ColorSuccess.Fprintf(b.out, "✓ %s\n", message)
}

// PrintWarning prints a warning message
func (b *BaseCommand) PrintWarning(message string) {
	ColorWarning.Fprintf(b.out, "⚠ %s\n", message)
}

// PrintInfo prints an info message
func (b *BaseCommand) PrintInfo(message string) {
	ColorInfo.Fprintf(b.out, "ℹ %s\n", message)
}

// PrintVerbose prints a message only in verbose mode
func (b *BaseCommand) PrintVerbose(message string) {
	if b.Verbose {
		fmt.Fprintf(b.out, "[VERBOSE] %s\n", message)
	}
}

// Confirm prompts for confirmation; outside production it always passes
func (b *BaseCommand) Confirm(message string) bool {
	if b.AutoYes || !b.Config.IsProduction() {
		return true
	}

	b.PrintWarning("You are operating on PRODUCTION")
	fmt.Fprintf(b.out, "%s [y/N]: ", message)
	response, _ := b.in.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	return response == "y" || response == "yes"
}
