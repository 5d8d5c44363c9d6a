package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/irc-library/maktaba/config"
	"github.com/irc-library/maktaba/log"
	"github.com/irc-library/maktaba/model"
	"github.com/irc-library/maktaba/server"
	"github.com/irc-library/maktaba/storage"
	"github.com/irc-library/maktaba/store"
	"github.com/irc-library/maktaba/store/db"
	"github.com/irc-library/maktaba/util"
	"github.com/irc-library/maktaba/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	greetingBanner = `
███    ███  █████  ██   ██ ████████  █████  ██████   █████
████  ████ ██   ██ ██  ██     ██    ██   ██ ██   ██ ██   ██
██ ████ ██ ███████ █████      ██    ███████ ██████  ███████
██  ██  ██ ██   ██ ██  ██     ██    ██   ██ ██   ██ ██   ██
██      ██ ██   ██ ██   ██    ██    ██   ██ ██████  ██   ██
`
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "maktaba",
		Short: "Maktaba is a community library catalog and lending tracker",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			database, err := db.NewDB(config.Opts.DSN)
			if err != nil {
				log.Error("Error connecting to database", zap.Error(err))
				return
			}
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				log.Error("Error migrating database", zap.Error(err))
				return
			}

			s := store.NewStore(database.DB)
			defer s.Close()
			if err := s.Ping(); err != nil {
				log.Error("Error pinging database", zap.Error(err))
				return
			}

			if err := ensureJWTSecret(); err != nil {
				log.Error("Error preparing JWT secret", zap.Error(err))
				return
			}
			if err := bootstrapLibrarian(s); err != nil {
				log.Error("Error bootstrapping librarian account", zap.Error(err))
				return
			}

			coverHost, err := newCoverHost(ctx)
			if err != nil {
				log.Error("Error setting up cover storage", zap.Error(err))
				return
			}
			coverPool := worker.NewCoverPool(s, coverHost, config.Opts.WorkerPoolSize)

			if _, err := server.StartServer(ctx, s, coverHost, coverPool); err != nil {
				log.Error("Error starting server", zap.Error(err))
				return
			}
			fmt.Print(greetingBanner)
			log.Info("Server started",
				zap.String("host", config.Opts.Host),
				zap.Int("port", config.Opts.Port))

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			log.Info("Shutting down")
		},
	}
)

// ensureJWTSecret generates a signing secret when the config does not
// carry one. The secret only lives for the process, so tokens do not
// survive a restart unless the operator pins it.
func ensureJWTSecret() error {
	if config.Opts.JWTSecret != "" {
		return nil
	}
	secret, err := util.RandomString(32)
	if err != nil {
		return err
	}
	config.Opts.JWTSecret = secret
	log.Warn("jwt_secret is not set, generated an ephemeral one")
	return nil
}

// bootstrapLibrarian creates the admin account on first run when the
// config provides credentials and no librarian exists yet.
func bootstrapLibrarian(s *store.Store) error {
	count, err := s.CountLibrarians()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if config.Opts.LibrarianEmail == "" || config.Opts.LibrarianPassword == "" {
		log.Warn("No librarian account exists and no credentials are configured")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(config.Opts.LibrarianPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := s.AddLibrarian(&model.Librarian{
		Email:        config.Opts.LibrarianEmail,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}
	log.Info("Created librarian account", zap.String("email", config.Opts.LibrarianEmail))
	return nil
}

func newCoverHost(ctx context.Context) (storage.CoverHost, error) {
	if config.Opts.CoverHost == "minio" {
		host, err := storage.NewMinioHost(config.Opts)
		if err != nil {
			return nil, err
		}
		if err := host.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return host, nil
	}
	return storage.NewLocalHost(config.Opts.Data)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("host", "", "host to listen on")
	rootCmd.PersistentFlags().Int("port", 0, "port to listen on")
	rootCmd.PersistentFlags().String("data", "", "data directory")

	cobra.OnInitialize(func() {
		_, err := config.GetConfig()
		if err == nil && configFile != "" {
			// The file overlays the defaults.
			_, err = config.ParseFile(configFile)
		}
		if err != nil {
			fmt.Println("Error loading config:", err)
			os.Exit(1)
		}

		if host, _ := rootCmd.PersistentFlags().GetString("host"); host != "" {
			config.Opts.Host = host
		}
		if port, _ := rootCmd.PersistentFlags().GetInt("port"); port != 0 {
			config.Opts.Port = port
		}
		if data, _ := rootCmd.PersistentFlags().GetString("data"); data != "" {
			config.Opts.Data = data
			config.Opts.DSN = filepath.Join(data, "maktaba.db")
		}

		log.Logger = log.NewLogger()
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error executing command:", err)
		os.Exit(1)
	}
	if log.Logger != nil {
		defer log.Logger.Sync()
	}
}
