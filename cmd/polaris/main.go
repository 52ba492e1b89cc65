// Command polaris is the daemon bootstrap: flags, environment, graceful
// shutdown. Construction order is config, then storage, then services,
// then router, then signal-driven graceful shutdown.
//
// The -c/--data/-w/-s/-p/-f/--log flag set is parsed with the standard
// library's flag package rather than a third-party CLI library: no
// available reference code covers one (the only sighting of a CLI
// library, in an unrelated music-server's go.mod, has no source behind
// it to learn from), and flag's "-name value" / "--name value" forms
// already cover every flag this command needs without a second idiom.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/agersant/polaris/internal/auth"
	"github.com/agersant/polaris/internal/config"
	"github.com/agersant/polaris/internal/ddns"
	"github.com/agersant/polaris/internal/lastfm"
	"github.com/agersant/polaris/internal/orchestrator"
	"github.com/agersant/polaris/internal/store"
	"github.com/agersant/polaris/internal/tagreader"
	"github.com/agersant/polaris/internal/thumbnail"
	"github.com/agersant/polaris/internal/vpath"

	"github.com/agersant/polaris/internal/api"

	"github.com/gin-gonic/gin"
)

type cliFlags struct {
	configPath string
	dataDir    string
	webDir     string
	swaggerDir string
	port       int
	foreground bool
	logPath    string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "c", "", "path to the TOML config file")
	flag.StringVar(&f.dataDir, "data", "", "path to the data directory")
	flag.StringVar(&f.webDir, "w", "", "path to the web UI bundle")
	flag.StringVar(&f.swaggerDir, "s", "", "path to the OpenAPI/swagger document directory")
	flag.IntVar(&f.port, "p", 5050, "port to bind the HTTP server on")
	flag.BoolVar(&f.foreground, "f", false, "run in the foreground (POSIX; no-op elsewhere)")
	flag.StringVar(&f.logPath, "log", "", "path to the log file (defaults to stderr)")
	flag.Parse()
	return f
}

func main() {
	flags := parseFlags()
	if err := run(flags); err != nil {
		log.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(flags cliFlags) error {
	if flags.logPath != "" {
		f, err := os.OpenFile(flags.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	configPath := flags.configPath
	if configPath == "" {
		configPath = filepath.Join(config.DefaultConfigDir(), "polaris.toml")
	}
	file, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfgManager := config.NewManager(file)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbURL := os.Getenv("POLARIS_DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://polaris@localhost/polaris"
	}
	db, err := store.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedFromConfig(ctx, db, file); err != nil {
		return fmt.Errorf("seed initial state: %w", err)
	}

	mounts, err := loadMountTable(ctx, db)
	if err != nil {
		return err
	}

	secret, err := loadOrCreateAuthSecret(dataDir)
	if err != nil {
		return fmt.Errorf("load auth secret: %w", err)
	}
	tokenizer, err := auth.NewTokenizer(secret)
	if err != nil {
		return fmt.Errorf("build tokenizer: %w", err)
	}
	authService := auth.NewService(db, tokenizer, nil)

	artPattern, err := tagreader.CompileArtPattern(file.AlbumArtPattern)
	if err != nil {
		return fmt.Errorf("compile album art pattern: %w", err)
	}
	orch := orchestrator.New(mounts, artPattern, true, orchestrator.DefaultSleepDuration)
	go orch.Run(ctx)
	orch.Trigger()

	thumbDir := filepath.Join(dataDir, "thumbnails")
	thumbCache, err := thumbnail.NewCache(thumbDir, thumbnail.FileDecoder{})
	if err != nil {
		return fmt.Errorf("open thumbnail cache: %w", err)
	}

	var lastfmLinker *lastfm.Linker
	if key, secret := os.Getenv("POLARIS_LASTFM_API_KEY"), os.Getenv("POLARIS_LASTFM_API_SECRET"); key != "" && secret != "" {
		lastfmLinker = lastfm.NewLinker(key, secret)
	}

	go ddns.Loop(ctx, cfgManager)

	srv := &api.Server{
		Auth:         authService,
		Orchestrator: orch,
		Thumbnails:   thumbCache,
		Store:        db,
		Config:       cfgManager,
		Mounts:       mounts,
		LastFM:       lastfmLinker,
	}
	router := api.NewRouter(srv)
	if flags.webDir != "" {
		router.Static("/", flags.webDir)
	}
	if flags.swaggerDir != "" {
		router.Static("/swagger", flags.swaggerDir)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", flags.port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // audio streaming responses can run long
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("polaris listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("bind HTTP server: %w", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

// loadMountTable reconstructs the vpath.Table from the persisted
// mount_dirs table, the store being the source of truth for mounts once
// the process has run once (seedFromConfig only populates it when empty).
func loadMountTable(ctx context.Context, db *store.DB) (*vpath.Table, error) {
	mounts, err := db.ListMounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mount dirs: %w", err)
	}
	table, err := vpath.NewTable(mounts)
	if err != nil {
		return nil, fmt.Errorf("build mount table: %w", err)
	}
	return table, nil
}

// seedFromConfig applies the config file's [[mount_dirs]] and [[users]]
// entries the first time the process runs against an empty store. Later
// runs leave the store's mounts/users alone even if the config file still
// lists them, since the admin API is the source of truth from then on.
func seedFromConfig(ctx context.Context, db *store.DB, file *config.File) error {
	existingMounts, err := db.ListMounts(ctx)
	if err != nil {
		return err
	}
	if len(existingMounts) == 0 && len(file.MountDirs) > 0 {
		mounts := make([]vpath.Mount, len(file.MountDirs))
		for i, m := range file.MountDirs {
			mounts[i] = vpath.Mount{Name: m.Name, Source: m.Source}
		}
		if err := db.ReplaceMounts(ctx, mounts); err != nil {
			return err
		}
	}

	hasUsers, err := db.HasUsers(ctx)
	if err != nil {
		return err
	}
	if !hasUsers {
		for _, u := range file.Users {
			hash := u.HashedPassword
			if hash == "" {
				if err := auth.ValidatePasswordStrength(u.InitialPassword); err != nil {
					return fmt.Errorf("user %s: %w", u.Name, err)
				}
				hash, err = auth.HashPassword(u.InitialPassword)
				if err != nil {
					return fmt.Errorf("hash password for %s: %w", u.Name, err)
				}
			}
			if err := db.CreateUser(ctx, u.Name, hash, u.Admin); err != nil {
				return fmt.Errorf("create user %s: %w", u.Name, err)
			}
		}
	}

	if _, ok, err := db.GetSetting(ctx, store.SettingAlbumArtPattern); err != nil {
		return err
	} else if !ok {
		if err := db.SetSetting(ctx, store.SettingAlbumArtPattern, file.AlbumArtPattern); err != nil {
			return err
		}
	}
	if _, ok, err := db.GetSetting(ctx, store.SettingDDNSURL); err != nil {
		return err
	} else if !ok {
		if err := db.SetSetting(ctx, store.SettingDDNSURL, file.DDNSURL); err != nil {
			return err
		}
	}
	return nil
}

// loadOrCreateAuthSecret reads the persisted auth_secret blob under
// dataDir, generating and persisting a fresh one on first run.
func loadOrCreateAuthSecret(dataDir string) ([]byte, error) {
	path := filepath.Join(dataDir, "auth_secret")
	data, err := os.ReadFile(path)
	if err == nil && len(data) == auth.SecretSize {
		return data, nil
	}
	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("persist auth secret: %w", err)
	}
	return secret, nil
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
