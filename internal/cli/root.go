// Package cli implements the ezstream command line: authenticate against the
// open platform and print live or playback stream URLs.
package cli

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	"ezstream/internal/infrastructure/ezviz"
	"ezstream/internal/infrastructure/profile"
	"ezstream/internal/presenter"
	"ezstream/pkg/config"
	"ezstream/pkg/logger"
	"ezstream/pkg/validation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	EnvAppKey    = "EZVIZ_APP_KEY"
	EnvAppSecret = "EZVIZ_APP_SECRET"

	defaultConfigPath = "configs/config.yaml"
)

// errReported marks a failure whose output has already been written.
var errReported = stderrors.New("reported")

type app struct {
	cfgFile     string
	profilePath string
	authURL     string
	output      string
	verbose     bool
	noColor     bool

	version    string
	getenv     func(string) string
	readSecret func(cmd *cobra.Command, prompt string) (string, error)

	cfg     *config.Config
	log     *zap.Logger
	store   ports.ProfileStore
	gateway ports.Gateway
}

// NewRootCmd returns the root command for the ezstream CLI
func NewRootCmd(version string) *cobra.Command {
	a := &app{
		version:    version,
		getenv:     os.Getenv,
		readSecret: promptSecret,
	}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ezstream",
		Short: "ezstream - EZVIZ stream URL generator",
		Long: `Authenticate with the EZVIZ open platform and generate live or playback
stream URLs (ezopen, HLS, RTMP, FLV) for a device channel.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", defaultConfigPath, "service config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&a.profilePath, "profile", "", "profile file (default from config, ezviz_config.json)")
	rootCmd.PersistentFlags().StringVar(&a.authURL, "auth-url", "", "open platform base URL used for authentication")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text|json")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "print progress and debug logs")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(a.newAuthCmd())
	rootCmd.AddCommand(a.newURLCmd())
	rootCmd.AddCommand(a.newDevicesCmd())
	rootCmd.AddCommand(a.newProfileCmd())
	rootCmd.AddCommand(a.newVersionCmd())

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("unsupported output format %q (use text or json)", a.output)
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logger.NewWithFormat(level, "console")

	if a.authURL == "" {
		a.authURL = cfg.Ezviz.AuthURL
	}
	if err := validation.ValidateURL(a.authURL); err != nil {
		return fmt.Errorf("--auth-url: %w", err)
	}

	path := a.profilePath
	if path == "" {
		path = cfg.Profile.Path
	}
	a.store = profile.NewFileStore(path)
	a.gateway = ezviz.NewClient(a.authURL, cfg.Ezviz.RequestTimeout, a.log)
	return nil
}

// loadProfile returns the saved profile, or the defaults when none exists.
func (a *app) loadProfile(ctx context.Context) (domain.Profile, error) {
	p, err := a.store.Load(ctx, domain.DefaultProfile())
	if err != nil && !stderrors.Is(err, domain.ErrProfileNotFound) {
		return p, err
	}
	return p, nil
}

// credentials resolves the app key and secret: flags, then environment,
// then the profile, then a hidden prompt for a still missing secret.
func (a *app) credentials(cmd *cobra.Command, appKey, appSecret string, p domain.Profile) (domain.Credentials, error) {
	key := firstNonEmpty(appKey, a.getenv(EnvAppKey), p.AppKey)
	secret := firstNonEmpty(appSecret, a.getenv(EnvAppSecret), p.AppSecret)

	if strings.TrimSpace(key) != "" && strings.TrimSpace(secret) == "" {
		s, err := a.readSecret(cmd, "App Secret: ")
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to read app secret: %w", err)
		}
		secret = s
	}
	return domain.NewCredentials(key, secret), nil
}

func (a *app) publisher(cmd *cobra.Command) ports.EventPublisher {
	if !a.verbose {
		return nil
	}
	return &statusPrinter{out: cmd.ErrOrStderr(), paint: a.painter(cmd.ErrOrStderr())}
}

func (a *app) painter(w io.Writer) painter {
	return newPainter(w, a.noColor)
}

func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	cmd := NewRootCmd(version)
	if err := cmd.Execute(); err != nil {
		if !stderrors.Is(err, errReported) {
			p := newPainter(cmd.ErrOrStderr(), false)
			fmt.Fprintln(cmd.ErrOrStderr(), p.failure(presenter.TransportError(err)))
		}
		return 1
	}
	return 0
}
