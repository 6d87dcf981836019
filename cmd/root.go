/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/moamenhredeen/tcobject/internal/client"
	"github.com/moamenhredeen/tcobject/internal/object"
	"github.com/moamenhredeen/tcobject/internal/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	logger = logrus.New()

	shutdownTelemetry = func(context.Context) error { return nil }

	isTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color helpers
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	white  = color.New(color.FgWhite, color.Bold).SprintFunc()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcobject",
	Short: "Client for the Taskcluster object service",
	Long: `tcobject talks to the object service of a Taskcluster deployment.

It uploads objects, asks how to download them, resolves download redirects
and creates signed download URLs. It can also check a deployment against the
published API description and benchmark single operations.

The deployment and credentials come from the usual TASKCLUSTER_ROOT_URL,
TASKCLUSTER_CLIENT_ID, TASKCLUSTER_ACCESS_TOKEN and TASKCLUSTER_CERTIFICATE
variables, and can be overridden with flags, TCOBJECT_* variables or a
config.toml file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}

		level, err := logrus.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger.SetLevel(level)

		shutdown, err := telemetry.Setup(cmd.Context(), "tcobject")
		if err != nil {
			logger.WithError(err).Warn("tracing disabled")
			return nil
		}
		shutdownTelemetry = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdownTelemetry(ctx)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately
func Execute() {
	logger.SetOutput(os.Stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// initConfig reads the optional config file and binds TCOBJECT_* variables
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".tcobject"))
		}
	}

	viper.SetEnvPrefix("tcobject")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		logger.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
	return nil
}

// newObject builds an object service client from flags, config and the
// TASKCLUSTER_* environment. Flag, config and TCOBJECT_* values win.
func newObject(opts ...client.Option) (*object.Object, error) {
	env, err := client.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	rootURL := viper.GetString("root_url")
	if rootURL == "" {
		rootURL = env.EffectiveRootURL()
	}
	if rootURL == "" {
		return nil, errors.New("no root URL: set --root-url or TASKCLUSTER_ROOT_URL")
	}

	creds := env.Credentials()
	if id := viper.GetString("client_id"); id != "" {
		creds = &client.Credentials{
			ClientID:    id,
			AccessToken: viper.GetString("access_token"),
			Certificate: viper.GetString("certificate"),
		}
	}
	if scopes := viper.GetStringSlice("authorized_scopes"); creds != nil && viper.IsSet("authorized_scopes") && len(scopes) > 0 {
		creds.AuthorizedScopes = scopes
	}

	retry := client.DefaultRetry()
	retry.Retries = viper.GetInt("retries")
	retry.Timeout = viper.GetDuration("timeout")

	opts = append([]client.Option{
		client.WithRetry(retry),
		client.WithLogger(logger),
	}, opts...)
	return object.New(rootURL, creds, opts...)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.toml or $HOME/.tcobject/config.toml)")
	flags.String("root-url", "", "root URL of the deployment (default $TASKCLUSTER_ROOT_URL)")
	flags.String("log-level", "warning", "log level: debug, info, warning, error")
	flags.Int("retries", client.DefaultRetry().Retries, "attempts per call for transient failures")
	flags.Duration("timeout", client.DefaultRetry().Timeout, "timeout of each HTTP request")
	flags.StringSlice("authorized-scopes", nil, "restrict requests to these scopes")

	viper.BindPFlag("root_url", flags.Lookup("root-url"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("retries", flags.Lookup("retries"))
	viper.BindPFlag("timeout", flags.Lookup("timeout"))
	viper.BindPFlag("authorized_scopes", flags.Lookup("authorized-scopes"))
}
