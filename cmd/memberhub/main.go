// cmd/memberhub/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clubops/memberhub/internal/app/bootstrap"
	intereststore "github.com/clubops/memberhub/internal/app/store/interests"
	"github.com/clubops/memberhub/internal/app/system/mailer"
	"github.com/clubops/memberhub/internal/domain/models"
	"github.com/clubops/memberhub/internal/serviceapi/forum"
	"github.com/clubops/memberhub/internal/serviceapi/mailinglist"
	"github.com/clubops/memberhub/internal/serviceapi/registry"
)

var debugMode bool

var rootCmd = &cobra.Command{
	Use:   "memberhub",
	Short: "Running-club administration: membership, tasks, meetings, group sync",
	Long: `Memberhub reconciles club membership from the external registry, tracks
leadership tasks and reminder mail, keeps forum groups and the mailing-list
audience in sync, and schedules meeting invites and status reports.

Every command takes the interest short name as its first argument.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// runtime holds everything a command needs after startup: loaded config,
// live database deps, and the interest the command operates on.
type runtime struct {
	Log      *zap.Logger
	Cfg      bootstrap.AppConfig
	Deps     bootstrap.DBDeps
	Interest models.Interest
}

func newLogger() *zap.Logger {
	if debugMode {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
		return log
	}
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

// setup loads config, connects to Mongo, ensures indexes, and resolves the
// interest. The returned cleanup disconnects and flushes the logger.
func setup(ctx context.Context, interestName string) (*runtime, func(), error) {
	log := newLogger()

	_, appCfg, err := bootstrap.LoadConfig(log)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := bootstrap.ValidateConfig(appCfg, log); err != nil {
		return nil, nil, err
	}

	deps, err := bootstrap.ConnectDB(ctx, appCfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := bootstrap.Shutdown(ctx, deps, log); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
		_ = log.Sync()
	}

	if err := bootstrap.EnsureSchema(ctx, deps, log); err != nil {
		cleanup()
		return nil, nil, err
	}

	interest, err := intereststore.New(deps.MongoDatabase).ByName(ctx, interestName)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("interest %q: %w", interestName, err)
	}

	return &runtime{Log: log, Cfg: appCfg, Deps: deps, Interest: interest}, cleanup, nil
}

func (rt *runtime) registryClient() (*registry.Client, error) {
	if rt.Cfg.RegistryURL == "" {
		return nil, fmt.Errorf("registry_url is not configured")
	}
	return registry.New(registry.Config{
		BaseURL: rt.Cfg.RegistryURL,
		Key:     rt.Cfg.RegistryKey,
		Secret:  rt.Cfg.RegistrySecret,
		Timeout: rt.Cfg.HTTPTimeout,
	}, rt.Log), nil
}

func (rt *runtime) forumClient() (*forum.Client, error) {
	if rt.Cfg.ForumURL == "" {
		return nil, fmt.Errorf("forum_url is not configured")
	}
	return forum.New(forum.Config{
		BaseURL:      rt.Cfg.ForumURL,
		Username:     rt.Cfg.ForumUsername,
		APIKey:       rt.Cfg.ForumAPIKey,
		Timeout:      rt.Cfg.HTTPTimeout,
		MaxRetries:   rt.Cfg.ForumMaxRetries,
		RetryBackoff: rt.Cfg.ForumRetryBackoff,
	}, rt.Log), nil
}

func (rt *runtime) mailingListClient() (*mailinglist.Client, error) {
	if rt.Cfg.MailListURL == "" {
		return nil, fmt.Errorf("maillist_url is not configured")
	}
	return mailinglist.New(mailinglist.Config{
		BaseURL: rt.Cfg.MailListURL,
		APIKey:  rt.Cfg.MailListKey,
		Timeout: rt.Cfg.HTTPTimeout,
	}, rt.Log), nil
}

func (rt *runtime) mailSender() mailer.Sender {
	return mailer.New(mailer.Config{
		Host:     rt.Cfg.MailSMTPHost,
		Port:     rt.Cfg.MailSMTPPort,
		User:     rt.Cfg.MailSMTPUser,
		Pass:     rt.Cfg.MailSMTPPass,
		From:     rt.Cfg.MailFrom,
		FromName: rt.Cfg.MailFromName,
	})
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log at debug level")

	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(communityCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(meetingsCmd)
}

// Commands return errors rather than exiting so their deferred cleanups
// (Mongo disconnect, log flush) run first. Exit happens only here.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
