package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mattjoyce/ircbotd/internal/api"
	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/config"
	"github.com/mattjoyce/ircbotd/internal/dispatch"
	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/leet"
	"github.com/mattjoyce/ircbotd/internal/lock"
	"github.com/mattjoyce/ircbotd/internal/log"
	"github.com/mattjoyce/ircbotd/internal/loop"
	"github.com/mattjoyce/ircbotd/internal/metrics"
	"github.com/mattjoyce/ircbotd/internal/remind"
	"github.com/mattjoyce/ircbotd/internal/scheduler"
	"github.com/mattjoyce/ircbotd/internal/session"
	"github.com/mattjoyce/ircbotd/internal/storage"
	"github.com/mattjoyce/ircbotd/internal/webhook"
)

// runOverrides are the command-line settings layered over the config file.
type runOverrides struct {
	server  string
	port    int
	nick    string
	channel string
	strict  bool
	trace   bool
	set     map[string]bool
}

func (o runOverrides) apply(cfg *config.Config) {
	if o.set["server"] {
		cfg.Connection.Server = o.server
	}
	if o.set["port"] {
		cfg.Connection.Port = o.port
	}
	if o.set["nick"] {
		c := &cfg.Connection
		// Identity fields derived from the old nick follow the new one.
		if c.Username == c.Nick {
			c.Username = ""
		}
		if c.Realname == c.Nick {
			c.Realname = ""
		}
		c.Nick = o.nick
	}
	if o.set["channel"] {
		cfg.Connection.Channels = []string{o.channel}
		cfg.Leet.Channel = ""
	}
	if o.set["strict"] {
		cfg.Bot.Strict = o.strict
	}
	if o.set["trace"] {
		cfg.Bot.Trace = o.trace
	}
}

func parseRunFlags(args []string) (string, runOverrides, error) {
	var o runOverrides
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	fs.StringVar(&o.server, "server", "", "IRC server host")
	fs.IntVar(&o.port, "port", 6667, "IRC server port")
	fs.StringVar(&o.nick, "nick", "", "Nickname")
	fs.StringVar(&o.channel, "channel", "", "Channel to join")
	fs.BoolVar(&o.strict, "strict", false, "Exit on the first invalid message")
	fs.BoolVar(&o.trace, "trace", false, "Log every line sent and received")
	if err := fs.Parse(args); err != nil {
		return "", o, err
	}
	if fs.NArg() > 0 {
		return "", o, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return *configPath, o, nil
}

// loadRunConfig loads the config file, or starts from defaults when none is
// found and the server was given on the command line.
func loadRunConfig(configPath string, o runOverrides) (*config.Config, error) {
	path, err := config.Resolve(configPath)
	var cfg *config.Config
	switch {
	case err == nil:
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	case configPath == "" && o.set["server"]:
		cfg = config.Defaults()
	default:
		return nil, err
	}

	o.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRun(args []string) int {
	configPath, overrides, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadRunConfig(configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	fingerprint, err := cfg.Fingerprint()
	if err != nil {
		logger.Warn("Failed to fingerprint config", "error", err)
	}
	logger.Info("ircbotd starting", "version", version, "config", cfg.SourcePath, "config_hash", fingerprint)

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ircbotd: %v\n", err)
		return 1
	}
	defer pidLock.Release()
	logger.Debug("Acquired PID lock", "path", pidLockPath)

	if err := serve(context.Background(), cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ircbotd: %v\n", err)
		return 1
	}
	return 0
}

func sessionConfig(cfg *config.Config) session.Config {
	c := cfg.Connection
	return session.Config{
		Server:      c.Server,
		Port:        c.Port,
		TLS:         c.TLS,
		TLSInsecure: c.TLSInsecure,
		Password:    c.Password,
		Nick:        c.Nick,
		Username:    c.Username,
		Realname:    c.Realname,
		DialTimeout: c.DialTimeout,
		Trace:       cfg.Bot.Trace,
	}
}

// serve connects, wires the bot together and runs the event loop to
// completion. Failures before the loop starts wrap loop.ErrFatal.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var whCfg webhook.Config
	if cfg.Webhooks.Enabled {
		var err error
		if whCfg, err = webhook.FromConfig(cfg.Webhooks); err != nil {
			return fmt.Errorf("%w: %w", loop.ErrFatal, err)
		}
	}

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", loop.ErrFatal, err)
	}
	defer db.Close()
	logger.Info("Database opened", "path", cfg.State.Path)

	m := metrics.New()
	hub := events.NewHub(256)

	sess, err := session.Dial(ctx, sessionConfig(cfg), log.Get())
	if err != nil {
		return fmt.Errorf("%w: %w", loop.ErrFatal, err)
	}
	defer sess.Close()
	sess.CountSentWith(m.SentCounter())
	if err := sess.Register(); err != nil {
		return fmt.Errorf("%w: %w", loop.ErrFatal, err)
	}

	sched := scheduler.New(scheduler.NewTimerAlarm(), log.WithComponent("scheduler"))
	store := remind.NewStore(db)
	reminders := remind.NewService(store, sched, sess, log.Get(), m, hub)
	chat := chatlog.New(db, cfg.ChatLog.Enabled, log.Get())

	var monitor *leet.Monitor
	if cfg.Leet.Enabled {
		monitor = leet.New(cfg.Leet.Channel, cfg.Leet.Hour, cfg.Leet.Minute, sched, sess, hub, log.Get())
	}

	disp := dispatch.New(sess, dispatch.Options{
		Channels:    cfg.Connection.Channels,
		CommandChar: cfg.Bot.CommandChar,
		ChatLog:     chat,
		Leet:        monitor,
		Remind:      reminders,
		Metrics:     m,
		Events:      hub,
	})

	lp, err := loop.New(loop.Options{
		BufferSize:  cfg.Connection.ReadBufferSize,
		QuitMessage: cfg.Connection.QuitMessage,
		Strict:      cfg.Bot.Strict,
		Trace:       cfg.Bot.Trace,
		Metrics:     m,
		Events:      hub,
	}, sess, sched, disp, log.WithSession(sess.ID))
	if err != nil {
		return err
	}

	// Timers are armed only once the loop can count them.
	if n, err := reminders.Restore(ctx); err != nil {
		logger.Warn("Failed to restore reminders", "error", err)
	} else if n > 0 {
		logger.Info("Reminders restored", "count", n)
	}
	if monitor != nil {
		monitor.Start()
	}

	httpCtx, stopHTTP := context.WithCancel(ctx)
	var httpWG sync.WaitGroup
	if cfg.API.Enabled {
		srv := api.New(api.Config{Listen: cfg.API.Listen, APIKey: cfg.API.APIKey}, api.Deps{
			Loop:      lp,
			Session:   sess,
			Reminders: store,
			ChatLog:   chat,
			Events:    hub,
			Metrics:   m,
		}, log.WithComponent("api"))
		httpWG.Add(1)
		go func() {
			defer httpWG.Done()
			if err := srv.Start(httpCtx); err != nil {
				logger.Error("API server stopped", "error", err)
			}
		}()
	}

	if cfg.Webhooks.Enabled {
		wh := webhook.New(whCfg, sess, hub, log.WithComponent("webhook"))
		httpWG.Add(1)
		go func() {
			defer httpWG.Done()
			if err := wh.Start(httpCtx); err != nil {
				logger.Error("Webhook server stopped", "error", err)
			}
		}()
	}

	err = lp.Run(ctx)
	stopHTTP()
	httpWG.Wait()
	return err
}
