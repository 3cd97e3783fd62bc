package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/lazy"
	"github.com/vanderheijden86/arbor/pkg/logging"
	"github.com/vanderheijden86/arbor/pkg/outline"
	"github.com/vanderheijden86/arbor/pkg/seed"
	"github.com/vanderheijden86/arbor/pkg/source"
	"github.com/vanderheijden86/arbor/pkg/store"
	"github.com/vanderheijden86/arbor/pkg/tree"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// fetchTimeout bounds a single child fetch from the UI
const fetchTimeout = 30 * time.Second

// backend is the child source plus whatever has to be released on exit
type backend struct {
	source lazy.ChildSource
	sqlite *source.SQLite
}

func (b backend) Close() error {
	if b.sqlite != nil {
		return b.sqlite.Close()
	}
	return nil
}

// openBackend builds the child source selected by cfg
func openBackend(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (backend, error) {
	switch cfg.Source.Kind {
	case config.SourceStatic:
		return backend{source: source.Static{}}, nil

	case config.SourceSQLite:
		dsn := cfg.Resolve(cfg.Source.DSN)
		db, err := source.OpenSQLite(ctx, dsn)
		if err != nil {
			return backend{}, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return backend{}, err
		}
		log.WithField("dsn", dsn).Info("using sqlite child source")
		return backend{source: db, sqlite: db}, nil

	default:
		randSeed := cfg.Source.RandSeed
		if randSeed == 0 {
			randSeed = rand.Uint64()
		}
		m := source.NewMock(cfg.Source.Latency, randSeed)
		m.FailRate = cfg.Source.FailRate
		return backend{source: m}, nil
	}
}

// initialNodes returns the roots to start from: the seed file when set,
// the SQLite roots when reading from a database, else the demo tree.
func initialNodes(ctx context.Context, cfg *config.Config, b backend) ([]tree.Node, error) {
	if cfg.Seed != "" {
		return seed.Load(cfg.Resolve(cfg.Seed))
	}
	if b.sqlite != nil {
		return b.sqlite.Roots(ctx)
	}
	return seed.Default(), nil
}

func outlineTitle(cfg *config.Config) string {
	if cfg.Seed == "" {
		return "arbor"
	}
	base := filepath.Base(cfg.Seed)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runOutline(ctx context.Context, cfg *config.Config, title string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, closer, err := logging.New(logging.Options{
		Path:  cfg.Resolve(cfg.Log.Path),
		Level: cfg.Log.Level,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	nodes, err := initialNodes(ctx, cfg, b)
	if err != nil {
		return err
	}
	if title == "" {
		title = outlineTitle(cfg)
	}
	_, err = io.WriteString(w, outline.Markdown(nodes, title))
	return err
}

func modelOptions(cfg *config.Config, watcher *seed.Watcher, log logrus.FieldLogger) ui.Options {
	return ui.Options{
		Title:        outlineTitle(cfg),
		Watcher:      watcher,
		FetchTimeout: fetchTimeout,
		GlamourStyle: cfg.UI.GlamourStyle,
		Log:          log,
	}
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("arbor needs a terminal; use `arbor outline` for plain output")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log, closer, err := logging.New(logging.Options{
		Path:  cfg.Resolve(cfg.Log.Path),
		Level: cfg.Log.Level,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	nodes, err := initialNodes(ctx, cfg, b)
	if err != nil {
		return err
	}
	initial, err := tree.FromNodes(nodes)
	if err != nil {
		return fmt.Errorf("initial tree: %w", err)
	}

	var watcher *seed.Watcher
	if cfg.Watch {
		watcher, err = seed.NewWatcher(cfg.Resolve(cfg.Seed), log)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	log.WithFields(logrus.Fields{
		"source": cfg.Source.Kind,
		"nodes":  initial.Len(),
		"watch":  cfg.Watch,
	}).Info("starting arbor")

	st := store.New(initial, b.source, log)
	m := ui.NewModel(st, ui.DefaultTheme(lipgloss.DefaultRenderer()), modelOptions(cfg, watcher, log))

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreenEnabled() {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, programOpts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.WithError(err).Error("program exited")
		return fmt.Errorf("error running arbor: %w", err)
	}
	return nil
}
