// qwertypad is a terminal scratchpad that edits text the way a hardware
// qwerty keyboard does: dead keys (Alt+accent), automatic capitalization,
// autotext with backspace undo, the double-space period, hex input (Ctrl+X)
// and the character picker (hold a key, or Ctrl+P).
//
// Text preferences come from settingsd when it is running and follow its
// changes; otherwise everything is enabled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"textinput/internal/autotext"
	"textinput/internal/compose"
	"textinput/internal/config"
	"textinput/internal/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath = flag.String("config", "", "path to config file")
	dictPath   = flag.String("dict", "", "autotext dictionary (overrides config)")
	capitalize = flag.String("cap", "", "capitalization: none, characters, words, sentences")
	fieldCtx   = flag.String("context", "", "autotext context of the field, e.g. email")
	output     = flag.String("o", "", "file written by Ctrl+S and on exit")
	offline    = flag.Bool("offline", false, "don't contact settingsd")
)

func main() {
	flag.Parse()

	text, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "qwertypad: %v\n", err)
		os.Exit(1)
	}
	if *output == "" && text != "" {
		fmt.Println(text)
	}
}

func run() (string, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return "", err
	}
	if *dictPath != "" {
		cfg.Input.DictionaryPath = *dictPath
	}
	if *capitalize != "" {
		cfg.Input.Capitalize = *capitalize
	}
	if *fieldCtx != "" {
		cfg.Input.Context = *fieldCtx
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return "", err
	}
	defer logger.Close()

	mode, err := cfg.Input.CapitalizeMode()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dict, dictLen := openDictionary(ctx, cfg, logger)

	ccfg := compose.Config{
		Capitalize:   mode,
		AutoText:     cfg.Input.AutoText,
		FullKeyboard: cfg.Input.FullKeyboard,
		Prefs:        compose.DefaultPrefs,
		Dictionary:   dict,
		Context:      cfg.Input.Context,
		Logger:       logger.Logger,
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return "", fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return "", fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	var prefs *prefSource
	if !*offline {
		dialCtx, dialCancel := context.WithTimeout(ctx, 2*time.Second)
		prefs, err = connectPrefs(dialCtx, cfg, logger.Logger)
		dialCancel()
		if err != nil {
			logger.Info("settingsd unavailable, using default preferences", "error", err)
			prefs = nil
		} else {
			defer prefs.Close()
			ccfg.Prefs = prefs.Load(ctx)
		}
	}

	composer := compose.New(ccfg)
	pad := NewPad(composer, *output)
	pad.dictLen = dictLen
	if prefs != nil {
		pad.online = prefs.Online
		if err := prefs.Watch(ctx, func(p compose.Prefs) {
			composer.SetPrefs(p)
			screen.PostEvent(tcell.NewEventInterrupt(nil))
		}); err != nil {
			logger.Warn("preference updates disabled", "error", err)
		}
	}

	for !pad.Quit() {
		pad.Draw(screen)

		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			pad.HandleKey(ev)
		case *tcell.EventResize:
			screen.Sync()
		case nil:
			return pad.Text(), nil
		}
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(pad.Text()), 0644); err != nil {
			return "", fmt.Errorf("write output: %w", err)
		}
	}
	return pad.Text(), nil
}

// newLogger writes to a file; the terminal belongs to the UI.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc, err := cfg.Logging.LoggerConfig("qwertypad")
	if err != nil {
		return nil, err
	}
	if lc.Output != "discard" {
		lc.Output = "file"
		lc.FilePath = filepath.Join(filepath.Dir(cfg.Logging.FilePath), "qwertypad.log")
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logging.SetDefault(logger)
	return logger, nil
}

// openDictionary loads the autotext dictionary and keeps it current. A
// missing dictionary leaves autotext without replacements.
func openDictionary(ctx context.Context, cfg *config.Config, logger *logging.Logger) (autotext.Lookuper, func() int) {
	path := cfg.Input.Dictionary()
	store := autotext.NewStore(autotext.New(cfg.Input.Locale))
	size := func() int { return store.Dictionary().Len() }
	if path == "" {
		return store, size
	}

	w := autotext.NewWatcher(path, store, logger.Logger)
	if err := w.Start(ctx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no autotext dictionary", "path", path)
		} else {
			logger.Warn("autotext dictionary not loaded", "path", path, "error", err)
		}
		return store, size
	}
	w.OnReload(func(d *autotext.Dictionary) {
		logger.Info("autotext dictionary reloaded", "entries", d.Len())
	})
	go func() {
		<-ctx.Done()
		w.Close()
	}()
	return store, size
}
