package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"qiita-editor/pkg/config"
	"qiita-editor/pkg/editor"
	"qiita-editor/pkg/handlers"
	"qiita-editor/pkg/services"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: qiita-editor [flags] <command> [file]

commands:
  post-new-item <file>   post the file as a new item (-public to publish)
  list-items             choose one of your items and open it in a new file
  update-item <file>     send the file to the item it is linked to
  open-item-url <file>   open the linked item in the browser
  show-item-info <file>  show the linked item's uuid and url
  commands [file]        show which commands are enabled for the file
  serve                  run the local editor bridge

flags:
`)
	flag.PrintDefaults()
}

func main() {
	settings := flag.String("settings", os.Getenv("QIITA_SETTINGS"), "settings file (.json, .sublime-settings, .yaml, .toml)")
	public := flag.Bool("public", false, "post-new-item: publish instead of posting privately")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*settings)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser := editor.SystemBrowser{}
	workers := services.NewWorkers(cfg, services.NewClient(cfg.BaseURL, cfg.TokenSource()), browser)
	dispatcher := handlers.NewDispatcher(ctx, cfg, workers, browser)

	name, file := flag.Arg(0), flag.Arg(1)
	if name == "serve" {
		if err := serve(ctx, cfg, dispatcher); err != nil {
			log.Fatal(err)
		}
		return
	}

	ws, err := editor.OpenWorkspace(cfg.Workspace, editor.NewTerminalPresenter())
	if err != nil {
		log.Fatal(err)
	}
	window, err := ws.Window(file)
	if err != nil {
		log.Fatal(err)
	}

	if name == "commands" {
		for _, n := range dispatcher.Names() {
			fmt.Printf("%-16s %v\n", n, dispatcher.IsEnabled(n, window))
		}
		return
	}

	var args handlers.Args
	if name == handlers.PostNewItem && isFlagSet("public") {
		private := !*public
		args.Private = &private
	}
	task, err := dispatcher.Run(name, window, args)
	if err != nil {
		log.Fatal(err)
	}
	dispatcher.Wait()
	fmt.Println()
	// For list-items this also reflects fetching the selected item.
	if err := task.Err(); err != nil {
		os.Exit(1)
	}
	if window.ActivePath() != file {
		fmt.Println(window.ActivePath())
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func serve(ctx context.Context, cfg *config.Config, dispatcher *handlers.Dispatcher) error {
	presenter := editor.NewBridgePresenter()
	ws, err := editor.OpenWorkspace(cfg.Workspace, presenter)
	if err != nil {
		return err
	}

	r := gin.Default()
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	handlers.NewBridge(dispatcher, ws, presenter).Register(r, cfg.BridgeSecret)

	srv := &http.Server{Addr: cfg.BridgeAddr, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("bridge listening on %s (workspace %s)", cfg.BridgeAddr, ws.Root())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
