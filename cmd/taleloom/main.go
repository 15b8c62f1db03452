package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"taleloom/internal/api"
	"taleloom/internal/app"
	"taleloom/internal/config"
	"taleloom/internal/export"
	"taleloom/internal/gateway"
	"taleloom/internal/store"
	"taleloom/internal/tale"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and wires the application. The caller must
// defer a.Close().
func newApp(ctx context.Context, notifier tale.Notifier) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(ctx, cfg, notifier)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

var rootCmd = &cobra.Command{
	Use:   "taleloom",
	Short: "Bedtime story companion",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Store:    %s\n", cfg.Store.Type)
		fmt.Printf("Sender:   %s\n", cfg.Sender.Type)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		notes := api.NewNotificationBuffer()
		a, err := newApp(cmd.Context(), notes)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Controller.StartUp(); err != nil {
			a.Logger.Error("start-up failed", "error", err)
		}

		srv := api.NewServer(a.Controller, notes, a.Logger)
		fmt.Printf("Listening on %s\n", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export children and stories to an encrypted archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), tale.NopNotifier{})
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		archive, err := export.FromStore(a.Store, tale.RealClock{})
		if err != nil {
			return fmt.Errorf("building archive: %w", err)
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating archive file: %w", err)
		}
		defer f.Close()

		if err := export.Write(f, passphrase, archive); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}

		fmt.Printf("Exported %d child(ren) and %d story(ies) to %s\n",
			len(archive.Children), len(archive.Stories), args[0])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import an encrypted archive into the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), tale.NopNotifier{})
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening archive file: %w", err)
		}
		defer f.Close()

		archive, err := export.Read(f, passphrase)
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		children, stories, err := export.Apply(a.Store, archive)
		if err != nil {
			return fmt.Errorf("importing archive: %w", err)
		}

		fmt.Printf("Imported %d child(ren) and %d story(ies)\n", children, stories)
		return nil
	},
}

// captureSender keeps the last verification code so the demo can
// complete sign-in without a real delivery channel.
type captureSender struct {
	mu   sync.Mutex
	code string
}

func (s *captureSender) Send(ctx context.Context, destination, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
	return nil
}

func (s *captureSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// printNotifier writes notifications to stdout as they happen.
type printNotifier struct{}

func (printNotifier) Notify(n tale.Notification) {
	if n.Detail != "" {
		fmt.Printf("  [%s] %s — %s\n", n.Severity, n.Message, n.Detail)
		return
	}
	fmt.Printf("  [%s] %s\n", n.Severity, n.Message)
}

// demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted story session against an in-memory store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sender := &captureSender{}
		clock := tale.RealClock{}
		idgen := tale.UUIDGenerator{}
		gw := tale.Gateways{
			Sender:    sender,
			Payments:  gateway.NewStaticGateway(0, clock, idgen),
			Generator: gateway.NewTemplateGenerator(0),
			Tokens:    gateway.NewJWTIssuer("demo-secret", time.Hour),
		}

		ctrl := tale.NewController(store.NewMemoryStore(), gw, printNotifier{}, tale.NewNopLogger(), clock, idgen, tale.Options{})

		step := func(name string, fn func() error) error {
			fmt.Printf("%s (screen: %s)\n", name, ctrl.Screen())
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		}

		steps := []struct {
			name string
			fn   func() error
		}{
			{"start-up", ctrl.StartUp},
			{"complete-onboarding", ctrl.CompleteOnboarding},
			{"send-code", func() error { return ctrl.SendCode(ctx, "family@example.com") }},
			{"verify-code", func() error { return ctrl.VerifyCode(ctx, sender.last()) }},
			{"add-child", func() error {
				_, err := ctrl.AddChild(tale.ChildInput{Name: "Emma", Age: 6})
				return err
			}},
		}
		for _, s := range steps {
			if err := step(s.name, s.fn); err != nil {
				return err
			}
		}

		snap, err := ctrl.Snapshot()
		if err != nil {
			return err
		}
		childID := snap.Children[0].ID

		err = step("generate-story", func() error {
			_, err := ctrl.GenerateStory(ctx, tale.StoryRequest{
				ChildID: childID,
				Themes:  []string{"Space"},
				Lesson:  "courage",
			})
			return err
		})
		if err != nil {
			return err
		}
		if err := step("save-story", ctrl.SaveStory); err != nil {
			return err
		}

		snap, err = ctrl.Snapshot()
		if err != nil {
			return err
		}
		fmt.Printf("\nFinal screen: %s\n", snap.Screen)
		fmt.Printf("Stories used today: %d, this month: %d\n",
			snap.Usage.UsedToday, snap.Usage.UsedThisMonth)
		for _, s := range snap.Stories {
			fmt.Printf("Library: %s (%s)\n", s.Title, s.DurationLabel)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "127.0.0.1:8372", "Listen address")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(demoCmd)
}
