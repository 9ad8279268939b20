package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/KenThuan129/startup-simulation-game/internal/app"
	cl "github.com/KenThuan129/startup-simulation-game/internal/cli"
	"github.com/KenThuan129/startup-simulation-game/internal/config"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/replay"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
	"github.com/KenThuan129/startup-simulation-game/internal/tui"
)

const requestTimeout = 30 * time.Second

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "simctl",
		Short:        "Startup simulation tooling",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "admin API base URL")

	root.AddCommand(
		newSimulateCmd(),
		newReplayCmd(),
		newContentCmd(),
		newDifficultiesCmd(),
		newPlayCmd(),
		newLoginCmd(&apiBase),
		newLogoutCmd(),
		newCompanyCmd(),
		newExpireCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// remoteClient builds a client from the saved session.
func remoteClient() (*cl.Client, error) {
	s, err := cl.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("not logged in (run `simctl login`): %w", err)
	}
	return cl.NewClient(s.BaseURL, s.AdminToken), nil
}

func newSimulateCmd() *cobra.Command {
	var (
		difficulty string
		out        string
		contentDir string
		tuningPath string
		remote     bool
		cfg        sim.SimulationConfig
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run seeded automated companies and report survival",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Difficulty = sim.Difficulty(strings.ToLower(strings.TrimSpace(difficulty)))
			if !sim.ValidDifficulty(cfg.Difficulty) {
				return fmt.Errorf("unknown difficulty %q", difficulty)
			}
			if cfg.Companies <= 0 {
				return fmt.Errorf("--companies must be > 0")
			}

			if remote {
				if out != "" {
					return fmt.Errorf("--out is only supported for local runs")
				}
				client, err := remoteClient()
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
				defer cancel()
				res, err := client.Simulate(ctx, cfg)
				if err != nil {
					return err
				}
				printInfo("run " + res.RunID + " on " + client.BaseURL)
				renderSimulation(res.Result)
				return nil
			}

			repo, err := app.LoadContent(contentDir)
			if err != nil {
				return err
			}
			tuning, err := config.LoadTuning(tuningPath)
			if err != nil {
				return err
			}
			if cfg.Days > tuning.MaxDay {
				cfg.Days = tuning.MaxDay
			}

			var rec sim.Recorder
			if out != "" {
				w, err := replay.Create(out, replay.Header{
					Version:       replay.FormatVersion,
					ContentDigest: repo.Digest(),
					Config:        cfg,
					CreatedAt:     time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				defer w.Close()
				rec = w
			}

			res, err := sim.Simulate(repo, tuning, cfg, rec)
			if err != nil {
				return err
			}
			renderSimulation(res)
			if out != "" {
				printSuccess("Replay written to " + out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", string(sim.DifficultyNormal), "easy, normal, hard or another_story")
	cmd.Flags().IntVar(&cfg.Companies, "companies", 10, "number of companies")
	cmd.Flags().IntVar(&cfg.Days, "days", 0, "days per company (0 = full campaign)")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&cfg.Role, "role", "", "founder role for every company")
	cmd.Flags().BoolVar(&cfg.Lifeline, "lifeline", false, "take a loan when cash runs low")
	cmd.Flags().StringVar(&out, "out", "", "write a replay log (.jsonl.zst)")
	cmd.Flags().StringVar(&contentDir, "content-dir", os.Getenv("STARTUPSIM_CONTENT_DIR"), "content directory (default embedded)")
	cmd.Flags().StringVar(&tuningPath, "tuning", os.Getenv("STARTUPSIM_TUNING"), "tuning YAML overrides")
	cmd.Flags().BoolVar(&remote, "remote", false, "run on the admin API instead of locally")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Summarise a replay log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				s, err := replay.Summarize(args[0])
				if err != nil {
					return err
				}
				renderReplay(s)
				return nil
			}
			h, err := replay.Read(args[0], func(d sim.DayRecord) error {
				renderDayRecord(d)
				return nil
			})
			if err != nil {
				return err
			}
			printInfo(fmt.Sprintf("seed %d, content %s", h.Config.Seed, shortDigest(h.ContentDigest)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every day record")
	return cmd
}

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect game content tables",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate [dir]",
			Short: "Validate content tables against their schemas",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := ""
				if len(args) == 1 {
					dir = args[0]
				}
				repo, err := app.LoadContent(dir)
				if err != nil {
					printError("Content is invalid.")
					return err
				}
				renderContent(repo.Summary())
				printSuccess("Content is valid.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "digest [dir]",
			Short: "Print the content digest",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := ""
				if len(args) == 1 {
					dir = args[0]
				}
				repo, err := app.LoadContent(dir)
				if err != nil {
					return err
				}
				fmt.Println(repo.Digest())
				return nil
			},
		},
	)
	return cmd
}

func newDifficultiesCmd() *cobra.Command {
	var tuningPath string
	cmd := &cobra.Command{
		Use:   "difficulties",
		Short: "List difficulty settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			tuning, err := config.LoadTuning(tuningPath)
			if err != nil {
				return err
			}
			renderDifficulties(tuning)
			return nil
		},
	}
	cmd.Flags().StringVar(&tuningPath, "tuning", os.Getenv("STARTUPSIM_TUNING"), "tuning YAML overrides")
	return cmd
}

func newPlayCmd() *cobra.Command {
	var (
		dbPath     string
		owner      string
		name       string
		kind       string
		difficulty string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a company locally in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("play needs an interactive terminal")
			}
			if dbPath == "" {
				dir, err := cl.SessionDir()
				if err != nil {
					return err
				}
				dbPath = filepath.Join(dir, "play.db")
			}
			storeCfg := config.StoreConfig{
				SQLitePath: dbPath,
				TuningPath: os.Getenv("STARTUPSIM_TUNING"),
				ContentDir: os.Getenv("STARTUPSIM_CONTENT_DIR"),
			}
			ctx := cmd.Context()
			rt, err := app.Open(ctx, storeCfg, quietLogger())
			if err != nil {
				return err
			}
			defer rt.Close()

			c, err := rt.Game.ActiveCompany(ctx, owner)
			if errors.Is(err, game.ErrNoActiveCompany) {
				c, err = rt.Game.CreateCompany(ctx, game.CreateCompanyInput{
					OwnerID:    owner,
					Name:       name,
					Type:       kind,
					Difficulty: sim.Difficulty(difficulty),
					Goals:      []game.GoalInput{{Type: sim.GoalSurviveDays, Target: float64(rt.Game.Tuning().MaxDay)}},
				})
			}
			if err != nil {
				return err
			}
			return tui.Run(ctx, rt.Game, c.ID)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file (default $SIMCTL_HOME/play.db or ~/.simctl/play.db)")
	cmd.Flags().StringVar(&owner, "owner", "local", "owner id for the local save")
	cmd.Flags().StringVar(&name, "name", "Garage Labs", "company name for a new game")
	cmd.Flags().StringVar(&kind, "type", "saas", "company type for a new game")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(sim.DifficultyNormal), "difficulty for a new game")
	return cmd
}

func newLoginCmd(apiBase *string) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the admin API address and token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				token, err = promptSecret("Admin token")
				if err != nil {
					return err
				}
			}
			client := cl.NewClient(*apiBase, token)
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			if _, err := client.Content(ctx); err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{BaseURL: client.BaseURL, AdminToken: token}); err != nil {
				return err
			}
			printSuccess("Login successful.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "admin token (prompted when empty)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newCompanyCmd() *cobra.Command {
	var (
		owner     string
		anomalies int
		endDay    bool
	)
	cmd := &cobra.Command{
		Use:   "company [id]",
		Short: "Inspect a company through the admin API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (owner == "") {
				return fmt.Errorf("pass a company id or --owner")
			}
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			var c sim.Company
			if owner != "" {
				c, err = client.OwnerCompany(ctx, owner)
			} else {
				c, err = client.Company(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if endDay {
				res, err := client.EndDay(ctx, c.ID)
				if err != nil {
					return err
				}
				c = res.Company
				printWarn(fmt.Sprintf("Forced end of day %d.", res.End.Tick.Day))
			}
			renderCompany(c)

			loans, err := client.Loans(ctx, c.ID)
			if err != nil {
				return err
			}
			renderLoans(loans)

			b, err := client.Boss(ctx, c.ID)
			var apiErr *cl.APIError
			switch {
			case errors.As(err, &apiErr) && apiErr.Status == 404:
			case err != nil:
				return err
			default:
				renderBattle(b)
			}

			if anomalies > 0 {
				entries, err := client.Anomalies(ctx, c.ID, anomalies)
				if err != nil {
					return err
				}
				renderAnomalies(entries)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "look up the owner's active company instead")
	cmd.Flags().IntVar(&anomalies, "anomalies", 5, "recent anomalies to show (0 to skip)")
	cmd.Flags().BoolVar(&endDay, "end-day", false, "force the company's day to end first")
	return cmd
}

func newExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-battles",
		Short: "Expire boss battles whose turn deadline passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			n, err := client.ExpireBattles(ctx)
			if err != nil {
				return err
			}
			printInfo(fmt.Sprintf("%d battle(s) expired.", n))
			return nil
		},
	}
}
