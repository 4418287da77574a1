package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"stock_ingest/internal/feature/candles/adapters"
	"stock_ingest/internal/feature/candles/domain/entity"
	"stock_ingest/internal/feature/candles/usecase"
	"stock_ingest/internal/platform/db"
	"stock_ingest/internal/shared/render"
)

const dateLayout = "2006-01-02"

// queryParams is the one filter contract shared by the flag-driven and the
// interactive front end.
type queryParams struct {
	session     string
	granularity string
	ticker      string
	startDate   string
	endDate     string
	limit       int
}

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	app := &cli.App{
		Name:  "query",
		Usage: "read stored candles from the database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Value: "classic", Usage: "session table: classic or weekend"},
			&cli.StringFlag{Name: "granularity", Aliases: []string{"g"}, Value: "base", Usage: "bucket width: base or hourly"},
			&cli.StringFlag{Name: "ticker", Aliases: []string{"k"}, Usage: "filter by ticker"},
			&cli.StringFlag{Name: "start-date", Aliases: []string{"s"}, Usage: "inclusive start date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "end-date", Aliases: []string{"e"}, Usage: "inclusive end date (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: usecase.DefaultQueryLimit, Usage: "maximum rows returned"},
		},
		Action: func(c *cli.Context) error {
			p := queryParams{
				session:     c.String("table"),
				granularity: c.String("granularity"),
				ticker:      c.String("ticker"),
				startDate:   c.String("start-date"),
				endDate:     c.String("end-date"),
				limit:       c.Int("limit"),
			}
			// A bare invocation drops into the interactive menu; any flag
			// skips it.
			if c.NumFlags() == 0 && len(os.Args) == 1 {
				var err error
				p, err = promptParams(os.Stdin)
				if err != nil {
					return err
				}
			}
			return runQuery(c.Context, p)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runQuery resolves the params against the store and renders the result.
func runQuery(ctx context.Context, p queryParams) error {
	session, err := entity.ParseSession(p.session)
	if err != nil {
		return err
	}
	granularity, err := entity.ParseGranularity(p.granularity)
	if err != nil {
		return err
	}

	filter := usecase.QueryFilter{Ticker: p.ticker, Limit: p.limit}
	if p.startDate != "" {
		filter.StartDate, err = time.Parse(dateLayout, p.startDate)
		if err != nil {
			return fmt.Errorf("start date must be YYYY-MM-DD: %w", err)
		}
	}
	if p.endDate != "" {
		filter.EndDate, err = time.Parse(dateLayout, p.endDate)
		if err != nil {
			return fmt.Errorf("end date must be YYYY-MM-DD: %w", err)
		}
	}

	gormDB, err := db.OpenDB()
	if err != nil {
		return err
	}

	uc := usecase.NewQueryUsecase(adapters.NewCandleRepository(gormDB))
	kind := entity.TableKind{Session: session, Granularity: granularity}
	candles, err := uc.GetCandles(ctx, kind, filter)
	if err != nil {
		return err
	}

	if len(candles) == 0 {
		fmt.Println("No records found")
		return nil
	}
	render.CandleTable(os.Stdout, candles)
	return nil
}

// promptParams collects the same filters interactively. Empty answers keep
// the defaults.
func promptParams(in io.Reader) (queryParams, error) {
	sc := bufio.NewScanner(in)
	p := queryParams{session: "classic", granularity: "base", limit: usecase.DefaultQueryLimit}

	fmt.Println("Select table:")
	fmt.Println("  1) classic")
	fmt.Println("  2) weekend")
	if ask(sc, "Table [1]: ") == "2" {
		p.session = "weekend"
	}

	fmt.Println("Select granularity:")
	fmt.Println("  1) base (10 min)")
	fmt.Println("  2) hourly")
	if ask(sc, "Granularity [1]: ") == "2" {
		p.granularity = "hourly"
	}

	p.ticker = ask(sc, "Ticker (empty for all): ")
	p.startDate = ask(sc, "Start date YYYY-MM-DD (empty for none): ")
	p.endDate = ask(sc, "End date YYYY-MM-DD (empty for none): ")

	if v := ask(sc, fmt.Sprintf("Limit [%d]: ", usecase.DefaultQueryLimit)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("limit must be a positive number, got %q", v)
		}
		p.limit = n
	}

	if err := sc.Err(); err != nil {
		return p, err
	}
	return p, nil
}

func ask(sc *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}
