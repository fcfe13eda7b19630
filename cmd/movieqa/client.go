package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"movieqa/internal/models"
)

var (
	askRaw     bool
	searchK    int
	searchMode string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a running server a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the movie corpus on a running server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the answer without markdown rendering")
	searchCmd.Flags().IntVar(&searchK, "k", 0, "number of results (server default when 0)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "knn", "knn|lexical|hybrid|auto")
}

func serverURL() string {
	if v := os.Getenv("MOVIEQA_SERVER_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:3000"
}

func httpClient() *resty.Client {
	return resty.New().SetBaseURL(serverURL()).SetTimeout(90 * time.Second)
}

func runAsk(cmd *cobra.Command, args []string) error {
	var (
		ok   models.AskResponse
		fail struct {
			Error string `json:"error"`
		}
	)
	resp, err := httpClient().R().
		SetBody(models.AskRequest{Question: strings.Join(args, " ")}).
		SetResult(&ok).
		SetError(&fail).
		Post("/ask")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s (HTTP %d)", fail.Error, resp.StatusCode())
	}
	fmt.Print(renderAnswer(ok.Answer))
	return nil
}

// renderAnswer formats markdown answers for the terminal, falling back to
// the plain text.
func renderAnswer(answer string) string {
	if askRaw {
		return answer + "\n"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return answer + "\n"
	}
	out, err := r.Render(answer)
	if err != nil {
		return answer + "\n"
	}
	return out
}

func runSearch(cmd *cobra.Command, args []string) error {
	var (
		ok struct {
			Results []models.SearchResult `json:"results"`
		}
		fail struct {
			Error string `json:"error"`
		}
	)
	req := httpClient().R().
		SetQueryParam("q", strings.Join(args, " ")).
		SetQueryParam("mode", searchMode).
		SetResult(&ok).
		SetError(&fail)
	if searchK > 0 {
		req.SetQueryParam("k", strconv.Itoa(searchK))
	}
	resp, err := req.Get("/search")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s (HTTP %d)", fail.Error, resp.StatusCode())
	}
	if len(ok.Results) == 0 {
		fmt.Println(color.YellowString("no matches"))
		return nil
	}
	for _, r := range ok.Results {
		fmt.Printf("%s (%s)  score=%.3f  #%d\n  %s\n",
			color.GreenString(r.Movie.Title), r.Movie.Year, r.Score, r.Index, r.Movie.Director)
	}
	return nil
}
