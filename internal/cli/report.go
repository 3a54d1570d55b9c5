package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	service "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/domain/h2h"
	"github.com/okian/padel/internal/domain/history"
	"github.com/okian/padel/internal/domain/leaderboard"
	"github.com/okian/padel/internal/domain/types"
)

const dash = "-"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func level(v *float64) string {
	if v == nil {
		return dash
	}
	return fmt.Sprintf("%.2f", *v)
}

func percent(v *float64) string {
	if v == nil {
		return dash
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

func ratio(v *float64) string {
	if v == nil {
		return dash
	}
	return fmt.Sprintf("%.2f", *v)
}

// PrintRankings writes a power ranking table.
func PrintRankings(w io.Writer, entries []types.Entry) {
	table := newTable(w)
	table.Header("#", "PLAYER", "LEVEL", "MATCHES", "WIN%", "SCORE", "STREAK")
	for _, e := range entries {
		table.Append(
			strconv.Itoa(e.Rank),
			e.Name,
			level(e.Level),
			strconv.Itoa(e.Matches),
			percent(e.WinRate),
			fmt.Sprintf("%.1f", e.PowerScore),
			e.Streak.Label,
		)
	}
	table.Render()
}

// PrintPlayers writes a player listing.
func PrintPlayers(w io.Writer, cards []service.PlayerCard) {
	table := newTable(w)
	table.Header("ID", "PLAYER", "LEVEL", "MATCHES", "WIN%", "CLUBS")
	for _, c := range cards {
		table.Append(c.ID, c.Name, level(c.Level), strconv.Itoa(c.Matches), percent(c.WinRate), strings.Join(c.Clubs, ", "))
	}
	table.Render()
}

// PrintGraph writes the graph summary and its leaderboards.
func PrintGraph(w io.Writer, view service.GraphView) {
	m := view.Meta
	fmt.Fprintf(w, "\nNodes: %d  |  Links: %d  |  Min weight: %d  |  Edges scanned: %d  |  Players considered: %d\n\n",
		m.Nodes, m.Links, m.MinWeight, m.EdgesScanned, m.PlayersConsidered)

	lb := view.Leaderboard
	printPlayerBoard(w, "Most active", lb.MostActive)
	printPlayerBoard(w, "Most connected", lb.MostConnected)
	printPlayerBoard(w, "Best win rate", lb.BestWinRate)

	fmt.Fprintln(w, "\nStrongest pairs")
	pairs := newTable(w)
	pairs.Header("PLAYER", "PLAYER", "MATCHES", "RELATIONSHIP")
	for _, p := range lb.TopPairs {
		pairs.Append(p.SourceName, p.TargetName, strconv.Itoa(p.Weight), string(p.Relationship))
	}
	pairs.Render()

	printBuckets(w, "Clubs", lb.Clubs)
	printBuckets(w, "Levels", lb.Levels)
}

func printPlayerBoard(w io.Writer, title string, rows []leaderboard.PlayerEntry) {
	fmt.Fprintf(w, "\n%s\n", title)
	table := newTable(w)
	table.Header("PLAYER", "MATCHES", "DEGREE", "WIN%")
	for _, r := range rows {
		table.Append(r.Name, strconv.Itoa(r.Matches), strconv.Itoa(r.Degree), percent(r.WinRate))
	}
	table.Render()
}

func printBuckets(w io.Writer, title string, rows []leaderboard.Bucket) {
	fmt.Fprintf(w, "\n%s\n", title)
	table := newTable(w)
	table.Header("LABEL", "PLAYERS")
	for _, b := range rows {
		table.Append(b.Label, strconv.Itoa(b.Players))
	}
	table.Render()
}

// PrintHistory writes a match history report.
func PrintHistory(w io.Writer, r history.Report) {
	form := make([]string, 0, len(r.Form.Last))
	for _, o := range r.Form.Last {
		form = append(form, string(o))
	}
	fmt.Fprintf(w, "\nPlayer: %s  |  Matches: %d  |  W-L: %d-%d  |  Win rate: %.0f%%  |  Form: %s  |  Streak: %d%s\n",
		r.PlayerID, r.TotalMatches, r.Wins, r.Losses, r.WinRate*100, strings.Join(form, ""), r.Form.Streak, r.Form.StreakType)

	a := r.Advanced
	fmt.Fprintf(w, "Sets: %d-%d (%s)  |  Games: %d-%d (%s)  |  Three-setters: %d/%d  |  Bagels: %d  |  Breadsticks: %d\n\n",
		a.SetsWon, a.SetsLost, ratio(a.SetRatio), a.GamesWon, a.GamesLost, ratio(a.GameRatio),
		a.ThreeSetWins, a.ThreeSetMatches, a.Bagels, a.Breadsticks)

	table := newTable(w)
	table.Header("DATE", "CLUB", "RESULT", "PARTNER", "OPPONENTS", "SCORE")
	for _, e := range r.History {
		partner := dash
		if e.Partner != nil {
			partner = e.Partner.Name
		}
		opponents := make([]string, 0, len(e.Opponents))
		for _, o := range e.Opponents {
			opponents = append(opponents, o.Name)
		}
		table.Append(e.PlayedAt.Format("2006-01-02"), e.Club, string(e.Result), partner, strings.Join(opponents, " / "), e.Score)
	}
	table.Render()

	printRecords(w, "Partners", r.Partners)
	printRecords(w, "Opponents", r.Opponents)

	if r.Nemesis != nil {
		fmt.Fprintf(w, "\nNemesis: %s (%d-%d)\n", r.Nemesis.Name, r.Nemesis.Wins, r.Nemesis.Losses)
	}
	if r.Favorite != nil {
		fmt.Fprintf(w, "Favorite opponent: %s (%d-%d)\n", r.Favorite.Name, r.Favorite.Wins, r.Favorite.Losses)
	}
}

func printRecords(w io.Writer, title string, rows []history.Record) {
	fmt.Fprintf(w, "\n%s\n", title)
	table := newTable(w)
	table.Header("PLAYER", "MATCHES", "W", "L", "WIN%")
	for _, r := range rows {
		table.Append(r.Name, strconv.Itoa(r.Matches), strconv.Itoa(r.Wins), strconv.Itoa(r.Losses), fmt.Sprintf("%.0f%%", r.WinRate*100))
	}
	table.Render()
}

// PrintH2H writes a head-to-head comparison.
func PrintH2H(w io.Writer, r h2h.Report) {
	fmt.Fprintf(w, "\n%s vs %s  |  Score: %d-%d  |  Mutual: %d  |  Connections: %d / %d\n",
		r.A.Name, r.B.Name, r.Score.A, r.Score.B, r.MutualCount, r.ConnectionsA, r.ConnectionsB)
	if r.Direct != nil {
		fmt.Fprintf(w, "Direct: %s, %d matches\n", r.Direct.Relationship, r.Direct.Weight)
	}
	if len(r.SharedClubs) > 0 {
		fmt.Fprintf(w, "Shared clubs: %s\n", strings.Join(r.SharedClubs, ", "))
	}
	fmt.Fprintf(w, "As opponents: %d matches (%d-%d)  |  As partners: %d matches (%d-%d)\n\n",
		r.Record.AsOpponents.Matches, r.Record.AsOpponents.AWins, r.Record.AsOpponents.BWins,
		r.Record.AsPartners.Matches, r.Record.AsPartners.Wins, r.Record.AsPartners.Losses)

	table := newTable(w)
	table.Header("CATEGORY", r.A.Name, r.B.Name, "WINNER")
	for _, c := range r.Categories {
		winner := dash
		switch {
		case c.Winner == nil:
		case *c.Winner == h2h.SideA:
			winner = r.A.Name
		case *c.Winner == h2h.SideB:
			winner = r.B.Name
		default:
			winner = string(*c.Winner)
		}
		table.Append(c.Label, number(c.A), number(c.B), winner)
	}
	table.Render()
}

func number(v *float64) string {
	if v == nil {
		return dash
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
