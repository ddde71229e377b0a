package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
)

// Palette shared by every command.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6C7086")
	colorSuccess = lipgloss.Color("#A6E3A1")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorBorder  = lipgloss.Color("#45475A")
)

// printer renders for one writer. Colours are dropped automatically when
// the writer is not a terminal.
type printer struct {
	w     io.Writer
	r     *lipgloss.Renderer
	width int
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w, r: lipgloss.NewRenderer(w)}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = width
		}
	}
	return p
}

func (p *printer) title(format string, args ...any) {
	fmt.Fprintln(p.w, p.r.NewStyle().Bold(true).Foreground(colorPrimary).Render(fmt.Sprintf(format, args...)))
}

func (p *printer) muted(format string, args ...any) {
	fmt.Fprintln(p.w, p.r.NewStyle().Foreground(colorMuted).Render(fmt.Sprintf(format, args...)))
}

func (p *printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, p.r.NewStyle().Foreground(colorSuccess).Render(fmt.Sprintf(format, args...)))
}

func (p *printer) warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.r.NewStyle().Foreground(colorWarning).Render(fmt.Sprintf(format, args...)))
}

func (p *printer) table(headers []string, rows [][]string) {
	header := p.r.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	cell := p.r.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.r.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	if p.width > 0 {
		t = t.Width(p.width)
	}
	fmt.Fprintln(p.w, t.String())
}

func (p *printer) persons(persons []domain.Person) {
	rows := make([][]string, 0, len(persons))
	for _, person := range persons {
		rows = append(rows, []string{
			person.ID,
			person.FullName,
			strings.Join(person.Titles, ", "),
			person.DOB,
			person.TaxCode,
			joinNonEmpty(person.City, person.Province),
			strconv.FormatFloat(person.Confidence, 'f', 2, 64),
			strconv.Itoa(person.OccurrenceCount),
		})
	}
	p.table([]string{"ID", "Name", "Titles", "Born", "Tax code", "City", "Conf", "Occ"}, rows)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// truncate shortens s to n runes, marking the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:max(n-1, 0)]) + "…"
}
