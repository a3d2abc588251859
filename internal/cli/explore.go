package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rinzool/datahub/pkg/lineage"
	"github.com/rinzool/datahub/pkg/registry"
	"github.com/rinzool/datahub/pkg/snapshot"
)

// exploreCommand creates the explore command for interactive graph browsing.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		registryPath string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Browse a lineage graph and toggle selections in the terminal",
		Long: `Browse a lineage graph and toggle selections in the terminal.

The explore command opens a graph file (produced by 'build') in an
interactive list ordered by level. Toggling a node cascades along its
lineage: selecting highlights the path to the root, deselecting clears the
branch away from it.

With --output, the graph including its selection state is written back on
exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(args[0], registryPath, output)
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "entity registry TOML file (default: built-in)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph with its selection state on exit")

	return cmd
}

func (c *CLI) runExplore(input, registryPath, output string) error {
	reg, err := loadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	doc, err := snapshot.ImportGraph(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	g, err := snapshot.ToGraph(doc, reg)
	if err != nil {
		return fmt.Errorf("rebuild graph: %w", err)
	}

	model := newExploreModel(g)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	if m, ok := final.(exploreModel); ok && m.err != nil {
		return m.err
	}

	if output == "" {
		return nil
	}
	out, err := snapshot.FromGraph(g)
	if err != nil {
		return err
	}
	out.ID = doc.ID
	if err := snapshot.ExportGraph(out, output); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	printFile(output)
	return nil
}

// exploreModel is the bubbletea model for interactive lineage browsing.
type exploreModel struct {
	graph  *lineage.Graph
	rows   []*lineage.Node // display order: by level, then id
	cursor int
	offset int
	height int
	status string
	err    error
}

func newExploreModel(g *lineage.Graph) exploreModel {
	rows := g.Nodes()
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Level != rows[j].Level {
			return rows[i].Level < rows[j].Level
		}
		return rows[i].ID < rows[j].ID
	})
	return exploreModel{
		graph:  g,
		rows:   rows,
		height: 20,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			n := m.rows[m.cursor]
			if err := m.graph.Toggle(n.ID); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.status = fmt.Sprintf("toggled %s", nodeLabel(n))
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Lineage"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ toggle  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		n := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		mark := " "
		if n.Selected {
			mark = "●"
		}

		line := fmt.Sprintf("%s%s %+d  %s", cursor, mark, n.Level, nodeLabel(n))
		switch {
		case n.Selected:
			line = StyleSelected.Render(line)
		case i == m.cursor:
			line = StyleValue.Render(line)
		default:
			line = StyleDim.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(StyleDim.Render("  " + m.status))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))

	return b.String()
}

// nodeLabel returns the display name for a node's entity payload.
func nodeLabel(n *lineage.Node) string {
	if e, ok := n.Payload.(registry.Entity); ok {
		return e.DisplayName()
	}
	return fmt.Sprintf("node %d", n.ID)
}
