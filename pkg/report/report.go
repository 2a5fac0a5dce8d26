// Package report renders fixtures, load results and recorded runs as tables
package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	"github.com/jhwagner/mapping-fixtures/pkg/fixture"
	"github.com/jhwagner/mapping-fixtures/pkg/topology"
)

const timeFormat = "2006-01-02 15:04:05"

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.SetHeader(header)
	return table
}

// Summary writes one line per loaded fixture with entity counts
func Summary(w io.Writer, results []*fixture.Result) {
	table := newTable(w, []string{"FIXTURE", "CONTAINERS", "NODES", "ENDPOINTS", "TRANSPORTS", "LINKS"})
	for _, res := range results {
		name := res.Fixture
		if res.Partial {
			name += " (partial)"
		}
		table.Append([]string{
			name,
			strconv.Itoa(res.Count(fixture.KindContainer)),
			strconv.Itoa(res.Count(fixture.KindNode)),
			strconv.Itoa(res.Count(fixture.KindEndpoint)),
			strconv.Itoa(res.Count(fixture.KindTransport)),
			strconv.Itoa(res.Count(fixture.KindLink)),
		})
	}
	table.Render()
}

// Entities writes every entity a fixture touched with its service id
func Entities(w io.Writer, res *fixture.Result) {
	table := newTable(w, []string{"KIND", "NAME", "ID", "PARENT_ID"})
	for _, e := range res.Entities {
		parent := ""
		if e.ParentID != 0 {
			parent = strconv.FormatInt(e.ParentID, 10)
		}
		table.Append([]string{string(e.Kind), e.Name, strconv.FormatInt(e.ID, 10), parent})
	}
	table.Render()
}

// Fixtures writes the fixtures available for loading
func Fixtures(w io.Writer, fixtures []config.Fixture) {
	table := newTable(w, []string{"NAME", "CONTAINERS", "NODES", "ENDPOINTS", "LINKS", "DESCRIPTION"})
	for _, f := range fixtures {
		nodes, endpoints := 0, 0
		for _, c := range f.Containers {
			n, e := countTree(c.Nodes)
			nodes += n
			endpoints += e
		}
		table.Append([]string{
			f.Name,
			strconv.Itoa(len(f.Containers)),
			strconv.Itoa(nodes),
			strconv.Itoa(endpoints),
			strconv.Itoa(len(f.Links)),
			f.Description,
		})
	}
	table.Render()
}

// Runs writes the recorded runs
func Runs(w io.Writer, runs []*topology.Topology) {
	table := newTable(w, []string{"NAME", "RUN_ID", "STATUS", "SERVICE", "FIXTURES", "NODES", "LINKS", "CREATED"})
	for _, run := range runs {
		md := run.GetMetadata()
		table.Append([]string{
			md.Name,
			md.RunID,
			md.Status,
			md.Service.URL,
			strconv.Itoa(len(md.Fixtures)),
			strconv.Itoa(run.Count(fixture.KindNode)),
			strconv.Itoa(run.Count(fixture.KindLink)),
			md.CreatedAt.Format(timeFormat),
		})
	}
	table.Render()
}

func countTree(nodes []config.Node) (int, int) {
	n, e := len(nodes), 0
	for _, node := range nodes {
		e += len(node.Endpoints)
		cn, ce := countTree(node.Nodes)
		n += cn
		e += ce
	}
	return n, e
}
