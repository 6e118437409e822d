package tools

import (
	"fmt"
	"io"
	"sort"

	"github.com/petab-dev/petab/core"

	md "github.com/russross/blackfriday/v2"
)

// RenderOverviewHTML writes an HTML table summarizing a problem's
// measurements: one row per observable, one column per experiment,
// cells counting data points.
func RenderOverviewHTML(p *core.Problem, doc string, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	if doc != "" {
		f(`<div class="problemDoc doc">%s</div>`, md.Run([]byte(doc)))
	}

	counts := make(map[string]map[string]int)
	experiments := map[string]bool{}
	for _, ms := range p.Measurements {
		if counts[ms.ObservableID] == nil {
			counts[ms.ObservableID] = make(map[string]int)
		}
		counts[ms.ObservableID][ms.ExperimentID]++
		experiments[ms.ExperimentID] = true
	}

	obsIDs := make([]string, 0, len(counts))
	for id := range counts {
		obsIDs = append(obsIDs, id)
	}
	sort.Strings(obsIDs)

	expIDs := make([]string, 0, len(experiments))
	for id := range experiments {
		expIDs = append(expIDs, id)
	}
	sort.Strings(expIDs)

	f(`<div class="overview"><table>`)
	f(`<tr><th>observable</th>`)
	for _, eid := range expIDs {
		if eid == "" {
			eid = "(none)"
		}
		f(`<th>%s</th>`, eid)
	}
	f(`<th>total</th></tr>`)

	for _, oid := range obsIDs {
		f(`<tr><td><span class="observableId">%s</span></td>`, oid)
		total := 0
		for _, eid := range expIDs {
			n := counts[oid][eid]
			total += n
			f(`<td>%d</td>`, n)
		}
		f(`<td>%d</td></tr>`, total)
	}

	f(`</table></div>`)
	return nil
}

// RenderOverviewPage wraps RenderOverviewHTML in a complete page.
func RenderOverviewPage(p *core.Problem, title, doc string, out io.Writer, cssFiles []string) error {
	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderOverviewHTML(p, doc, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}
