package server

import (
	"marketdash/internal/models"
	"marketdash/internal/render"
)

// pageView is the template-ready projection of a snapshot: columns resolved
// to a stable order, values flattened to text.
type pageView struct {
	Err         string
	LastUpdated string
	Sections    []sectionView
}

type sectionView struct {
	Name    string
	Columns []string
	Rows    [][]string
}

func newPageView(snap *models.Snapshot) pageView {
	if snap.Failed() {
		return pageView{Err: snap.Err}
	}

	view := pageView{
		LastUpdated: snap.LastUpdated.Format("2006-01-02 15:04:05"),
	}

	for _, sec := range snap.Sections {
		cols := sec.ColumnOrder()

		sv := sectionView{Name: sec.Name, Columns: cols}

		for _, row := range sec.Rows {
			cells := make([]string, len(cols))
			for i, col := range cols {
				cells[i] = render.CellText(row[col])
			}

			sv.Rows = append(sv.Rows, cells)
		}

		view.Sections = append(view.Sections, sv)
	}

	return view
}

// dashboardTemplate is intentionally bare markup; styling and charts are out
// of scope for this surface.
const dashboardTemplate = `<!DOCTYPE html>
<html>
<head><title>Global Market Dashboard</title></head>
<body>
<h1>Global Market Dashboard</h1>
{{if .Err}}
<p>Failed to fetch market data. Please try again later.</p>
<p>{{.Err}}</p>
{{else}}
<p>Last updated: {{.LastUpdated}}</p>
{{range .Sections}}
<h2>{{.Name}}</h2>
<table border="1">
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{end}}
{{end}}
<form method="post" action="/refresh"><button type="submit">Refresh Data</button></form>
</body>
</html>
`
