package manager

import "strings"

// ReportView parameterizes the manager for one report page: the same
// manager runs against any of these sources, only the fetch path and
// the heading differ.
type ReportView struct {
	Name  string
	Title string
	Path  string
}

var reportViews = []ReportView{
	{Name: "all", Title: "All Sales", Path: "/sales"},
	{Name: "today", Title: "Today's Sales", Path: "/sales/report/daily"},
	{Name: "week", Title: "This Week's Sales", Path: "/sales/report/weekly"},
	{Name: "month", Title: "This Month's Sales", Path: "/sales/report/monthly"},
	{Name: "year", Title: "This Year's Sales", Path: "/sales/report/yearly"},
}

func ReportViews() []ReportView {
	out := make([]ReportView, len(reportViews))
	copy(out, reportViews)
	return out
}

func FindReportView(name string) (ReportView, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, rv := range reportViews {
		if rv.Name == needle {
			return rv, true
		}
	}
	return ReportView{}, false
}
