package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// xmlReport is the document layout:
//
//	<forecastReport runId="..." generatedAt="..." target="..." horizon="2" status="ok">
//	  <series scope="Total" status="ok">
//	    <point month="2024-01" kind="historico">100.00</point>
//	    <point month="2024-04" kind="previsao">400.00</point>
//	  </series>
//	  <files>
//	    <file path="Jan24.txt" period="2024-01" rows="10" total="100.00" status="ok"/>
//	  </files>
//	</forecastReport>
type xmlReport struct {
	XMLName     xml.Name    `xml:"forecastReport"`
	RunID       string      `xml:"runId,attr"`
	GeneratedAt string      `xml:"generatedAt,attr"`
	Target      string      `xml:"target,attr"`
	Horizon     int         `xml:"horizon,attr"`
	Status      string      `xml:"status,attr"`
	Series      []xmlSeries `xml:"series"`
	Files       []xmlFile   `xml:"files>file"`
}

type xmlSeries struct {
	Scope  string     `xml:"scope,attr"`
	Status string     `xml:"status,attr,omitempty"`
	Points []xmlPoint `xml:"point"`
}

type xmlPoint struct {
	Month string `xml:"month,attr"`
	Kind  string `xml:"kind,attr"`
	Value string `xml:",chardata"`
}

type xmlFile struct {
	Path    string `xml:"path,attr"`
	Period  string `xml:"period,attr,omitempty"`
	Rows    int    `xml:"rows,attr"`
	Total   string `xml:"total,attr"`
	Status  string `xml:"status,attr"`
	Message string `xml:"message,attr,omitempty"`
}

// WriteXML renders rep as an indented XML document with a declaration.
func WriteXML(w io.Writer, rep Report) error {
	doc := xmlReport{
		RunID:       rep.RunID,
		GeneratedAt: rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Target:      rep.TargetField,
		Horizon:     rep.Horizon,
		Status:      rep.Status,
	}

	byScope := make(map[string]int)
	for _, row := range rep.Rows() {
		i, ok := byScope[row.Scope]
		if !ok {
			i = len(doc.Series)
			byScope[row.Scope] = i
			doc.Series = append(doc.Series, xmlSeries{Scope: row.Scope})
		}
		doc.Series[i].Points = append(doc.Series[i].Points, xmlPoint{
			Month: row.Month,
			Kind:  row.Kind,
			Value: amount(row.Value),
		})
	}
	if i, ok := byScope[GlobalScope]; ok {
		doc.Series[i].Status = rep.Status
	}
	for _, c := range rep.Categories {
		if i, ok := byScope[c.Category]; ok {
			doc.Series[i].Status = c.Status
		} else {
			byScope[c.Category] = len(doc.Series)
			doc.Series = append(doc.Series, xmlSeries{Scope: c.Category, Status: c.Status})
		}
	}

	for _, f := range rep.Files {
		xf := xmlFile{Path: f.Path, Rows: f.Rows, Total: amount(f.Total), Status: f.Status, Message: f.Message}
		if !f.Period.IsZero() {
			xf.Period = f.Period.String()
		}
		doc.Files = append(doc.Files, xf)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
