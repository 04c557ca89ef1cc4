package wire

import (
	"strings"

	"finboard/internal/core"
)

// Report is a notice board entry as the backend sends it.
type Report struct {
	ID              string   `json:"id"`
	MongoID         string   `json:"_id"`
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	Content         string   `json:"content"`
	FileURL         string   `json:"file_url"`
	FileURLCamel    string   `json:"fileUrl"`
	UploadDate      string   `json:"upload_date"`
	UploadDateCamel string   `json:"uploadDate"`
	CreatedAt       string   `json:"createdAt"`
	Keywords        []string `json:"keywords"`
}

func (d *Report) ToCore() core.Report {
	r := core.Report{
		ID:         FirstNonEmpty(d.ID, d.MongoID),
		Title:      d.Title,
		Type:       core.ReportType(strings.ToLower(strings.TrimSpace(d.Type))),
		Content:    d.Content,
		FileURL:    FirstNonEmpty(d.FileURL, d.FileURLCamel),
		UploadDate: FirstNonEmpty(d.UploadDate, d.UploadDateCamel, d.CreatedAt),
		Keywords:   d.Keywords,
	}
	if len(r.Keywords) == 0 {
		r.Keywords = Keywords(r.Title)
	}
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	return r
}

// Keywords derives search keywords from a title: lowercased words of three
// or more letters, deduplicated in order.
func Keywords(title string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		if len([]rune(w)) < 3 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// ReportList decodes a bare array, {"data": [...]} or {"reports": [...]}.
type ReportList struct {
	items []Report
}

func (l *ReportList) Reports() []core.Report {
	out := make([]core.Report, 0, len(l.items))
	for i := range l.items {
		out = append(out, l.items[i].ToCore())
	}
	return out
}

func (l *ReportList) UnmarshalJSON(b []byte) error {
	items, err := decodeList[Report](b, "reports")
	if err != nil {
		return err
	}
	l.items = items
	return nil
}

// ReportEnvelope decodes a single report.
type ReportEnvelope struct {
	report *Report
}

func (e *ReportEnvelope) Report() (core.Report, bool) {
	if e.report == nil {
		return core.Report{}, false
	}
	return e.report.ToCore(), true
}

func (e *ReportEnvelope) UnmarshalJSON(b []byte) error {
	r, err := decodeOne[Report](b, "report", func(r *Report) bool {
		return r.ID == "" && r.MongoID == "" && r.Title == ""
	})
	if err != nil {
		return err
	}
	e.report = r
	return nil
}

// UserList decodes {"data": [...]}, {"users": [...]} or a bare array.
type UserList struct {
	items []User
}

func (l *UserList) Users() []core.User {
	out := make([]core.User, 0, len(l.items))
	for i := range l.items {
		if l.items[i].Empty() {
			continue
		}
		out = append(out, l.items[i].ToCore())
	}
	return out
}

func (l *UserList) UnmarshalJSON(b []byte) error {
	items, err := decodeList[User](b, "users")
	if err != nil {
		return err
	}
	l.items = items
	return nil
}
