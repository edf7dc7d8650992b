package extract

import (
	"testing"
	"time"
)

func newDateExtractor(t *testing.T) *DateExtractor {
	t.Helper()
	locales, err := LoadLocales()
	if err != nil {
		t.Fatalf("LoadLocales() error = %v", err)
	}
	return NewDateExtractor(locales)
}

// test localized start date phrases
func TestDateExtractor_StartDate(t *testing.T) {
	e := newDateExtractor(t)

	tests := []struct {
		name string
		text string
		want string // YYYY-MM-DD, empty means no date
	}{
		{
			name: "portuguese full month",
			text: "Veiculação iniciada em 18 de dezembro de 2025",
			want: "2025-12-18",
		},
		{
			name: "portuguese abbreviated month",
			text: "Veiculação iniciada em 18 de dez de 2025",
			want: "2025-12-18",
		},
		{
			name: "english abbreviated month",
			text: "Started running on Dec 18, 2025",
			want: "2025-12-18",
		},
		{
			name: "english full month",
			text: "Started running on December 3, 2024",
			want: "2024-12-03",
		},
		{
			name: "case insensitive",
			text: "started running on JAN 5, 2024",
			want: "2024-01-05",
		},
		{
			name: "year below range rejected",
			text: "Veiculação iniciada em 18 de dezembro de 1999",
			want: "",
		},
		{
			name: "year above range rejected",
			text: "Started running on Dec 18, 2031",
			want: "",
		},
		{
			name: "unknown month rejected",
			text: "Veiculação iniciada em 18 de zzz de 2025",
			want: "",
		},
		{
			name: "no phrase",
			text: "some unrelated card content",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := e.Extract(tt.text)
			if tt.want == "" {
				if info.StartDate != nil {
					t.Errorf("StartDate = %v, want nil", info.StartDate)
				}
				return
			}
			if info.StartDate == nil {
				t.Fatalf("StartDate = nil, want %s", tt.want)
			}
			if got := info.StartDate.Format("2006-01-02"); got != tt.want {
				t.Errorf("StartDate = %s, want %s", got, tt.want)
			}
		})
	}
}

// pt and en phrases for the same day must agree
func TestDateExtractor_LocalesAgree(t *testing.T) {
	e := newDateExtractor(t)

	pt := e.Extract("Veiculação iniciada em 18 de dezembro de 2025")
	en := e.Extract("Started running on Dec 18, 2025")

	if pt.StartDate == nil || en.StartDate == nil {
		t.Fatal("both phrases should parse")
	}
	if !pt.StartDate.Equal(*en.StartDate) {
		t.Errorf("pt = %v, en = %v, want equal", pt.StartDate, en.StartDate)
	}
}

func TestDateExtractor_EndDate(t *testing.T) {
	e := newDateExtractor(t)

	info := e.Extract("Anúncio inativo\nEncerrado em 10 de março de 2025")
	if info.EndDate == nil {
		t.Fatal("EndDate = nil, want a date")
	}
	if got := info.EndDate.Format("2006-01-02"); got != "2025-03-10" {
		t.Errorf("EndDate = %s, want 2025-03-10", got)
	}
}

func TestDateExtractor_ActiveTimePhrase(t *testing.T) {
	e := newDateExtractor(t)

	tests := []struct {
		text string
		want int
	}{
		{"Tempo total ativo: 12 horas", 0},
		{"Tempo total ativo: 48 horas", 2},
		{"Tempo total ativo: 3 dias", 3},
		{"Total time active: 2 weeks", 14},
		{"Tempo total ativo: 2 meses", 60},
	}

	for _, tt := range tests {
		info := e.Extract(tt.text)
		if info.ActiveTimeDays == nil {
			t.Errorf("%q: ActiveTimeDays = nil, want %d", tt.text, tt.want)
			continue
		}
		if *info.ActiveTimeDays != tt.want {
			t.Errorf("%q: ActiveTimeDays = %d, want %d", tt.text, *info.ActiveTimeDays, tt.want)
		}
	}
}

func TestActiveDays(t *testing.T) {
	day := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad date %s", s)
		}
		return &d
	}
	now := *day("2025-12-20")

	tests := []struct {
		name   string
		start  *time.Time
		end    *time.Time
		active bool
		want   *int
	}{
		{name: "nil start yields nil", start: nil, end: day("2025-12-19"), active: false, want: nil},
		{name: "active counts until now", start: day("2025-12-18"), active: true, want: intPtr(2)},
		{name: "inactive with end date", start: day("2025-12-01"), end: day("2025-12-11"), active: false, want: intPtr(10)},
		{name: "inactive without end date yields nil", start: day("2025-12-01"), active: false, want: nil},
		{name: "same day is zero", start: day("2025-12-20"), active: true, want: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveDays(tt.start, tt.end, tt.active, now)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ActiveDays = %d, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ActiveDays = nil, want %d", *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ActiveDays = %d, want %d", *got, *tt.want)
			}
		})
	}
}

// partial-day windows round up to a whole day
func TestActiveDays_Ceiling(t *testing.T) {
	start := time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 18, 6, 0, 0, 0, time.UTC)

	got := ActiveDays(&start, nil, true, now)
	if got == nil || *got != 1 {
		t.Errorf("ActiveDays = %v, want 1", got)
	}
}

func intPtr(n int) *int { return &n }
