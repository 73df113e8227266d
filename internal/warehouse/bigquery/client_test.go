package bigquery

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/agrigate/agrigate/internal/warehouse"
)

func TestBuildStatement(t *testing.T) {
	target := warehouse.TableRef{Project: "acme-prod", Dataset: "agronomy", Table: "field_trials"}
	stmt := buildStatement(target)

	if !strings.HasPrefix(stmt, "SELECT *") {
		t.Fatalf("statement = %q", stmt)
	}
	if !strings.Contains(stmt, "FROM `acme-prod.agronomy.field_trials`") {
		t.Fatalf("statement missing backticked target:\n%s", stmt)
	}
	for _, param := range []string{"@crop", "@region", "@start_date", "@end_date"} {
		if !strings.Contains(stmt, param) {
			t.Fatalf("statement missing parameter %s:\n%s", param, stmt)
		}
	}
	if !strings.HasSuffix(stmt, "ORDER BY date") {
		t.Fatalf("statement must order by date:\n%s", stmt)
	}
}

func TestBuildParameters(t *testing.T) {
	params, err := buildParameters(warehouse.Filter{
		Crop:      "wheat",
		Region:    "north",
		StartDate: "2023-01-01",
		EndDate:   "2023-06-30",
	})
	if err != nil {
		t.Fatalf("buildParameters() error = %v", err)
	}
	if len(params) != 4 {
		t.Fatalf("param count = %d", len(params))
	}

	if params[0].Name != "crop" || params[0].Value != "wheat" {
		t.Fatalf("crop param = %+v", params[0])
	}
	if params[1].Name != "region" || params[1].Value != "north" {
		t.Fatalf("region param = %+v", params[1])
	}

	startDate, ok := params[2].Value.(civil.Date)
	if !ok {
		t.Fatalf("start_date value type = %T", params[2].Value)
	}
	if startDate.Year != 2023 || startDate.Month != time.January || startDate.Day != 1 {
		t.Fatalf("start_date = %v", startDate)
	}
	endDate, ok := params[3].Value.(civil.Date)
	if !ok {
		t.Fatalf("end_date value type = %T", params[3].Value)
	}
	if endDate.String() != "2023-06-30" {
		t.Fatalf("end_date = %v", endDate)
	}
}

func TestBuildParametersRejectsMalformedDates(t *testing.T) {
	cases := []struct {
		name   string
		filter warehouse.Filter
		field  string
	}{
		{
			name:   "bad start date",
			filter: warehouse.Filter{Crop: "wheat", Region: "north", StartDate: "01/01/2023", EndDate: "2023-06-30"},
			field:  "start_date",
		},
		{
			name:   "bad end date",
			filter: warehouse.Filter{Crop: "wheat", Region: "north", StartDate: "2023-01-01", EndDate: "June 30"},
			field:  "end_date",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildParameters(tc.filter)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("error %q does not name %s", err, tc.field)
			}
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2023, 3, 1, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   any
		want any
	}{
		{name: "bytes", in: []byte("raw"), want: "raw"},
		{name: "date", in: civil.Date{Year: 2023, Month: time.March, Day: 1}, want: "2023-03-01"},
		{name: "time", in: civil.Time{Hour: 10, Minute: 30}, want: "10:30:00"},
		{name: "numeric", in: big.NewRat(3, 2), want: "1.500000000"},
		{name: "string", in: "wheat", want: "wheat"},
		{name: "int64", in: int64(42), want: int64(42)},
		{name: "float64", in: 4.25, want: 4.25},
		{name: "bool", in: true, want: true},
		{name: "timestamp", in: ts, want: ts},
		{name: "nil", in: nil, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeValue(tc.in); got != tc.want {
				t.Fatalf("normalizeValue(%v) = %v (%T), want %v", tc.in, got, got, tc.want)
			}
		})
	}
}
