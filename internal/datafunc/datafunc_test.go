package datafunc

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidateInputsTrimsWhitespace(t *testing.T) {
	filter, err := ValidateInputs(Inputs{
		Crop:      "  wheat ",
		Region:    "\tnorth\n",
		StartDate: " 2023-01-01",
		EndDate:   "2023-06-30 ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Crop != "wheat" || filter.Region != "north" {
		t.Fatalf("filter = %+v", filter)
	}
	if filter.StartDate != "2023-01-01" || filter.EndDate != "2023-06-30" {
		t.Fatalf("filter dates = %q %q", filter.StartDate, filter.EndDate)
	}
}

func TestValidateInputsReportsAllMissingFields(t *testing.T) {
	_, err := ValidateInputs(Inputs{Crop: "   ", Region: "north", StartDate: "", EndDate: "\t"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T", err)
	}
	if len(missing.Fields) != 3 {
		t.Fatalf("fields = %v", missing.Fields)
	}
	if missing.Fields[0] != "crop" || missing.Fields[1] != "start_date" || missing.Fields[2] != "end_date" {
		t.Fatalf("field order = %v", missing.Fields)
	}
	want := "the following required inputs are missing or empty: crop, start_date, end_date"
	if missing.Error() != want {
		t.Fatalf("message = %q", missing.Error())
	}
}

func TestValidateInputsAllBlank(t *testing.T) {
	_, err := ValidateInputs(Inputs{})
	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T", err)
	}
	if len(missing.Fields) != 4 {
		t.Fatalf("fields = %v", missing.Fields)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantKind    Kind
		wantDetails string
	}{
		{
			name:        "missing input",
			err:         &MissingInputError{Fields: []string{"crop"}},
			wantKind:    KindMissingInput,
			wantDetails: "the following required inputs are missing or empty: crop",
		},
		{
			name:        "configuration",
			err:         &ConfigurationError{Detail: "key file not found"},
			wantKind:    KindConfiguration,
			wantDetails: "key file not found",
		},
		{
			name:        "authentication",
			err:         &AuthenticationError{Err: errors.New("invalid service account key")},
			wantKind:    KindAuthentication,
			wantDetails: "invalid service account key",
		},
		{
			name:        "remote query",
			err:         &RemoteQueryError{Err: errors.New("quota exceeded")},
			wantKind:    KindRemoteQuery,
			wantDetails: "quota exceeded",
		},
		{
			name:        "wrapped remote query",
			err:         fmt.Errorf("run retrieval: %w", &RemoteQueryError{Err: errors.New("table not found")}),
			wantKind:    KindRemoteQuery,
			wantDetails: "table not found",
		},
		{
			name:        "unexpected",
			err:         errors.New("boom"),
			wantKind:    KindUnexpected,
			wantDetails: "boom",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, details := Classify(tc.err)
			if kind != tc.wantKind {
				t.Fatalf("kind = %q, want %q", kind, tc.wantKind)
			}
			if details != tc.wantDetails {
				t.Fatalf("details = %q, want %q", details, tc.wantDetails)
			}
		})
	}
}

func TestKindLabels(t *testing.T) {
	cases := map[Kind]string{
		KindMissingInput:   "Missing input parameters",
		KindConfiguration:  "Authentication configuration error",
		KindAuthentication: "Authentication error",
		KindRemoteQuery:    "BigQuery API error",
		KindUnexpected:     "Unexpected error",
	}
	for kind, want := range cases {
		if got := kind.Label(); got != want {
			t.Fatalf("label for %q = %q, want %q", kind, got, want)
		}
	}
	if got := Kind("something-else").Label(); got != "Unexpected error" {
		t.Fatalf("unknown kind label = %q", got)
	}
}
