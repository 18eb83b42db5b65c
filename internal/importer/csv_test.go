package importer

import (
	"errors"
	"strings"
	"testing"
)

func TestReadCSVOriginalHeader(t *testing.T) {
	in := "Index,Country_of_Giftor,Institution_name,Foreign_Gift_Received_Date,Foreign_Gift_Amount,Giftor_Name,Score,Country_Latitude,Country_Longitude\n" +
		"0,CHINA,Stanford University,2014-01-01,1000.0,Huawei,2.26,35.86,104.19\n" +
		"1,,Stanford University,2015-01-01,-200,,,,\n" +
		"2,QATAR,,2015-01-01,50,,,,\n" +
		"3,QATAR,Cornell University,2015-01-01,lots,,,,\n"

	res, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if len(res.Skipped) != 2 || res.Skipped[0].Line != 4 || res.Skipped[1].Line != 5 {
		t.Fatalf("unexpected skipped rows: %v", res.Skipped)
	}

	first := res.Records[0]
	if first.School != "Stanford University" || first.Donor != "Huawei" || first.DonorCountry != "CHINA" || first.Amount != 1000 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Score == nil || *first.Score != 2.26 || first.Latitude == nil || first.Longitude == nil {
		t.Fatalf("expected numeric fields to be set: %+v", first)
	}

	second := res.Records[1]
	if second.Amount != -200 || second.Score != nil || second.Latitude != nil || second.Donor != "" {
		t.Fatalf("unexpected second record: %+v", second)
	}
}

func TestReadCSVFriendlyHeader(t *testing.T) {
	in := "school,donor,donor_country,date,amount,score,latitude,longitude\n" +
		"Yale University,Anon,JAPAN,2012-04-05,10,8.08,36.2,138.25\n"
	res, err := ReadCSV(strings.NewReader(in))
	if err != nil || len(res.Records) != 1 {
		t.Fatalf("unexpected result: %+v err=%v", res, err)
	}
	if res.Records[0].RawDate != "2012-04-05" {
		t.Fatalf("unexpected date: %q", res.Records[0].RawDate)
	}
}

func TestReadCSVMissingRequiredColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("school,donor\nA,B\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadCSVRejectsNonFiniteAndOutOfRangeValues(t *testing.T) {
	in := "school,amount,score,latitude,longitude\n" +
		"Carnegie Mellon University,10,inf,1,1\n" +
		"Carnegie Mellon University,10,1,-Infinity,1\n" +
		"Carnegie Mellon University,10,11,1,1\n" +
		"Carnegie Mellon University,10,-0.5,1,1\n" +
		"Carnegie Mellon University,10,10,1,1\n"
	res, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(res.Records) != 1 || *res.Records[0].Score != 10 {
		t.Fatalf("expected only the in-range row, got %+v", res.Records)
	}
	want := []error{ErrNotFinite, ErrNotFinite, ErrScoreRange, ErrScoreRange}
	if len(res.Skipped) != len(want) {
		t.Fatalf("expected %d skipped rows, got %v", len(want), res.Skipped)
	}
	for i, w := range want {
		if !errors.Is(res.Skipped[i].Err, w) {
			t.Errorf("row %d: expected %v, got %v", res.Skipped[i].Line, w, res.Skipped[i].Err)
		}
	}
}
