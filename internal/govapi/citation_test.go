package govapi

import "testing"

func TestBuildBluebookCitation_PrefersPrimaryType(t *testing.T) {
	cl := Cluster{
		DateFiled: "2024-05-16",
		Citations: []ClusterCitation{
			{Type: 2, Volume: 999, Reporter: "Wrong", Page: "1"},
			{Type: 1, Volume: 601, Reporter: "U.S.", Page: "416"},
		},
	}
	got := BuildBluebookCitation(cl)
	want := "601 U.S. 416 (2024)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildBluebookCitation_FallsBackToFirstWhenNoPrimaryType(t *testing.T) {
	cl := Cluster{
		DateFiled: "2023-01-01",
		Citations: []ClusterCitation{
			{Type: 3, Volume: 580, Reporter: "U.S.", Page: "100"},
		},
	}
	got := BuildBluebookCitation(cl)
	want := "580 U.S. 100 (2023)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildBluebookCitation_EmptyWhenIncomplete(t *testing.T) {
	cases := []Cluster{
		{DateFiled: "", Citations: []ClusterCitation{{Volume: 1, Reporter: "U.S.", Page: "1"}}},
		{DateFiled: "2024-01-01", Citations: nil},
		{DateFiled: "2024-01-01", Citations: []ClusterCitation{{Reporter: "U.S.", Page: "1"}}},
	}
	for i, cl := range cases {
		if got := BuildBluebookCitation(cl); got != "" {
			t.Fatalf("case %d: expected empty citation, got %q", i, got)
		}
	}
}

func TestValidateDateFormat(t *testing.T) {
	valid := []string{"2024-01-01", "1900-12-31"}
	invalid := []string{"", "01-01-2024", "2024/01/01", "not-a-date"}

	for _, v := range valid {
		if !ValidateDateFormat(v) {
			t.Fatalf("expected %q to be valid", v)
		}
	}
	for _, v := range invalid {
		if ValidateDateFormat(v) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}
