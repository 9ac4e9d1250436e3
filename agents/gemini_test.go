package agents

import (
	"testing"

	"mercado-pricer/models"
)

func TestPartitionOffersPairsByPosition(t *testing.T) {
	// Two listings with the identical title but opposite verdicts: the
	// pairing must follow response order, not the title.
	offers := []models.Offer{
		{ItemID: "MLM1", Title: "Sony WH-1000XM5", Price: 2999},
		{ItemID: "MLM2", Title: "Sony WH-1000XM5", Price: 1499},
	}
	classifications := []models.Classification{
		{ItemID: "MLM1", Title: "Sony WH-1000XM5", Comparable: true},
		{ItemID: "MLM2", Title: "Sony WH-1000XM5", Comparable: false, Reason: "suspiciously cheap clone"},
	}

	result := partitionOffers(offers, classifications)

	if len(result.Comparable) != 1 || result.Comparable[0].ItemID != "MLM1" {
		t.Errorf("comparable: got %+v", result.Comparable)
	}
	if len(result.Excluded) != 1 || result.Excluded[0].ItemID != "MLM2" {
		t.Errorf("excluded: got %+v", result.Excluded)
	}
}

func TestPartitionOffersFallsBackToItemID(t *testing.T) {
	// The model dropped one verdict, so positions no longer line up; the
	// echoed item ids still pair correctly.
	offers := []models.Offer{
		{ItemID: "MLM1", Title: "Sony WH-1000XM5 Negro"},
		{ItemID: "MLM2", Title: "Funda Sony WH-1000XM5"},
		{ItemID: "MLM3", Title: "Sony WH-1000XM5 Plata"},
	}
	classifications := []models.Classification{
		{ItemID: "MLM3", Comparable: true},
		{ItemID: "MLM1", Comparable: true},
	}

	result := partitionOffers(offers, classifications)

	if len(result.Comparable) != 2 {
		t.Fatalf("comparable: got %d, want 2", len(result.Comparable))
	}
	if len(result.Excluded) != 1 || result.Excluded[0].ItemID != "MLM2" {
		t.Errorf("excluded: got %+v", result.Excluded)
	}
}

func TestPartitionOffersImperfectEchoExcludes(t *testing.T) {
	// Count mismatch and no usable item ids: nothing can be paired, so
	// everything lands in excluded rather than guessing.
	offers := []models.Offer{
		{Title: "Sony WH-1000XM5 Negro"},
		{Title: "Sony WH-1000XM5 Plata"},
	}
	classifications := []models.Classification{
		{Title: "sony wh-1000xm5 negro (reworded)", Comparable: true},
	}

	result := partitionOffers(offers, classifications)

	if len(result.Comparable) != 0 || len(result.Excluded) != 2 {
		t.Errorf("partition: got %d comparable / %d excluded, want 0/2",
			len(result.Comparable), len(result.Excluded))
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n[1,2]\n```", "[1,2]"},
	}

	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}
