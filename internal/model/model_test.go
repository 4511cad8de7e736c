package model

import "testing"

func TestLosingTeam(t *testing.T) {
	cases := []struct {
		winner string
		want   string
	}{
		{"A", "B"},
		{"B", "A"},
		{"", ""},
	}
	for _, c := range cases {
		m := Match{Team1: "A", Team2: "B", WinningTeam: c.winner}
		if got := m.LosingTeam(); got != c.want {
			t.Errorf("winner %q: LosingTeam() = %q, want %q", c.winner, got, c.want)
		}
	}
}

func TestDeliveryKeyLess(t *testing.T) {
	ordered := []DeliveryKey{
		{MatchID: 1, Innings: 1, Over: 0, Ball: 1},
		{MatchID: 1, Innings: 1, Over: 0, Ball: 2},
		{MatchID: 1, Innings: 1, Over: 1, Ball: 1},
		{MatchID: 1, Innings: 2, Over: 0, Ball: 1},
		{MatchID: 2, Innings: 1, Over: 0, Ball: 1},
	}
	for i := 0; i+1 < len(ordered); i++ {
		if !ordered[i].Less(ordered[i+1]) {
			t.Errorf("%s should sort before %s", ordered[i], ordered[i+1])
		}
		if ordered[i+1].Less(ordered[i]) {
			t.Errorf("%s should not sort before %s", ordered[i+1], ordered[i])
		}
	}
	if ordered[0].Less(ordered[0]) {
		t.Error("a key is not less than itself")
	}
}

func TestIsWicket(t *testing.T) {
	if (Delivery{WicketDelivery: true}).IsWicket() {
		t.Error("a wicket delivery without a dismissed player is not a wicket")
	}
	if !(Delivery{WicketDelivery: true, PlayerOut: "b1"}).IsWicket() {
		t.Error("expected a wicket")
	}
}

func TestBowlerExtras(t *testing.T) {
	cases := []struct {
		extra string
		want  int
	}{
		{ExtraWides, 2},
		{ExtraNoBalls, 2},
		{"legbyes", 0},
		{"", 0},
	}
	for _, c := range cases {
		d := Delivery{ExtraType: c.extra, ExtrasRun: 2}
		if got := d.BowlerExtras(); got != c.want {
			t.Errorf("%q: BowlerExtras() = %d, want %d", c.extra, got, c.want)
		}
	}
}
