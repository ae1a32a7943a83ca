package expand

import (
	"reflect"
	"testing"

	"github.com/proxysheets/proxycore/internal/domain"
)

func dfcCard() domain.Card {
	return domain.Card{
		Name:          "Kabira Plateau // Kabira Outpost",
		FrontImageURL: "front.jpg",
		Back:          domain.BackSide{Kind: domain.BackDFC, BackImageURL: "back.jpg"},
	}
}

func singleFacedCard() domain.Card {
	return domain.Card{Name: "Lightning Bolt", FrontImageURL: "bolt.jpg"}
}

func TestExpand_FrontOnly(t *testing.T) {
	got := Expand(domain.ResolvedCard{Card: singleFacedCard(), Quantity: 3, FaceMode: domain.FrontOnly})
	want := []string{"bolt.jpg", "bolt.jpg", "bolt.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_BackOnly_WithBackSide(t *testing.T) {
	got := Expand(domain.ResolvedCard{Card: dfcCard(), Quantity: 2, FaceMode: domain.BackOnly})
	want := []string{"back.jpg", "back.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_BackOnly_FallsBackToFrontWhenNoBack(t *testing.T) {
	got := Expand(domain.ResolvedCard{Card: singleFacedCard(), Quantity: 2, FaceMode: domain.BackOnly})
	want := []string{"bolt.jpg", "bolt.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_BothSides_InterleavesFrontAndBack(t *testing.T) {
	got := Expand(domain.ResolvedCard{Card: dfcCard(), Quantity: 2, FaceMode: domain.BothSides})
	want := []string{"front.jpg", "back.jpg", "front.jpg", "back.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_BothSides_SingleFacedYieldsFrontOnly(t *testing.T) {
	got := Expand(domain.ResolvedCard{Card: singleFacedCard(), Quantity: 2, FaceMode: domain.BothSides})
	want := []string{"bolt.jpg", "bolt.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpand_Deterministic(t *testing.T) {
	r := domain.ResolvedCard{Card: dfcCard(), Quantity: 5, FaceMode: domain.BothSides}
	first := Expand(r)
	second := Expand(r)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected Expand to be deterministic across repeated calls")
	}
}
