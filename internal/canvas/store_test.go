package canvas

import (
	"fmt"
	"testing"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("block-%d", n)
	}
}

func TestStoreAddKeepsInsertionOrder(t *testing.T) {
	store := NewStoreWithIDs(sequentialIDs())
	store.Add(KindProtocol, "Aave", "")
	store.Add(KindToken, "DAI", "100")
	store.Add(KindAction, "Deposit", "")
	store.Add(KindToken, "DAI", "5")

	tiles := store.All()
	if len(tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(tiles))
	}
	for i, tile := range tiles {
		if tile.Order != i+1 {
			t.Fatalf("tile %d has order %d", i, tile.Order)
		}
	}
	if tiles[1].ID == tiles[3].ID {
		t.Fatal("duplicate token tiles must get distinct ids")
	}
	if tiles[3].Amount != "5" {
		t.Fatalf("unexpected amount: %q", tiles[3].Amount)
	}
}

func TestStoreRemoveMissingIsNoop(t *testing.T) {
	store := NewStore()
	store.Add(KindProtocol, "Aave", "")
	if store.Remove("block-does-not-exist") {
		t.Fatal("expected remove of unknown id to return false")
	}
	if store.Len() != 1 {
		t.Fatalf("expected store size unchanged, got %d", store.Len())
	}
}

func TestStoreRemoveThenOrderContinues(t *testing.T) {
	store := NewStoreWithIDs(sequentialIDs())
	first := store.Add(KindProtocol, "Aave", "")
	store.Add(KindToken, "DAI", "")
	if !store.Remove(first.ID) {
		t.Fatal("expected removal")
	}
	third := store.Add(KindAction, "Swap", "")
	if third.Order != 3 {
		t.Fatalf("order counter must keep increasing after removal, got %d", third.Order)
	}
	tiles := store.All()
	if len(tiles) != 2 || tiles[0].Name != "DAI" || tiles[1].Name != "Swap" {
		t.Fatalf("unexpected tiles after removal: %+v", tiles)
	}
}

func TestStoreClearResetsCounter(t *testing.T) {
	store := NewStore()
	store.Add(KindProtocol, "Aave", "")
	store.Add(KindToken, "ETH", "")
	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
	tile := store.Add(KindAction, "Stake", "")
	if tile.Order != 1 {
		t.Fatalf("expected order reset to 1, got %d", tile.Order)
	}
	if tile.Position != (Position{X: 160, Y: 0}) {
		t.Fatalf("unexpected default position: %+v", tile.Position)
	}
}

func TestStoreRegeneratesCollidingIDs(t *testing.T) {
	ids := []string{"same", "same", "other"}
	i := 0
	store := NewStoreWithIDs(func() string {
		id := ids[i]
		i++
		return id
	})
	a := store.Add(KindProtocol, "Aave", "")
	b := store.Add(KindProtocol, "Aave", "")
	if a.ID == b.ID {
		t.Fatalf("expected unique ids, both were %q", a.ID)
	}
}

func TestStoreSetAmountAndPlacePosition(t *testing.T) {
	store := NewStore()
	pos := Position{X: 12, Y: 34}
	tile := store.Place(TileInput{Kind: KindToken, Name: "USDC", Position: &pos})
	if tile.Position != pos {
		t.Fatalf("expected explicit position, got %+v", tile.Position)
	}
	if !store.SetAmount(tile.ID, "2.5") {
		t.Fatal("expected amount update")
	}
	got, ok := store.Get(tile.ID)
	if !ok || got.Amount != "2.5" {
		t.Fatalf("unexpected tile after amount update: %+v", got)
	}
	if store.SetAmount("missing", "1") {
		t.Fatal("expected SetAmount on missing id to fail")
	}
}
