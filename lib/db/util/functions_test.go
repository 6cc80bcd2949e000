package util

import (
	"hash/fnv"
	"testing"
)

func TestHashStringMatchesFNV1a(t *testing.T) {
	for _, s := range []string{"", "a", "querySubs", "user-settings", "ключ"} {
		h := fnv.New64a()
		_, _ = h.Write([]byte(s))
		if got, want := uint64(HashString(s, 0)), h.Sum64(); got != want {
			t.Errorf("HashString(%q, 0) = %d, want %d", s, got, want)
		}
	}
}

func TestHashStringSeed(t *testing.T) {
	if HashString("ns", 0) == HashString("ns", 1) {
		t.Errorf("Expected different hashes for different seeds")
	}
}

func TestRouteID(t *testing.T) {
	if RouteID("a") == RouteID("b") {
		t.Errorf("Expected different route ids for different namespaces")
	}
	if RouteID("querySubs") != RouteID("querySubs") {
		t.Errorf("Expected stable route id")
	}
}
