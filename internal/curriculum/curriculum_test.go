package curriculum

import "testing"

func TestTitleLookup(t *testing.T) {
	title, ok := Title("chinese", 1, 1)
	if !ok || title != "观潮" {
		t.Fatalf("chinese 1/1 = %q, %v", title, ok)
	}

	title, ok = Title("  Math ", 2, 6)
	if !ok || title != "角的度量" {
		t.Fatalf("math 2/6 with sloppy subject = %q, %v", title, ok)
	}

	if _, ok := Title("chinese", 9, 1); ok {
		t.Fatal("unknown unit reported a hit")
	}
	if _, ok := Title("science", 1, 1); ok {
		t.Fatal("unknown subject reported a hit")
	}
}
