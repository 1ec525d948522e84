package taxlot

import "testing"

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps field order", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("shares", "100")
		w.Append("proceeds", "17500.00")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"shares":"100","proceeds":"17500.00"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("optional omits zero values", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 1)
		w.Optional("code", "")
		w.Optional("note", "kept")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":1,"note":"kept"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
