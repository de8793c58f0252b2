package value_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/quickkv/pkg/value"
)

func Test_Parse_Preserves_Member_Order_On_Encode(t *testing.T) {
	t.Parallel()

	const doc = `{"zeta":1,"alpha":{"y":[true,null],"x":"s"},"mid":[]}`

	v, err := value.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := v.String(); got != doc {
		t.Fatalf("String()=%s, want %s", got, doc)
	}
}

func Test_Parse_Rejects_Malformed_Input(t *testing.T) {
	t.Parallel()

	inputs := []string{
		``,
		`{`,
		`{"a":}`,
		`[1,2`,
		`{"a":1}}`,
		`{"a":1} {"b":2}`,
		`nul`,
	}

	for _, in := range inputs {
		_, err := value.Parse([]byte(in))
		if err == nil {
			t.Errorf("Parse(%q): want error, got nil", in)
		}
	}
}

func Test_Parse_Accepts_Surrounding_Whitespace(t *testing.T) {
	t.Parallel()

	v, err := value.Parse([]byte("\n  [1, 2]\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := v.String(); got != "[1,2]" {
		t.Fatalf("String()=%s, want [1,2]", got)
	}
}

func Test_Value_Works_As_Struct_Field_With_Encoding_JSON(t *testing.T) {
	t.Parallel()

	type row struct {
		ID    string      `json:"id"`
		Value value.Value `json:"value"`
	}

	in := row{ID: "k", Value: value.MustFrom(json.RawMessage(`{"b":1,"a":2}`))}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if got, want := string(data), `{"id":"k","value":{"b":1,"a":2}}`; got != want {
		t.Fatalf("Marshal=%s, want %s", got, want)
	}

	var out row
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(in, out, cmp.Comparer(value.Equal)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func Test_MarshalJSON_Does_Not_Escape_HTML(t *testing.T) {
	t.Parallel()

	got := value.String(`a<b>&"c"`).String()
	want := `"a<b>&\"c\""`

	if got != want {
		t.Fatalf("String()=%s, want %s", got, want)
	}
}
