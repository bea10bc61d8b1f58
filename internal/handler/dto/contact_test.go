package dto

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	var req CreateContactRequest
	payload := `{"first_name":"Alice","email":"a@example.com","phone_number":"+12025550123","birthday":"1990-06-15"}`

	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	if !req.Birthday.Time.Equal(want) {
		t.Errorf("birthday = %v, want %v", req.Birthday.Time, want)
	}
}

func TestDate_UnmarshalJSON_Invalid(t *testing.T) {
	var d Date
	for _, input := range []string{`"15/06/1990"`, `"1990-13-01"`, `"yesterday"`} {
		if err := json.Unmarshal([]byte(input), &d); err == nil {
			t.Errorf("expected error for %s", input)
		}
	}
}

func TestDate_UnmarshalJSON_Null(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`null`), &d); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !d.Time.IsZero() {
		t.Errorf("expected zero time for null, got %v", d.Time)
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	d := Date{time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"1990-06-15"` {
		t.Errorf("marshal = %s, want \"1990-06-15\"", data)
	}
}
