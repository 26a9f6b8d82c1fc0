package tests

import (
	"encoding/json"
	"net/http"
	"testing"
)

func createBlockJSON(t *testing.T, env *testEnv, body string) map[string]interface{} {
	t.Helper()
	req, rec := newRequest(http.MethodPost, "/api/v1/block-schedule", []byte(body))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	return got
}

func TestBlockCreate(t *testing.T) {
	env := setup(t)

	t.Run("aliases and derived length", func(t *testing.T) {
		got := createBlockJSON(t, env, `{
			"day": "Monday",
			"title": "Posters",
			"startTime": "2026-06-01T09:00",
			"end_time": "2026-06-01T10:30:00",
			"type": "poster",
			"location": "Hall A",
			"sub_length": 10
		}`)
		if got["start_time"] != "2026-06-01T09:00:00" {
			t.Errorf("start_time = %v; want 2026-06-01T09:00:00", got["start_time"])
		}
		if got["end_time"] != "2026-06-01T10:30:00" {
			t.Errorf("end_time = %v; want 2026-06-01T10:30:00", got["end_time"])
		}
		if got["length"] != float64(90) {
			t.Errorf("length = %v; want 90", got["length"])
		}
		if got["block_type"] != "poster" {
			t.Errorf("block_type = %v; want poster", got["block_type"])
		}
	})

	tests := []httpTest{
		{
			name:     "missing times",
			body:     []byte(`{"day":"Monday","title":"Posters"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"start_time":"this field is required"}`),
		},
		{
			name:     "unparseable start",
			body:     []byte(`{"day":"Monday","title":"Posters","start_time":"whenever","end_time":"2026-06-01T10:30:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"start_time":"invalid datetime"}`),
		},
		{
			name:     "missing day and title",
			body:     []byte(`{"start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:30:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"day":"this field is required","title":"this field is required"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/v1/block-schedule", tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestBlockUpdate(t *testing.T) {
	env := setup(t)
	block := createBlockJSON(t, env,
		`{"day":"Monday","title":"Posters","start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:30:00"}`)
	id := block["id"].(string)

	t.Run("partial update", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/api/v1/block-schedule/"+id,
			[]byte(`{"title":"Poster session","type":"poster"}`))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got["title"] != "Poster session" || got["block_type"] != "poster" {
			t.Errorf("title/block_type = %v/%v; want Poster session/poster", got["title"], got["block_type"])
		}
		if got["day"] != "Monday" {
			t.Errorf("day = %v; want unchanged Monday", got["day"])
		}
	})
	t.Run("unparseable datetime is ignored", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/api/v1/block-schedule/"+id,
			[]byte(`{"start_time":"whenever"}`))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got["start_time"] != "2026-06-01T09:00:00" {
			t.Errorf("start_time = %v; want untouched 2026-06-01T09:00:00", got["start_time"])
		}
	})
	t.Run("unknown block", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: []byte(`{"error":"schedule block not found"}`)}
		req, rec := newRequest(http.MethodPut, "/api/v1/block-schedule/4a1f0f38-0000-0000-0000-000000000000",
			[]byte(`{"title":"nope"}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestBlockDaysAndByDay(t *testing.T) {
	env := setup(t)
	createBlockJSON(t, env,
		`{"day":"Monday","title":"Late","start_time":"2026-06-01T14:00:00","end_time":"2026-06-01T15:00:00"}`)
	createBlockJSON(t, env,
		`{"day":"Monday","title":"Early","start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:00:00"}`)
	createBlockJSON(t, env,
		`{"day":"Tuesday","title":"Earliest","start_time":"2026-06-01T08:00:00","end_time":"2026-06-01T09:00:00"}`)

	t.Run("days ordered by earliest start", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`{"days":["Tuesday","Monday"]}`)}
		req, rec := newRequest(http.MethodGet, "/api/v1/block-schedule/days")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("day's blocks ordered by start", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/v1/block-schedule/day/Monday")
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var got []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(got) != 2 || got[0]["title"] != "Early" || got[1]["title"] != "Late" {
			t.Errorf("blocks = %v; want [Early Late]", got)
		}
	})
}

func TestBlockDestroy(t *testing.T) {
	env := setup(t)
	block := createBlockJSON(t, env,
		`{"day":"Monday","title":"Posters","start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:30:00"}`)
	id := block["id"].(string)

	req, rec := newRequest(http.MethodDelete, "/api/v1/block-schedule/"+id)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
	}

	tt := httpTest{wantCode: http.StatusNotFound, wantData: []byte(`{"error":"schedule block not found"}`)}
	req, rec = newRequest(http.MethodGet, "/api/v1/block-schedule/"+id)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
