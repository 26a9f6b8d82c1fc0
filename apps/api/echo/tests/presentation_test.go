package tests

import (
	"encoding/json"
	"net/http"
	"testing"
)

func createPresentationJSON(t *testing.T, env *testEnv, body string) map[string]interface{} {
	t.Helper()
	req, rec := newRequest(http.MethodPost, "/api/v1/presentations", []byte(body))
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

func TestPresentationCreate(t *testing.T) {
	env := setup(t)

	t.Run("created", func(t *testing.T) {
		got := createPresentationJSON(t, env,
			`{"title":"Emergent bugs","abstract":"On bugs.","subject":"entomology","time":"2030-06-01T14:00:00"}`)
		if got["time"] != "2030-06-01T14:00:00" {
			t.Errorf("time = %v; want 2030-06-01T14:00:00", got["time"])
		}
		if presenters, ok := got["presenters"].([]interface{}); !ok || len(presenters) != 0 {
			t.Errorf("presenters = %v; want []", got["presenters"])
		}
	})

	tests := []httpTest{
		{
			name:     "missing time",
			body:     []byte(`{"title":"Emergent bugs"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"time":"this field is required"}`),
		},
		{
			name:     "unparseable time",
			body:     []byte(`{"title":"Emergent bugs","time":"whenever"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"time":"invalid datetime"}`),
		},
		{
			name:     "missing title",
			body:     []byte(`{"time":"2030-06-01T14:00:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title":"this field is required"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/v1/presentations", tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestPresentationRecent(t *testing.T) {
	env := setup(t)
	createPresentationJSON(t, env, `{"title":"past","time":"2020-06-01T09:00:00"}`)
	createPresentationJSON(t, env, `{"title":"later","time":"2031-06-01T09:00:00"}`)
	createPresentationJSON(t, env, `{"title":"sooner","time":"2030-06-01T09:00:00"}`)

	req, rec := newRequest(http.MethodGet, "/api/v1/presentations/recent")
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	var got []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if len(got) != 2 || got[0]["title"] != "sooner" || got[1]["title"] != "later" {
		t.Errorf("recent = %v; want [sooner later]", got)
	}
}

func TestPresentationByCategory(t *testing.T) {
	env := setup(t)

	t.Run("invalid category", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error":"invalid type \"workshop\", must be one of [poster presentation blitz]"}`),
		}
		req, rec := newRequest(http.MethodGet, "/api/v1/presentations/type/workshop")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("room and type come from the block", func(t *testing.T) {
		block := createBlockJSON(t, env,
			`{"day":"Monday","title":"Posters","start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:30:00","type":"poster","location":"Hall A"}`)
		pres := createPresentationJSON(t, env, `{"title":"Emergent bugs","time":"2030-06-01T14:00:00"}`)

		req, rec := newRequest(http.MethodPut, "/api/v1/presentations/"+pres["id"].(string),
			[]byte(`{"schedule_id":"`+block["id"].(string)+`"}`))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		req, rec = newRequest(http.MethodGet, "/api/v1/presentations/type/poster")
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var got []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("presentations = %d; want 1", len(got))
		}
		if got[0]["room"] != "Hall A" || got[0]["type"] != "poster" {
			t.Errorf("room/type = %v/%v; want Hall A/poster", got[0]["room"], got[0]["type"])
		}
	})
}

func TestPresentationByDay(t *testing.T) {
	env := setup(t)
	block := createBlockJSON(t, env,
		`{"day":"Monday","title":"Posters","start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:30:00","type":"poster","sub_length":10}`)
	pres := createPresentationJSON(t, env, `{"title":"Emergent bugs","time":"2030-06-01T14:00:00"}`)

	req, rec := newRequest(http.MethodPut, "/api/v1/presentations/"+pres["id"].(string),
		[]byte(`{"schedule_id":"`+block["id"].(string)+`"}`))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	req, rec = newRequest(http.MethodGet, "/api/v1/presentations/day/Monday")
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	var got []struct {
		Block         map[string]interface{}   `json:"block"`
		Presentations []map[string]interface{} `json:"presentations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if len(got) != 1 || got[0].Block["id"] != block["id"] {
		t.Fatalf("groups = %v; want the poster block", got)
	}
	if len(got[0].Presentations) != 1 || got[0].Presentations[0]["id"] != pres["id"] {
		t.Errorf("presentations = %v; want the hosted one", got[0].Presentations)
	}
}

func TestPresentationOrder(t *testing.T) {
	env := setup(t)
	_, organizerToken := seedAccount(t, env, "Ada", "Lovelace", "ada@conf.io", "organizer")
	_, attendeeToken := seedAccount(t, env, "Grace", "Hopper", "grace@conf.io", "attendee")
	pres := createPresentationJSON(t, env, `{"title":"Emergent bugs","time":"2030-06-01T14:00:00"}`)
	id := pres["id"].(string)

	forbidden := []byte(`{"error":"forbidden","reason":"organizer_required"}`)

	t.Run("anonymous gets JSON even without JSON markers", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: forbidden}
		req, rec := newBrowserRequest(http.MethodPost, "/api/v1/presentations/order", "")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("non-organizer forbidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: forbidden}
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/presentations/order", attendeeToken,
			[]byte(`{"orders":[]}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("orders field required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"orders":"must be a list"}`)}
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/presentations/order", organizerToken,
			[]byte(`{}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("applied, skipping incomplete entries", func(t *testing.T) {
		body := `{"orders":[
			{"presentation_id":"` + id + `","num_in_block":2},
			{"presentation_id":"` + id + `"},
			{"num_in_block":1},
			{"presentation_id":"4a1f0f38-0000-0000-0000-000000000000","num_in_block":3}
		]}`
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"ok":true,"updated":["` + id + `"]}`),
		}
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/presentations/order", organizerToken, []byte(body))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		req, rec = newRequest(http.MethodGet, "/api/v1/presentations/"+id)
		env.app.ServeHTTP(rec, req)
		var got map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got["num_in_block"] != float64(2) {
			t.Errorf("num_in_block = %v; want 2", got["num_in_block"])
		}
	})
}

func TestPresentationUpdate(t *testing.T) {
	env := setup(t)
	block := createBlockJSON(t, env,
		`{"day":"Monday","title":"Posters","start_time":"2026-06-01T09:00:00","end_time":"2026-06-01T10:30:00","type":"poster"}`)
	pres := createPresentationJSON(t, env, `{"title":"Emergent bugs","time":"2030-06-01T14:00:00"}`)
	id := pres["id"].(string)

	updateJSON := func(t *testing.T, body string) map[string]interface{} {
		t.Helper()
		req, rec := newRequest(http.MethodPut, "/api/v1/presentations/"+id, []byte(body))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		return got
	}

	t.Run("clearing the time falls back to the block start", func(t *testing.T) {
		got := updateJSON(t, `{"scheduleId":"`+block["id"].(string)+`","time":null}`)
		if got["time"] != "2026-06-01T09:00:00" {
			t.Errorf("time = %v; want block start 2026-06-01T09:00:00", got["time"])
		}
		if got["schedule_id"] != block["id"] {
			t.Errorf("schedule_id = %v; want %v", got["schedule_id"], block["id"])
		}
	})
	t.Run("absent fields stay put", func(t *testing.T) {
		got := updateJSON(t, `{"subject":"entomology"}`)
		if got["schedule_id"] != block["id"] {
			t.Errorf("schedule_id = %v; want unchanged %v", got["schedule_id"], block["id"])
		}
	})
	t.Run("detaching the block", func(t *testing.T) {
		got := updateJSON(t, `{"schedule_id":null}`)
		if got["schedule_id"] != nil {
			t.Errorf("schedule_id = %v; want null", got["schedule_id"])
		}
		if got["time"] != nil {
			t.Errorf("time = %v; want null with no time and no block", got["time"])
		}
	})
	t.Run("malformed block id", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"schedule_id":"invalid block ID"}`)}
		req, rec := newRequest(http.MethodPut, "/api/v1/presentations/"+id,
			[]byte(`{"schedule_id":"not-a-uuid"}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("unknown block", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: []byte(`{"error":"schedule block not found"}`)}
		req, rec := newRequest(http.MethodPut, "/api/v1/presentations/"+id,
			[]byte(`{"schedule_id":"4a1f0f38-0000-0000-0000-000000000000"}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("invalid time", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"time":"invalid datetime"}`)}
		req, rec := newRequest(http.MethodPut, "/api/v1/presentations/"+id,
			[]byte(`{"time":"whenever"}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestPresentationDestroy(t *testing.T) {
	env := setup(t)
	pres := createPresentationJSON(t, env, `{"title":"Emergent bugs","time":"2030-06-01T14:00:00"}`)
	id := pres["id"].(string)

	req, rec := newRequest(http.MethodDelete, "/api/v1/presentations/"+id)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
	}

	tt := httpTest{wantCode: http.StatusNotFound, wantData: []byte(`{"error":"presentation not found"}`)}
	req, rec = newRequest(http.MethodGet, "/api/v1/presentations/"+id)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
