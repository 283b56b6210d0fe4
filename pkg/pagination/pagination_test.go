package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(contextWithQuery(""))
	if p.Limit != DefaultLimit {
		t.Errorf("expected limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := FromContext(contextWithQuery("limit=50&offset=10"))
	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	p := FromContext(contextWithQuery("limit=500"))
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	p := FromContext(contextWithQuery("offset=-5"))
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Garbage(t *testing.T) {
	p := FromContext(contextWithQuery("limit=abc&offset=xyz"))
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 10, 2, 0)
	if resp.Total != 10 {
		t.Errorf("expected total 10, got %d", resp.Total)
	}
	if !resp.HasMore {
		t.Error("expected has_more to be true")
	}

	last := NewResponse([]string{"z"}, 10, 2, 8)
	if last.HasMore {
		t.Error("expected has_more to be false on the last page")
	}
}

func TestParams_Offsets(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if p.NextOffset() != 15 {
		t.Errorf("expected next offset 15, got %d", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous offset clamped to 0, got %d", p.PreviousOffset())
	}
	if !p.HasPrevious() {
		t.Error("expected HasPrevious to be true")
	}
	if p.HasNext(15) {
		t.Error("expected HasNext to be false when offset+limit == total")
	}
}

func TestParams_Links_FirstPage(t *testing.T) {
	links := Params{Limit: 10, Offset: 0}.Links("/api/v1/patients/x/appointments", 25)
	if len(links) != 2 {
		t.Fatalf("expected self and next links, got %d", len(links))
	}
	if links[0].Relation != "self" || links[0].URL != "/api/v1/patients/x/appointments?offset=0&limit=10" {
		t.Errorf("unexpected self link: %+v", links[0])
	}
	if links[1].Relation != "next" || links[1].URL != "/api/v1/patients/x/appointments?offset=10&limit=10" {
		t.Errorf("unexpected next link: %+v", links[1])
	}
}

func TestParams_Links_MiddleAndLast(t *testing.T) {
	middle := Params{Limit: 10, Offset: 10}.Links("/a", 25)
	if len(middle) != 3 {
		t.Fatalf("expected 3 links on a middle page, got %d", len(middle))
	}

	last := Params{Limit: 10, Offset: 20}.Links("/a", 25)
	if len(last) != 2 || last[1].Relation != "previous" {
		t.Fatalf("expected self and previous on last page, got %+v", last)
	}
	if last[1].URL != "/a?offset=10&limit=10" {
		t.Errorf("unexpected previous link: %s", last[1].URL)
	}
}

func TestResponse_WithLinks_JSON(t *testing.T) {
	resp := NewResponse([]int{1}, 3, 1, 1).WithLinks("/a")
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	links, ok := raw["links"].([]interface{})
	if !ok || len(links) != 3 {
		t.Errorf("expected 3 links in JSON, got %v", raw["links"])
	}
	if raw["has_more"] != true {
		t.Errorf("expected has_more=true, got %v", raw["has_more"])
	}
}
